package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func square(side float64) Polygon {
	h := side / 2
	return Polygon{Points: []Point2{
		{ToCoord(-h), ToCoord(-h)},
		{ToCoord(h), ToCoord(-h)},
		{ToCoord(h), ToCoord(h)},
		{ToCoord(-h), ToCoord(h)},
	}}
}

func TestPolygonArea(t *testing.T) {
	p := square(10)
	if math.Abs(p.Area()-100) > 1e-6 {
		t.Fatalf("expected area 100, got %v", p.Area())
	}
}

func TestPolygonContains(t *testing.T) {
	p := square(10)
	if !p.Contains(mgl64.Vec2{0, 0}) {
		t.Fatal("centre should be inside")
	}
	if p.Contains(mgl64.Vec2{100, 100}) {
		t.Fatal("far point should be outside")
	}
}

func TestExPolygonHole(t *testing.T) {
	outer := square(10)
	hole := square(4)
	ex := ExPolygon{Contour: outer, Holes: []Polygon{hole}}

	if ex.Contains(mgl64.Vec2{0, 0}) {
		t.Fatal("centre lies in the hole, should not be contained")
	}
	if !ex.Contains(mgl64.Vec2{4, 4}) {
		t.Fatal("point between hole and outer boundary should be contained")
	}
	if math.Abs(ex.Area()-(100-16)) > 1e-6 {
		t.Fatalf("expected net area 84, got %v", ex.Area())
	}
}

func TestDistanceToBoundary(t *testing.T) {
	p := square(10)
	d := p.DistanceToBoundary(mgl64.Vec2{0, 0})
	if math.Abs(d-5) > 1e-6 {
		t.Fatalf("centre of a 10x10 square should be 5mm from the boundary, got %v", d)
	}
}

func TestSegmentsCount(t *testing.T) {
	ex := ExPolygon{Contour: square(10), Holes: []Polygon{square(4)}}
	segs := ex.Segments()
	if len(segs) != 8 {
		t.Fatalf("expected 4 contour + 4 hole segments, got %d", len(segs))
	}
}
