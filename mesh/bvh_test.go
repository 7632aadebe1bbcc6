package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// cube returns a closed unit cube centred on the origin, CCW-wound outward.
func cube() IndexedTriangleSet {
	v := []mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1}, // bottom
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}, // top
	}
	idx := [][3]uint32{
		{0, 2, 1}, {0, 3, 2}, // bottom (normal -Z)
		{4, 5, 6}, {4, 6, 7}, // top (normal +Z)
		{0, 1, 5}, {0, 5, 4}, // front (-Y)
		{1, 2, 6}, {1, 6, 5}, // right (+X)
		{2, 3, 7}, {2, 7, 6}, // back (+Y)
		{3, 0, 4}, {3, 4, 7}, // left (-X)
	}
	return IndexedTriangleSet{Vertices: v, Indices: idx}
}

func TestRayHitFromOutside(t *testing.T) {
	q := NewMeshQ(cube())
	hit := q.RayHit(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{0, 0, 1})
	if hit.IsInside {
		t.Fatal("a ray starting outside the cube should not report IsInside")
	}
	if math.Abs(hit.Distance-9) > 1e-6 {
		t.Fatalf("expected entry distance 9, got %v", hit.Distance)
	}
}

func TestRayHitFromInside(t *testing.T) {
	q := NewMeshQ(cube())
	hit := q.RayHit(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1})
	if !hit.IsInside {
		t.Fatal("a ray starting at the cube's centre should report IsInside")
	}
	if math.Abs(hit.Distance-1) > 1e-6 {
		t.Fatalf("expected exit distance 1, got %v", hit.Distance)
	}
}

func TestRayMiss(t *testing.T) {
	q := NewMeshQ(cube())
	hit := q.RayHit(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{1, 0, 0})
	if hit.Face != -1 || !math.IsInf(hit.Distance, 1) {
		t.Fatalf("expected a miss, got %+v", hit)
	}
}

func TestSquaredDistance(t *testing.T) {
	q := NewMeshQ(cube())
	d := q.SquaredDistance(mgl64.Vec3{0, 0, 2})
	if math.Abs(d-1) > 1e-6 {
		t.Fatalf("expected squared distance 1 from z=2 to the top face at z=1, got %v", d)
	}
}
