package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CoordScale is the fixed-point scale applied when converting millimetre
// polygon coordinates to the integer Coord type used for robust Voronoi
// arithmetic (spec.md §3 "Integer-scaled 2D points").
const CoordScale = 1e6

// Coord is a fixed-point 2D scalar: a millimetre value v is represented as
// round(v * CoordScale). 32 bits is sufficient for the scale and bed sizes
// in play here.
type Coord int32

// ToCoord converts a millimetre value to its fixed-point representation.
func ToCoord(mm float64) Coord { return Coord(math.Round(mm * CoordScale)) }

// ToMM converts a fixed-point value back to millimetres.
func (c Coord) ToMM() float64 { return float64(c) / CoordScale }

// Point2 is an integer-scaled 2D point.
type Point2 struct{ X, Y Coord }

// ToVec2 converts p to floating-point millimetres.
func (p Point2) ToVec2() mgl64.Vec2 { return mgl64.Vec2{p.X.ToMM(), p.Y.ToMM()} }

// Polygon is a closed loop of integer-scaled points, CCW for outer contours
// and CW for holes (spec.md §3).
type Polygon struct {
	Points []Point2
}

// Area returns the signed shoelace area in mm^2 (positive iff CCW).
func (p Polygon) Area() float64 {
	n := len(p.Points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := p.Points[i].ToVec2()
		b := p.Points[(i+1)%n].ToVec2()
		sum += a.X()*b.Y() - b.X()*a.Y()
	}
	return sum / 2
}

// Contains reports whether point q (in mm) lies inside p, via the standard
// even-odd ray-casting rule.
func (p Polygon) Contains(q mgl64.Vec2) bool {
	n := len(p.Points)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := p.Points[i].ToVec2()
		b := p.Points[j].ToVec2()
		if (a.Y() > q.Y()) != (b.Y() > q.Y()) &&
			q.X() < (b.X()-a.X())*(q.Y()-a.Y())/(b.Y()-a.Y())+a.X() {
			inside = !inside
		}
	}
	return inside
}

// DistanceToBoundary returns the minimum distance in mm from q to any edge
// of p.
func (p Polygon) DistanceToBoundary(q mgl64.Vec2) float64 {
	n := len(p.Points)
	best := mgl64.Vec2{}.Len()
	first := true
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a := p.Points[i].ToVec2()
		b := p.Points[j].ToVec2()
		d := distToSegment2(q, a, b)
		if first || d < best {
			best = d
			first = false
		}
	}
	return best
}

func distToSegment2(q, a, b mgl64.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-18 {
		return q.Sub(a).Len()
	}
	t := q.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := a.Add(ab.Mul(t))
	return q.Sub(proj).Len()
}

// ExPolygon is a polygon with holes: Contour is the outer CCW loop, Holes
// are CW loops subtracted from it.
type ExPolygon struct {
	Contour Polygon
	Holes   []Polygon
}

// Area returns the net area (contour minus holes) in mm^2.
func (e ExPolygon) Area() float64 {
	area := e.Contour.Area()
	for _, h := range e.Holes {
		area -= math64Abs(h.Area())
	}
	return area
}

func math64Abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Contains reports whether q lies inside the contour and outside every hole.
func (e ExPolygon) Contains(q mgl64.Vec2) bool {
	if !e.Contour.Contains(q) {
		return false
	}
	for _, h := range e.Holes {
		if h.Contains(q) {
			return false
		}
	}
	return true
}

// DistanceToBoundary is the minimum distance to the contour or any hole.
func (e ExPolygon) DistanceToBoundary(q mgl64.Vec2) float64 {
	best := e.Contour.DistanceToBoundary(q)
	for _, h := range e.Holes {
		if d := h.DistanceToBoundary(q); d < best {
			best = d
		}
	}
	return best
}

// Segments returns every boundary edge of e (contour + holes) as point
// pairs, the input to a segment Voronoi diagram (spec.md §4.9 step 1).
func (e ExPolygon) Segments() [][2]Point2 {
	var segs [][2]Point2
	segs = append(segs, ringSegments(e.Contour.Points)...)
	for _, h := range e.Holes {
		segs = append(segs, ringSegments(h.Points)...)
	}
	return segs
}

func ringSegments(pts []Point2) [][2]Point2 {
	n := len(pts)
	segs := make([][2]Point2, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, [2]Point2{pts[i], pts[(i+1)%n]})
	}
	return segs
}
