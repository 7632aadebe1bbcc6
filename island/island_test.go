package island

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

func rect(w, h float64) geom.Polygon {
	hw, hh := w/2, h/2
	return geom.Polygon{Points: []geom.Point2{
		{geom.ToCoord(-hw), geom.ToCoord(-hh)},
		{geom.ToCoord(hw), geom.ToCoord(-hh)},
		{geom.ToCoord(hw), geom.ToCoord(hh)},
		{geom.ToCoord(-hw), geom.ToCoord(hh)},
	}}
}

func defaultParams() Params {
	return Params{
		ThinMaxWidth:                 1.0,
		ThickMinWidth:                1.0,
		ThickInnerMaxDistance:        3.0,
		MinimalDistanceFromOutline:   0.3,
		MaxLengthForOneSupportPoint:  2.0,
		MaxLengthForTwoSupportPoints: 8.0,
		ThinMaxDistance:              3.0,
		CountIteration:               10,
		MinimalMove:                  0.01,
		MaxAlignDistance:             1.0,
		HeadRadius:                   0.2,
		SampleSpacing:                0.5,
	}
}

func TestSampleSmallSquareYieldsAtLeastOnePoint(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(1, 1)}
	pts := Sample(poly, defaultParams())
	if len(pts) == 0 {
		t.Fatal("expected at least one sample point for a small square island")
	}
	for _, p := range pts {
		if !poly.Contains(p) {
			t.Fatalf("sample point %v fell outside the island", p)
		}
	}
}

func TestSampleLongRectangleWalksBranch(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(40, 2)}
	pts := Sample(poly, defaultParams())
	if len(pts) < 2 {
		t.Fatalf("expected a long thin island to yield multiple samples along its length, got %d", len(pts))
	}
	for _, p := range pts {
		if !poly.Contains(p) {
			t.Fatalf("sample point %v fell outside the island", p)
		}
	}
}

func TestBuildSkeletonNonEmptyForRectangle(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(20, 5)}
	nodes := BuildSkeleton(poly, defaultParams())
	if len(nodes) == 0 {
		t.Fatal("expected a non-empty skeleton for a 20x5 rectangle")
	}
}

func TestAlignBranchesKeepsPointsInsidePolygon(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(20, 5)}
	p := defaultParams()
	pts := []mgl64.Vec2{{-5, 0}, {0, 0}, {5, 0}}
	aligned := AlignBranches(pts, poly, p)
	for _, a := range aligned {
		if !poly.Contains(a) {
			t.Fatalf("aligned point %v left the polygon", a)
		}
	}
}

func TestEnforceOutputInvariantsDedupesWithinHeadRadius(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(20, 20)}
	p := defaultParams()
	p.HeadRadius = 1.0

	pts := []mgl64.Vec2{{0, 0}, {0.2, 0}, {5, 5}}
	out := enforceOutputInvariants(pts, poly, p)
	if len(out) != 2 {
		t.Fatalf("expected the two near-duplicate points to collapse to one, got %d points: %v", len(out), out)
	}
}

func TestEnforceOutputInvariantsPullsPointsAwayFromBoundary(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(20, 20)}
	p := defaultParams()
	p.MinimalDistanceFromOutline = 2.0
	p.HeadRadius = 0

	// A point 0.1mm from the right edge (x=10) of a 20x20 square.
	pts := []mgl64.Vec2{{9.9, 0}}
	out := enforceOutputInvariants(pts, poly, p)
	if len(out) != 1 {
		t.Fatalf("expected exactly one point, got %d", len(out))
	}
	if d := poly.DistanceToBoundary(out[0]); d < p.MinimalDistanceFromOutline*0.9 {
		t.Fatalf("expected the point to be pulled to roughly %v from the boundary, got %v (point %v)", p.MinimalDistanceFromOutline, d, out[0])
	}
}

func TestSampleOutputRespectsHeadRadiusSpacing(t *testing.T) {
	poly := geom.ExPolygon{Contour: rect(40, 2)}
	p := defaultParams()
	p.HeadRadius = 1.5

	pts := Sample(poly, p)
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Sub(pts[j]).Len(); d < p.HeadRadius {
				t.Fatalf("points %v and %v are only %v apart, below HeadRadius %v", pts[i], pts[j], d, p.HeadRadius)
			}
		}
	}
}
