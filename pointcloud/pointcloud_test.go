package pointcloud

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestCloud() *PointCloud {
	bed := []Node{{Pos: mgl64.Vec3{0, 0, 0}}}
	leafs := []Node{
		{Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2},
		{Pos: mgl64.Vec3{5, 0, 8}, RMin: 0.2},
	}
	return NewPointCloud(bed, nil, leafs, math.Pi/4, 0, 5)
}

func TestPointCloudKind(t *testing.T) {
	pc := newTestCloud()
	if pc.Kind(0) != PtBed {
		t.Fatal("id 0 should be the bed point")
	}
	if pc.Kind(1) != PtLeaf || pc.Kind(2) != PtLeaf {
		t.Fatal("ids 1,2 should be leaves")
	}
	if pc.Kind(99) != PtNone {
		t.Fatal("out-of-range id should classify as PtNone")
	}
}

func TestPointCloudStartQueueAndMarkUnreachable(t *testing.T) {
	pc := newTestCloud()
	q := pc.StartQueue()
	if q.Len() != 2 {
		t.Fatalf("expected 2 leaves seeded, got %d", q.Len())
	}

	id, ok := q.Pop()
	if !ok || id != 1 {
		t.Fatalf("expected the higher leaf (z=10, id 1) to pop first, got %d", id)
	}

	pc.MarkUnreachable(id)
	if pc.ReachableCount() != 2 {
		t.Fatalf("expected reachable count to drop by one, got %d", pc.ReachableCount())
	}
}

func TestGetDistanceToBed(t *testing.T) {
	pc := newTestCloud()
	d := pc.GetDistance(mgl64.Vec3{0, 0, 10}, 0)
	if math.IsInf(d, 1) {
		t.Fatal("a point directly above the bed origin should have a finite branching distance")
	}
	if math.Abs(d-10) > 1e-6 {
		t.Fatalf("expected distance 10, got %v", d)
	}
}

func TestForeachReachableExcludesSelf(t *testing.T) {
	pc := newTestCloud()
	candidates := pc.ForeachReachable(mgl64.Vec3{0, 0, 10}, 5, 0, 20, 20)
	for _, c := range candidates {
		if c.EuclDist == 0 {
			t.Fatal("ForeachReachable should not return the query point itself at distance 0")
		}
	}
}

func TestInsertJunctionPreservesLeafZeroAsAChild(t *testing.T) {
	// With no bed points, the first leaf gets id 0 — a merger naming it as
	// Left must not be silently rewritten to IDNone.
	leafs := []Node{
		{Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2},
		{Pos: mgl64.Vec3{1, 0, 9}, RMin: 0.2},
	}
	pc := NewPointCloud(nil, nil, leafs, math.Pi/4, 0, 5)

	id := pc.InsertJunction(Node{Left: 0, Right: 1, Pos: mgl64.Vec3{0.5, 0, 9.5}})
	merged := pc.Get(id)
	if merged.Left != 0 {
		t.Fatalf("expected Left to remain leaf id 0, got %d", merged.Left)
	}
	if merged.Right != 1 {
		t.Fatalf("expected Right to remain leaf id 1, got %d", merged.Right)
	}
}
