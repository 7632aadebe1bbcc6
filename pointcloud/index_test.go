package pointcloud

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestIndexKNearest(t *testing.T) {
	ix := NewIndex(1.0)
	pts := []mgl64.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 5, 0}, {2, 0, 0}, {10, 10, 10},
	}
	for i, p := range pts {
		ix.Insert(int32(i), p)
	}

	got := ix.KNearest(mgl64.Vec3{0, 0, 0}, 3, 100, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 nearest ids, got %d", len(got))
	}
	if got[0] != 0 {
		t.Fatalf("expected id 0 (distance 0) to come first, got %d", got[0])
	}
}

func TestIndexMarkUnreachable(t *testing.T) {
	ix := NewIndex(1.0)
	ix.Insert(0, mgl64.Vec3{0, 0, 0})
	ix.Insert(1, mgl64.Vec3{0.1, 0, 0})

	ix.MarkUnreachable(0)
	if ix.IsActive(0) {
		t.Fatal("id 0 should no longer be active")
	}

	got := ix.KNearest(mgl64.Vec3{0, 0, 0}, 2, 10, nil)
	for _, id := range got {
		if id == 0 {
			t.Fatal("KNearest should never return an unreachable id")
		}
	}
}

func TestIndexFilter(t *testing.T) {
	ix := NewIndex(1.0)
	ix.Insert(0, mgl64.Vec3{0, 0, 0})
	ix.Insert(1, mgl64.Vec3{3, 0, 0})

	got := ix.KNearest(mgl64.Vec3{0, 0, 0}, 2, 10, func(id int32, dist float64) bool {
		return dist > 1
	})
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected only id 1 to pass the filter, got %v", got)
	}
}
