package treebuilder

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBuilderAddHeadAndPillar(t *testing.T) {
	b := NewBuilder(8)
	id, _ := b.AddHead(0, Head{
		Pos: mgl64.Vec3{0, 0, 10}, Dir: mgl64.Vec3{0, 0, 1},
		RPin: 0.2, RBack: 0.3, Width: 1.0, Penetration: 0.2,
	})
	if id != 0 {
		t.Fatalf("expected first head id 0, got %d", id)
	}

	h := b.Head(id)
	if h.PillarID != IDUnset || h.BridgeID != IDUnset {
		t.Fatal("new head should start with unset pillar/bridge ids")
	}

	pillarID := b.AddPillarForHead(id, 5)
	pillar := b.Pillar(pillarID)
	if pillar.Height != 5 {
		t.Fatalf("expected pillar height 5, got %v", pillar.Height)
	}

	updated := b.Head(id)
	if updated.PillarID != pillarID {
		t.Fatalf("AddPillarForHead should wire the head's PillarID, got %d want %d", updated.PillarID, pillarID)
	}
}

func TestBuilderMeshNonEmpty(t *testing.T) {
	b := NewBuilder(8)
	b.AddHead(0, Head{
		Pos: mgl64.Vec3{0, 0, 10}, Dir: mgl64.Vec3{0, 0, 1},
		RPin: 0.2, RBack: 0.3, Width: 1.0, Penetration: 0.2,
	})
	b.AddJunction(Junction{Pos: mgl64.Vec3{0, 0, 5}, R: 0.3})

	m := b.Mesh()
	if m.NumTriangles() == 0 {
		t.Fatal("expected a non-empty mesh after adding a head and a junction")
	}
}

func TestBuilderIncrementBridges(t *testing.T) {
	b := NewBuilder(8)
	id := b.AddPillar(Pillar{Endpoint: mgl64.Vec3{0, 0, 0}, Height: 5, RStart: 0.3, REnd: 0.3})
	if b.IncrementBridges(id) != 1 {
		t.Fatal("expected bridge count 1 after first increment")
	}
	if b.IncrementBridges(id) != 2 {
		t.Fatal("expected bridge count 2 after second increment")
	}
	if b.BridgeCount(id) != 2 {
		t.Fatalf("expected BridgeCount to report 2, got %d", b.BridgeCount(id))
	}
}
