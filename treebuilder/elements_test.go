package treebuilder

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestHeadJunctionPoint(t *testing.T) {
	h := Head{
		Pos: mgl64.Vec3{0, 0, 0}, Dir: mgl64.Vec3{0, 0, 1},
		RPin: 0.2, RBack: 0.3, Width: 1.0, Penetration: 0.2,
	}
	want := h.FullWidth()
	jp := h.JunctionPoint()
	if jp.Z() != want {
		t.Fatalf("expected junction point z = %v, got %v", want, jp.Z())
	}
}

func TestHeadInvalidate(t *testing.T) {
	h := Head{ID: 5}
	if !h.IsValid() {
		t.Fatal("head with positive id should be valid")
	}
	h.Invalidate()
	if h.IsValid() {
		t.Fatal("head should be invalid after Invalidate")
	}
	if h.ID != IDUnset {
		t.Fatalf("expected ID == IDUnset, got %d", h.ID)
	}
}

func TestBridgeLengthAndDir(t *testing.T) {
	b := Bridge{Start: mgl64.Vec3{0, 0, 0}, End: mgl64.Vec3{3, 4, 0}}
	if b.Length() != 5 {
		t.Fatalf("expected length 5, got %v", b.Length())
	}
	dir := b.Dir()
	if dir.LenSqr() < 0.999 || dir.LenSqr() > 1.001 {
		t.Fatalf("direction should be unit length, got %v", dir)
	}
}

func TestPairHashSymmetric(t *testing.T) {
	if PairHash(3, 7) != PairHash(7, 3) {
		t.Fatal("PairHash must be symmetric")
	}
	if PairHash(3, 7) == PairHash(3, 8) {
		t.Fatal("distinct pairs should not collide trivially")
	}
}

func TestPillarEndpoints(t *testing.T) {
	p := Pillar{Endpoint: mgl64.Vec3{1, 2, 3}, Height: 10}
	if p.EndPoint() != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("unexpected end point: %v", p.EndPoint())
	}
	if p.StartPoint() != (mgl64.Vec3{1, 2, 13}) {
		t.Fatalf("unexpected start point: %v", p.StartPoint())
	}
}
