package headopt

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/slaconfig"
)

func emptyMeshQ() *mesh.MeshQ {
	return mesh.NewMeshQ(mesh.IndexedTriangleSet{})
}

func TestPlaceSucceedsWithNoObstruction(t *testing.T) {
	q := emptyMeshQ()
	cfg := slaconfig.Default()
	res, ok, err := Place(q, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected placement to succeed against an empty mesh")
	}
	if res.Head.RBack != cfg.HeadBackRadiusMm {
		t.Fatalf("expected the primary back radius to be used when unobstructed, got %v", res.Head.RBack)
	}
}

func TestPlaceRejectsNearHorizontalNormal(t *testing.T) {
	q := emptyMeshQ()
	cfg := slaconfig.Default()
	normal := mgl64.Vec3{1, 0, 0.01}.Normalize()
	_, ok, err := Place(q, mgl64.Vec3{0, 0, 10}, normal, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a near-horizontal normal should be rejected by the normal cutoff")
	}
}

func TestPlaceRejectsBelowGroundLevel(t *testing.T) {
	q := emptyMeshQ()
	cfg := slaconfig.Default()
	cfg.GroundLevel = 100 // force the apex check to fail
	_, ok, err := Place(q, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected placement to fail when the computed apex sits below ground level")
	}
}
