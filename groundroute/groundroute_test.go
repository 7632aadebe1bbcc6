package groundroute

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/treebuilder"
)

func emptyMeshQ() *mesh.MeshQ {
	return mesh.NewMeshQ(mesh.IndexedTriangleSet{})
}

func TestCheckGroundRouteClearDropsToGround(t *testing.T) {
	q := emptyMeshQ()
	cfg := slaconfig.Default()
	hit := CheckGroundRoute(q, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1}, 0.3, cfg.MaxBridgeLengthMm, FixedEndRadius(0.3), cfg)
	if hit.collision {
		t.Fatal("an unobstructed vertical route should not collide")
	}
	if math.Abs(hit.z-cfg.GroundLevel) > 1e-6 {
		t.Fatalf("expected the route to reach ground level %v, got %v", cfg.GroundLevel, hit.z)
	}
}

func TestPillarBaseSafetyTestUnobstructed(t *testing.T) {
	q := emptyMeshQ()
	if !PillarBaseSafetyTest(q, mgl64.Vec3{0, 0, 0}, 1.5, 0.5) {
		t.Fatal("an empty mesh should never fail the pillar-base safety test")
	}
}

func TestDeepsearchGroundConnectionSucceeds(t *testing.T) {
	q := emptyMeshQ()
	cfg := slaconfig.Default()
	junction := treebuilder.Junction{Pos: mgl64.Vec3{0, 0, 10}, R: 0.3}
	widening := DefaultWidening(cfg.HeadBackRadiusMm, cfg.PillarWideningFactor)

	conn, ok := DeepsearchGroundConnection(q, junction, widening, cfg, nil)
	if !ok {
		t.Fatal("expected a ground connection against an empty mesh")
	}
	if !conn.Valid() {
		t.Fatal("expected the connection to carry a pillar base")
	}
	if math.Abs(conn.PillarBase.Pos.Z()-cfg.GroundLevel) > 1e-6 {
		t.Fatalf("expected the pedestal to sit at ground level, got %v", conn.PillarBase.Pos.Z())
	}
}
