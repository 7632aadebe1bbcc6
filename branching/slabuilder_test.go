package branching

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/pointcloud"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/treebuilder"
)

func emptyMeshQ() *mesh.MeshQ {
	return mesh.NewMeshQ(mesh.IndexedTriangleSet{})
}

func TestSLABuilderAddMeshBridgeRefusedWhenGroundFacingOnly(t *testing.T) {
	cfg := slaconfig.Default()
	cfg.GroundFacingOnly = true
	b := NewSLABuilder(emptyMeshQ(), treebuilder.NewBuilder(16), cfg, nil)

	from := pointcloud.Node{ID: 0, Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2}
	to := pointcloud.Node{ID: 1, Pos: mgl64.Vec3{0, 0, 8}, RMin: 0.2}
	if b.AddMeshBridge(from, to) {
		t.Fatal("AddMeshBridge must refuse to anchor into the model when GroundFacingOnly is set")
	}
}

func TestSLABuilderAddMeshBridgeSucceedsByDefault(t *testing.T) {
	cfg := slaconfig.Default()
	b := NewSLABuilder(emptyMeshQ(), treebuilder.NewBuilder(16), cfg, nil)

	from := pointcloud.Node{ID: 0, Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2}
	to := pointcloud.Node{ID: 1, Pos: mgl64.Vec3{0, 0, 8}, RMin: 0.2}
	if !b.AddMeshBridge(from, to) {
		t.Fatal("expected AddMeshBridge to succeed against an empty, unobstructed mesh")
	}
}
