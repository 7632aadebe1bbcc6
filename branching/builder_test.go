package branching

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/noctua3d/slasupport/pointcloud"
)

// fakeBuilder records every call BuildTree makes, always succeeding, so the
// merge loop's control flow can be exercised without mesh collision queries.
type fakeBuilder struct {
	bridges       int
	mergers       int
	groundBridges int
	meshBridges   int
	unroutable    []int32
}

func (f *fakeBuilder) AddBridge(from, to pointcloud.Node) bool {
	f.bridges++
	return true
}
func (f *fakeBuilder) AddMerger(from, to, merged pointcloud.Node) bool {
	f.mergers++
	return true
}
func (f *fakeBuilder) AddGroundBridge(from, to pointcloud.Node) bool {
	f.groundBridges++
	return true
}
func (f *fakeBuilder) AddMeshBridge(from, to pointcloud.Node) bool {
	f.meshBridges++
	return true
}
func (f *fakeBuilder) ReportUnroutable(n pointcloud.Node) {
	f.unroutable = append(f.unroutable, n.ID)
}
func (f *fakeBuilder) IsValid() bool { return true }
func (f *fakeBuilder) SuggestAvoidance(from, to pointcloud.Node, maxLength float64) (mgl64.Vec3, bool) {
	return from.Pos.Add(to.Pos).Mul(0.5), true
}

func TestBuildTreeRoutesTwoLeavesToGround(t *testing.T) {
	bed := []pointcloud.Node{{Pos: mgl64.Vec3{0, 0, 0}}}
	leafs := []pointcloud.Node{
		{Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2},
		{Pos: mgl64.Vec3{0.5, 0, 9}, RMin: 0.2},
	}
	pc := pointcloud.NewPointCloud(bed, nil, leafs, 0.8, 0, 5)

	fb := &fakeBuilder{}
	BuildTree(pc, fb, Properties{
		MaxSlope:                0.8,
		GroundLevel:             0,
		MaxBranchLength:         50,
		PillarWideningFactor:    0.02,
		MaxWeightOnModelSupport: 1000,
	})

	require.True(t, fb.groundBridges > 0 || fb.mergers > 0, "expected at least one ground bridge or merger to have been attempted")
	require.Empty(t, fb.unroutable, "did not expect any unroutable points in this simple two-leaf case")
}

func TestBuildTreeReportsUnroutableWhenNoCandidates(t *testing.T) {
	// A single leaf with no bed and no other leaves within reach: the very
	// first candidate search (small k, zero max branch length) must fail and
	// ReportUnroutable must fire.
	leafs := []pointcloud.Node{{Pos: mgl64.Vec3{0, 0, 10}, RMin: 0.2}}
	pc := pointcloud.NewPointCloud(nil, nil, leafs, 0.8, 0, 5)

	fb := &fakeBuilder{}
	BuildTree(pc, fb, Properties{MaxSlope: 0.8, GroundLevel: 0, MaxBranchLength: 50, PillarWideningFactor: 0.02, MaxWeightOnModelSupport: 1000})

	require.Len(t, fb.unroutable, 1, "expected exactly one unroutable point")
}
