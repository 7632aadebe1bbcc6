// Package slasupport generates SLA support trees for a mesh, following
// spec.md §6's external-interfaces contract: one entry point, Build, that
// dispatches to either the deterministic DefaultTree pipeline or the greedy
// BranchingTree algorithm depending on SupportConfig.Algorithm.
package slasupport

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/branching"
	"github.com/noctua3d/slasupport/defaulttree"
	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/pointcloud"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/slaerr"
	"github.com/noctua3d/slasupport/supportpoint"
	"github.com/noctua3d/slasupport/treebuilder"
)

// ProgressFunc is called by the DefaultTree build after each of its five
// stages with (phase, phase, 5), i.e. "stage 3 of 5"; the BranchingTree
// build does not report progress (spec.md §6, §5 "cooperative cancellation").
type ProgressFunc = defaulttree.ProgressFunc

// CancelFunc is polled between DefaultTree stages; returning true aborts the
// build and Build returns slaerr.Cancelled. The BranchingTree loop does not
// poll it: a BranchingTree build checks it once, after the loop finishes.
type CancelFunc = defaulttree.CancelFunc

// facetSteps is the tessellation resolution used for every generated
// support primitive (heads, pillars, bridges, pedestals).
const facetSteps = 16

// Result is the tree plus whatever support points the pipeline could not
// route to the bed or the model (spec.md §8 "every routed point satisfies
// its invariants; no input point is silently discarded").
type Result struct {
	Mesh       mesh.IndexedTriangleSet
	Unroutable []int
}

// Build places pinheads at every point and connects them into a printable
// support tree, either via the DefaultTree pipeline or BranchingTree
// depending on cfg.Algorithm.
func Build(m mesh.IndexedTriangleSet, points []supportpoint.SupportPoint, cfg slaconfig.SupportConfig, progress ProgressFunc, cancel CancelFunc, logger *slog.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := mesh.NewMeshQ(m)
	store := treebuilder.NewBuilder(facetSteps)

	switch cfg.Algorithm {
	case slaconfig.AlgorithmBranching:
		return buildBranching(q, store, points, cfg, logger, cancel)
	default:
		return buildDefault(q, store, points, cfg, logger, progress, cancel)
	}
}

func buildDefault(q *mesh.MeshQ, store *treebuilder.Builder, points []supportpoint.SupportPoint, cfg slaconfig.SupportConfig, logger *slog.Logger, progress ProgressFunc, cancel CancelFunc) (Result, error) {
	tree := &defaulttree.Tree{Mesh: q, Store: store, Cfg: cfg, Logger: logger, Progress: progress, Cancel: cancel}
	res := tree.Build(points)
	if cancel != nil && cancel() {
		return Result{}, slaerr.Wrap(slaerr.Cancelled, "support generation cancelled")
	}
	return Result{Mesh: store.Mesh(), Unroutable: res.Unroutable}, nil
}

func buildBranching(q *mesh.MeshQ, store *treebuilder.Builder, points []supportpoint.SupportPoint, cfg slaconfig.SupportConfig, logger *slog.Logger, cancel CancelFunc) (Result, error) {
	bed := make([]pointcloud.Node, 0, 1)
	meshPts := make([]pointcloud.Node, 0)
	leafs := make([]pointcloud.Node, 0, len(points))
	for _, p := range points {
		leafs = append(leafs, pointcloud.Node{
			Pos:  toVec3(p.Pos),
			RMin: float64(p.HeadR),
			Left: pointcloud.IDNone, Right: pointcloud.IDNone,
		})
	}

	pc := pointcloud.NewPointCloud(bed, meshPts, leafs, cfg.BridgeSlope, cfg.GroundLevel, cfg.SafetyDistanceMm)
	builder := branching.NewSLABuilder(q, store, cfg, logger)

	branching.BuildTree(pc, builder, branching.Properties{
		MaxSlope:                cfg.BridgeSlope,
		GroundLevel:             cfg.GroundLevel,
		MaxBranchLength:         cfg.MaxBridgeLengthMm,
		PillarWideningFactor:    cfg.PillarWideningFactor,
		MaxWeightOnModelSupport: cfg.MaxWeightOnModelSupport,
	})

	if cancel != nil && cancel() {
		builder.Cancel()
		return Result{}, slaerr.Wrap(slaerr.Cancelled, "support generation cancelled")
	}

	unroutable := make([]int, 0, len(builder.Unroutable()))
	for _, id := range builder.Unroutable() {
		unroutable = append(unroutable, int(id))
	}
	return Result{Mesh: store.Mesh(), Unroutable: unroutable}, nil
}

func toVec3(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X()), float64(v.Y()), float64(v.Z())}
}
