package branching

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
	"github.com/noctua3d/slasupport/groundroute"
	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/pointcloud"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/treebuilder"
)

// widenScale is the radius-growth rate used by get_radius, matching
// original_source's BranchingTreeSLA.cpp (spec.md §4.7 "Radius model").
const widenScale = 0.05

// SLABuilder wires BranchingTree's callback interface onto a
// treebuilder.Builder, grounded on original_source's BranchingTreeSLA.cpp.
// Collision checks reuse mesh.MeshQ.BeamHit exactly as add_bridge/add_merger
// do in the reference implementation.
type SLABuilder struct {
	Mesh   *mesh.MeshQ
	Store  *treebuilder.Builder
	Cfg    slaconfig.SupportConfig
	Logger *slog.Logger

	cancelled bool

	mu           sync.Mutex
	gndCache     map[int32]groundroute.GroundConnection
	unroutable   []int32
}

// NewSLABuilder returns a Builder ready to drive branching.BuildTree.
func NewSLABuilder(q *mesh.MeshQ, store *treebuilder.Builder, cfg slaconfig.SupportConfig, logger *slog.Logger) *SLABuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SLABuilder{Mesh: q, Store: store, Cfg: cfg, Logger: logger, gndCache: make(map[int32]groundroute.GroundConnection)}
}

func (b *SLABuilder) getRadius(n pointcloud.Node) float64 {
	return n.RMin + widenScale*b.Cfg.PillarWideningFactor*n.Weight
}

// AddBridge checks the swept beam between two nodes for model collision and
// commits a DiffBridge on success.
func (b *SLABuilder) AddBridge(from, to pointcloud.Node) bool {
	if b.beamCollides(from, to) {
		return false
	}
	b.commitDiffBridge(from, to)
	return true
}

// AddMerger checks both legs of a Y-merge for collision and commits two
// DiffBridges plus the merge junction on success.
func (b *SLABuilder) AddMerger(from, to, merged pointcloud.Node) bool {
	if b.beamCollides(from, merged) || b.beamCollides(to, merged) {
		return false
	}
	b.commitDiffBridge(from, merged)
	b.commitDiffBridge(to, merged)
	b.Store.AddJunction(treebuilder.Junction{Pos: merged.Pos, R: b.getRadius(merged)})
	return true
}

// AddGroundBridge routes from down to the bed via groundroute, caching the
// resulting GroundConnection by node id (guarded by a dedicated mutex,
// matching original_source's m_gnd_connections_mtx; double-computation on a
// cache race is tolerable, per spec.md §5).
func (b *SLABuilder) AddGroundBridge(from, to pointcloud.Node) bool {
	conn, ok := b.groundConnection(from)
	if !ok {
		return false
	}
	b.materializeGroundConnection(from, conn)
	return true
}

// AddMeshBridge places a reversed pinhead (anchor) from node into the model
// surface represented by to's position. Refuses outright when
// Cfg.GroundFacingOnly is set (spec.md §3 "the tree may anchor only to the
// bed, never to the model"); the caller then falls through to
// ReportUnroutable, which retries a ground route before giving up.
func (b *SLABuilder) AddMeshBridge(from, to pointcloud.Node) bool {
	if b.Cfg.GroundFacingOnly {
		return false
	}
	dir := to.Pos.Sub(from.Pos)
	d := dir.Len()
	if d < 1e-9 {
		return false
	}
	dir = dir.Mul(1 / d)
	beam := beamBetween(from.Pos, to.Pos, b.getRadius(from), b.Cfg.HeadBackRadiusMm)
	if b.Mesh.BeamHit(beam, b.Cfg.SafetyDistanceMm, mesh.BeamSamples).Distance < d {
		return false
	}
	anchor := treebuilder.Anchor{Head: treebuilder.Head{
		Dir: dir, Pos: to.Pos,
		RPin: b.Cfg.HeadFrontRadiusMm, RBack: b.Cfg.HeadBackRadiusMm,
		Width: d, Penetration: b.Cfg.HeadPenetrationMm,
		PillarID: treebuilder.IDUnset, BridgeID: treebuilder.IDUnset,
	}}
	b.Store.AddAnchor(anchor)
	b.commitDiffBridge(from, to)
	return true
}

// ReportUnroutable tries a last-ditch ground route to a synthetic
// ground-projected destination before giving up (original_source's
// report_unroutable does exactly this, then calls discard_subtree_rescure —
// the module standardises on the rescue path per spec.md §9 Open Question).
func (b *SLABuilder) ReportUnroutable(n pointcloud.Node) {
	if conn, ok := b.groundConnection(n); ok {
		b.materializeGroundConnection(n, conn)
		return
	}
	b.Logger.Warn("branching: point could not be routed to ground, discarding subtree", "node", n.ID)
	b.mu.Lock()
	b.unroutable = append(b.unroutable, n.ID)
	b.mu.Unlock()
}

// Unroutable returns the ids reported via ReportUnroutable.
func (b *SLABuilder) Unroutable() []int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int32(nil), b.unroutable...)
}

// IsValid reports whether the build should keep proceeding; false once
// Cancel has been called.
func (b *SLABuilder) IsValid() bool { return !b.cancelled }

// Cancel stops IsValid from reporting true on subsequent calls.
func (b *SLABuilder) Cancel() { b.cancelled = true }

// SuggestAvoidance offers a midway junction that sidesteps the model when a
// bed candidate is farther than max_branch_length (spec.md §4.7 step 3
// BED case): raises the straight-line midpoint by safety_distance in +Z and
// refuses (false) when that point lies closer than safety_distance to the
// mesh.
func (b *SLABuilder) SuggestAvoidance(from, to pointcloud.Node, maxLength float64) (mgl64.Vec3, bool) {
	mid := from.Pos.Add(to.Pos).Mul(0.5)
	mid = mgl64.Vec3{mid.X(), mid.Y(), mid.Z() + b.Cfg.SafetyDistanceMm}
	if b.Mesh.SquaredDistance(mid) < b.Cfg.SafetyDistanceMm*b.Cfg.SafetyDistanceMm {
		return mgl64.Vec3{}, false
	}
	return mid, true
}

func (b *SLABuilder) groundConnection(n pointcloud.Node) (groundroute.GroundConnection, bool) {
	b.mu.Lock()
	if conn, ok := b.gndCache[n.ID]; ok {
		b.mu.Unlock()
		return conn, true
	}
	b.mu.Unlock()

	widening := groundroute.DefaultWidening(b.Cfg.HeadBackRadiusMm, b.Cfg.PillarWideningFactor)
	junction := treebuilder.Junction{Pos: n.Pos, R: b.getRadius(n)}
	conn, ok := groundroute.DeepsearchGroundConnection(b.Mesh, junction, widening, b.Cfg, b.Logger)
	if !ok {
		return groundroute.GroundConnection{}, false
	}

	b.mu.Lock()
	b.gndCache[n.ID] = conn
	b.mu.Unlock()
	return conn, true
}

func (b *SLABuilder) materializeGroundConnection(n pointcloud.Node, conn groundroute.GroundConnection) {
	endR := b.getRadius(n)
	if len(conn.Path) > 0 {
		endR = conn.Path[0].R
	}
	pillar := treebuilder.Pillar{
		Endpoint: mgl64.Vec3{conn.PillarBase.Pos.X(), conn.PillarBase.Pos.Y(), conn.PillarBase.Pos.Z() + conn.PillarBase.Height},
		Height:   n.Pos.Z() - (conn.PillarBase.Pos.Z() + conn.PillarBase.Height),
		RStart:   endR,
		REnd:     conn.PillarBase.RTop,
	}
	id := b.Store.AddPillar(pillar)
	b.Store.AddPedestal(id, conn.PillarBase.Height, conn.PillarBase.RBottom)
}

func (b *SLABuilder) beamCollides(from, to pointcloud.Node) bool {
	beam := beamBetween(from.Pos, to.Pos, b.getRadius(from), b.getRadius(to))
	d := to.Pos.Sub(from.Pos).Len()
	hit := b.Mesh.BeamHit(beam, b.Cfg.SafetyDistanceMm, mesh.BeamSamples)
	return hit.Distance < d
}

func (b *SLABuilder) commitDiffBridge(from, to pointcloud.Node) {
	b.Store.AddDiffBridge(treebuilder.DiffBridge{
		Bridge: treebuilder.Bridge{Start: from.Pos, End: to.Pos, R: b.getRadius(from)},
		EndR:   b.getRadius(to),
	})
}

func beamBetween(a, b mgl64.Vec3, ra, rb float64) geom.Beam {
	return geom.NewBeamBetweenBalls(geom.Ball{Centre: a, Radius: ra}, geom.Ball{Centre: b, Radius: rb})
}
