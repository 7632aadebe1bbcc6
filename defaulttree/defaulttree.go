// Package defaulttree implements the deterministic DefaultTree pipeline
// (spec.md §4.6): add_pinheads -> classify -> routing_to_ground ->
// routing_to_model -> interconnect_pillars. Each stage may be cancelled
// externally via a boolean predicate, and fans per-point work out across
// workers using internal/fanout, generalizing feather's pipeline.task
// helper (feather/pipeline.go).
package defaulttree

import (
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
	"github.com/noctua3d/slasupport/groundroute"
	"github.com/noctua3d/slasupport/headopt"
	"github.com/noctua3d/slasupport/internal/fanout"
	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/supportpoint"
	"github.com/noctua3d/slasupport/treebuilder"
)

// CancelFunc is polled between support points and between clusters
// (spec.md §5 "suspension points").
type CancelFunc func() bool

// ProgressFunc is called at stage boundaries (spec.md §6).
type ProgressFunc func(phase uint8, numerator, denominator uint32)

// Result is the outcome of a DefaultTree build.
type Result struct {
	Unroutable []int
}

// Tree runs the five-stage DefaultTree pipeline over a mesh query and a set
// of support points, committing accepted elements into store.
type Tree struct {
	Mesh     *mesh.MeshQ
	Store    *treebuilder.Builder
	Cfg      slaconfig.SupportConfig
	Logger   *slog.Logger
	Progress ProgressFunc
	Cancel   CancelFunc

	headIDs    []int64 // indexed by support point index, IDUnset if rejected
	unroutable []int
	mu         sync.Mutex
}

// Build runs all five stages in sequence.
func (t *Tree) Build(points []supportpoint.SupportPoint) Result {
	if t.Logger == nil {
		t.Logger = slog.Default()
	}
	t.headIDs = make([]int64, len(points))
	for i := range t.headIDs {
		t.headIDs[i] = treebuilder.IDUnset
	}

	t.report(0, 0, 5)
	t.addPinheads(points)
	if t.cancelled() {
		return t.result()
	}

	t.report(1, 1, 5)
	groundFacing, modelFacing := t.classify()
	if t.cancelled() {
		return t.result()
	}

	t.report(2, 2, 5)
	clusters := t.clusterByXY(groundFacing)
	t.routingToGround(clusters)
	if t.cancelled() {
		return t.result()
	}

	t.report(3, 3, 5)
	if t.Cfg.GroundFacingOnly {
		// spec.md §3 "the tree may anchor only to the bed, never to the
		// model": model-facing heads get the same ground-routing treatment
		// as ground-facing ones instead of an Anchor into the surface.
		t.routingToGround(t.clusterByXY(modelFacing))
	} else {
		t.routingToModel(modelFacing)
	}
	if t.cancelled() {
		return t.result()
	}

	t.report(4, 4, 5)
	t.interconnectPillars()
	t.report(5, 5, 5)

	return t.result()
}

func (t *Tree) result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Result{Unroutable: append([]int(nil), t.unroutable...)}
}

func (t *Tree) report(phase uint8, num, denom uint32) {
	if t.Progress != nil {
		t.Progress(phase, num, denom)
	}
}

func (t *Tree) cancelled() bool { return t.Cancel != nil && t.Cancel() }

func (t *Tree) markUnroutable(i int) {
	t.mu.Lock()
	t.unroutable = append(t.unroutable, i)
	t.mu.Unlock()
}

// addPinheads is DefaultTree stage 1 (spec.md §4.6 step 1): optimise and
// commit one pinhead per support point, fanned out across Cfg.Workers.
func (t *Tree) addPinheads(points []supportpoint.SupportPoint) {
	type indexed struct {
		idx int
		pt  supportpoint.SupportPoint
	}
	items := make([]indexed, len(points))
	for i, p := range points {
		items[i] = indexed{idx: i, pt: p}
	}

	fanout.Each(t.Cfg.Workers, items, func(it indexed) {
		if t.cancelled() {
			return
		}
		pos := to64(it.pt.Pos)
		normal := t.surfaceNormal(pos)
		res, ok, err := headopt.Place(t.Mesh, pos, normal, t.Cfg, t.Logger)
		if err != nil || !ok {
			t.markUnroutable(it.idx)
			return
		}
		id, _ := t.Store.AddHead(it.idx, res.Head)
		t.mu.Lock()
		t.headIDs[it.idx] = id
		t.mu.Unlock()
	})
}

// surfaceNormal estimates the local outward normal at pos by probing the
// mesh's nearest surface point along a small set of axis probes; a modest
// stand-in for a cached per-vertex normal field, sufficient for pinhead
// orientation.
func (t *Tree) surfaceNormal(pos mgl64.Vec3) mgl64.Vec3 {
	const probe = 1e-3
	best := mgl64.Vec3{0, 0, 1}
	bestD := math.Inf(1)
	dirs := []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for _, d := range dirs {
		hit := t.Mesh.RayHit(pos.Add(d.Mul(probe)), d.Mul(-1))
		if hit.Distance < bestD {
			bestD = hit.Distance
			best = d
		}
	}
	return best
}

// classify is DefaultTree stage 2 (spec.md §4.6 step 2): cast a vertical ray
// downward from each committed head; ground-facing heads exit cleanly to
// the bed, model-facing heads hit the model first.
func (t *Tree) classify() (groundFacing, modelFacing []int64) {
	for _, id := range t.headIDs {
		if id == treebuilder.IDUnset {
			continue
		}
		if t.cancelled() {
			return
		}
		h := t.Store.Head(id)
		hit := t.Mesh.RayHit(h.JunctionPoint(), geom.Down)
		if math.IsInf(hit.Distance, 1) || hit.IsInside {
			groundFacing = append(groundFacing, id)
		} else {
			modelFacing = append(modelFacing, id)
		}
	}
	return
}

// clusterByXY groups ground-facing heads within GroundClusterRadiusMm in XY
// (spec.md §4.6 step 2 "Group ground-facing heads into clusters").
func (t *Tree) clusterByXY(headIDs []int64) [][]int64 {
	r := t.Cfg.GroundClusterRadiusMm
	var clusters [][]int64
	assigned := make(map[int64]bool)
	for _, id := range headIDs {
		if assigned[id] {
			continue
		}
		pos := t.Store.Head(id).JunctionPoint()
		cluster := []int64{id}
		assigned[id] = true
		for _, other := range headIDs {
			if assigned[other] {
				continue
			}
			op := t.Store.Head(other).JunctionPoint()
			if (mgl64.Vec3{pos.X(), pos.Y(), 0}).Sub(mgl64.Vec3{op.X(), op.Y(), 0}).Len() <= r {
				cluster = append(cluster, other)
				assigned[other] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// routingToGround is DefaultTree stage 3 (spec.md §4.6 step 3): elect a
// central head per cluster, route it to the bed, and bridge peripheral
// heads sideways up to MaxBridgesOnPillar.
func (t *Tree) routingToGround(clusters [][]int64) {
	widening := groundroute.DefaultWidening(t.Cfg.HeadBackRadiusMm, t.Cfg.PillarWideningFactor)

	for _, cluster := range clusters {
		if t.cancelled() {
			return
		}
		centralID := cluster[0]
		central := t.Store.Head(centralID)
		junction := central.Junction()
		conn, ok := groundroute.DeepsearchGroundConnection(t.Mesh, junction, widening, t.Cfg, t.Logger)
		if !ok {
			for _, id := range cluster {
				t.invalidateHead(id)
			}
			continue
		}
		t.materializeGroundRoute(centralID, conn)

		pillarID := t.Store.Head(centralID).PillarID
		for _, id := range cluster[1:] {
			if t.Store.BridgeCount(pillarID) >= t.Cfg.MaxBridgesOnPillar {
				conn2, ok2 := groundroute.DeepsearchGroundConnection(t.Mesh, t.Store.Head(id).Junction(), widening, t.Cfg, t.Logger)
				if !ok2 {
					t.invalidateHead(id)
					continue
				}
				t.materializeGroundRoute(id, conn2)
				continue
			}
			t.connectToNearPillar(id, pillarID)
		}
	}
}

func (t *Tree) connectToNearPillar(headID, pillarID int64) {
	h := t.Store.Head(headID)
	p := t.Store.Pillar(pillarID)
	target := p.StartPoint()
	beam := geom.NewBeamBetweenBalls(
		geom.Ball{Centre: h.JunctionPoint(), Radius: h.RBack},
		geom.Ball{Centre: target, Radius: p.RStart},
	)
	d := target.Sub(h.JunctionPoint()).Len()
	if t.Mesh.BeamHit(beam, t.Cfg.SafetyDistanceMm, mesh.BeamSamples).Distance < d {
		t.invalidateHead(headID)
		return
	}
	t.Store.AddBridge(treebuilder.Bridge{Start: h.JunctionPoint(), End: target, R: h.RBack})
	t.Store.IncrementBridges(pillarID)
	h2 := t.Store.Head(headID)
	h2.BridgeID = pillarID
	t.Store.SetHead(headID, h2)
}

func (t *Tree) materializeGroundRoute(headID int64, conn groundroute.GroundConnection) {
	h := t.Store.Head(headID)
	top := h.JunctionPoint()
	endR := h.RBack
	if len(conn.Path) > 0 {
		endR = conn.Path[0].R
	}
	pillar := treebuilder.Pillar{
		Endpoint:       mgl64.Vec3{conn.PillarBase.Pos.X(), conn.PillarBase.Pos.Y(), conn.PillarBase.Pos.Z() + conn.PillarBase.Height},
		Height:         top.Z() - (conn.PillarBase.Pos.Z() + conn.PillarBase.Height),
		RStart:         h.RBack,
		REnd:           endR,
		StartsFromHead: true,
	}
	pillarID := t.Store.AddPillar(pillar)
	t.Store.AddPedestal(pillarID, conn.PillarBase.Height, conn.PillarBase.RBottom)
	h.PillarID = pillarID
	t.Store.SetHead(headID, h)
}

func (t *Tree) invalidateHead(id int64) {
	h := t.Store.Head(id)
	h.Invalidate()
	t.Store.SetHead(id, h)
}

// routingToModel is DefaultTree stage 4 (spec.md §4.6 step 4): connect every
// model-facing head to the model surface via a flipped pinhead (Anchor).
func (t *Tree) routingToModel(headIDs []int64) {
	for _, id := range headIDs {
		if t.cancelled() {
			return
		}
		h := t.Store.Head(id)
		surfaceHit := t.Mesh.RayHit(h.JunctionPoint(), h.Dir)
		if math.IsInf(surfaceHit.Distance, 1) {
			t.invalidateHead(id)
			continue
		}
		target := h.JunctionPoint().Add(h.Dir.Mul(surfaceHit.Distance))
		normal := h.Dir.Mul(-1)
		res, ok, err := headopt.Place(t.Mesh, target, normal, t.Cfg, t.Logger)
		if err != nil || !ok {
			t.invalidateHead(id)
			continue
		}
		anchor := treebuilder.Anchor{Head: res.Head}
		beam := geom.NewBeamBetweenBalls(
			geom.Ball{Centre: h.JunctionPoint(), Radius: h.RBack},
			geom.Ball{Centre: anchor.JunctionPoint(), Radius: anchor.RBack},
		)
		d := anchor.JunctionPoint().Sub(h.JunctionPoint()).Len()
		if t.Mesh.BeamHit(beam, t.Cfg.SafetyDistanceMm, mesh.BeamSamples).Distance < d {
			t.invalidateHead(id)
			continue
		}
		t.Store.AddAnchor(anchor)
		t.Store.AddBridge(treebuilder.Bridge{Start: h.JunctionPoint(), End: anchor.JunctionPoint(), R: h.RBack})
	}
}

// interconnectPillars is DefaultTree stage 5 (spec.md §4.6 step 5): for
// every pair of pillars, deduplicated by PairHash, add one horizontal
// cross-bridge at half the shorter pillar's height above a's endpoint. No
// zig-zag of several bridges at different heights is built.
func (t *Tree) interconnectPillars() {
	pillars := t.Store.Pillars()
	seen := make(map[uint64]bool)
	for i := range pillars {
		for j := i + 1; j < len(pillars); j++ {
			a, b := pillars[i], pillars[j]
			h := treebuilder.PairHash(a.ID, b.ID)
			if seen[h] {
				continue
			}
			seen[h] = true
			t.tryCrossBridge(a, b)
		}
	}
}

func (t *Tree) tryCrossBridge(a, b treebuilder.Pillar) {
	xyDist := mgl64.Vec3{a.Endpoint.X(), a.Endpoint.Y(), 0}.Sub(mgl64.Vec3{b.Endpoint.X(), b.Endpoint.Y(), 0}).Len()
	if xyDist > t.Cfg.MaxBridgeLengthMm {
		return
	}
	minHeight := math.Min(a.Height, b.Height)
	z := a.Endpoint.Z() + minHeight*0.5
	pa := mgl64.Vec3{a.Endpoint.X(), a.Endpoint.Y(), z}
	pb := mgl64.Vec3{b.Endpoint.X(), b.Endpoint.Y(), z}
	beam := geom.NewBeamBetweenBalls(geom.Ball{Centre: pa, Radius: a.REnd}, geom.Ball{Centre: pb, Radius: b.REnd})
	if t.Mesh.BeamHit(beam, t.Cfg.SafetyDistanceMm, mesh.BeamSamples).Distance < xyDist {
		return
	}
	t.Store.AddCrossBridge(treebuilder.Bridge{Start: pa, End: pb, R: math.Min(a.REnd, b.REnd)})
	t.Store.IncrementLinks(a.ID)
	t.Store.IncrementLinks(b.ID)
}

func to64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X()), float64(v.Y()), float64(v.Z())}
}
