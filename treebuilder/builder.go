package treebuilder

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/mesh"
)

// Builder is the thread-safe store of support-tree elements (spec.md §4.3).
// Every mutating operation holds mu, following feather's per-object
// mutex discipline (actor.RigidBody.Mutex, constraint's lock-both-bodies
// pattern); read-only accessors may run concurrently once population is
// known complete.
type Builder struct {
	mu sync.Mutex

	heads       []Head
	headIndices map[int]int64 // support point index -> head id
	junctions   []Junction
	pillars     []Pillar
	bridges     []Bridge
	crossBridges []Bridge
	diffBridges []DiffBridge
	pedestals   []Pedestal
	anchors     []Anchor

	facetSteps int
}

// NewBuilder returns an empty store. facetSteps controls the tessellation
// density of meshed primitives (spec.md §4.3 sphere/pinhead/halfcone/cylinder).
func NewBuilder(facetSteps int) *Builder {
	if facetSteps < 3 {
		facetSteps = 3
	}
	return &Builder{
		headIndices: make(map[int]int64),
		facetSteps:  facetSteps,
	}
}

// AddHead stores head under supportIdx (the originating support point's
// index) and returns a pointer into the store's backing array. Callers must
// not retain the pointer across another AddHead (the backing array may
// reallocate); use the returned ID for stable references.
func (b *Builder) AddHead(supportIdx int, head Head) (int64, *Head) {
	b.mu.Lock()
	defer b.mu.Unlock()
	head.ID = int64(len(b.heads))
	if head.PillarID == 0 {
		head.PillarID = IDUnset
	}
	if head.BridgeID == 0 {
		head.BridgeID = IDUnset
	}
	b.heads = append(b.heads, head)
	b.headIndices[supportIdx] = head.ID
	return head.ID, &b.heads[len(b.heads)-1]
}

// Head returns a copy of the head with the given id.
func (b *Builder) Head(id int64) Head {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.heads[id]
}

// SetHead overwrites the head with the given id (used to commit a pillar or
// bridge reference once routing succeeds, or to invalidate it on failure).
func (b *Builder) SetHead(id int64, h Head) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.ID != IDUnset {
		h.ID = id
	}
	b.heads[id] = h
}

// Heads returns a snapshot copy of all heads.
func (b *Builder) Heads() []Head {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Head, len(b.heads))
	copy(out, b.heads)
	return out
}

// AddJunction appends a junction and returns its id.
func (b *Builder) AddJunction(j Junction) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	j.ID = int64(len(b.junctions))
	b.junctions = append(b.junctions, j)
	return j.ID
}

// Junction returns a copy of the junction with the given id.
func (b *Builder) Junction(id int64) Junction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.junctions[id]
}

// AddPillar appends a pillar and returns its id.
func (b *Builder) AddPillar(p Pillar) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = int64(len(b.pillars))
	if p.StartJunctionID == 0 {
		p.StartJunctionID = IDUnset
	}
	b.pillars = append(b.pillars, p)
	return p.ID
}

// AddPillarForHead places a pillar of the given length directly under head,
// whose top point is the head's junction point (spec.md §4.3
// add_pillar_for_head). It returns the new pillar's id and updates the
// head's PillarID.
func (b *Builder) AddPillarForHead(headID int64, length float64) int64 {
	b.mu.Lock()
	h := b.heads[headID]
	b.mu.Unlock()

	top := h.JunctionPoint()
	pillar := Pillar{
		Endpoint:       mgl64.Vec3{top.X(), top.Y(), top.Z() - length},
		Height:         length,
		RStart:         h.RBack,
		REnd:           h.RBack,
		StartsFromHead: true,
	}
	id := b.AddPillar(pillar)

	b.mu.Lock()
	b.heads[headID].PillarID = id
	b.mu.Unlock()
	return id
}

// Pillar returns a copy of the pillar with the given id.
func (b *Builder) Pillar(id int64) Pillar {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pillars[id]
}

// Pillars returns a snapshot copy of all pillars.
func (b *Builder) Pillars() []Pillar {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Pillar, len(b.pillars))
	copy(out, b.pillars)
	return out
}

// IncrementBridges records that one more side-bridge has attached to
// pillar id, returning the new count.
func (b *Builder) IncrementBridges(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pillars[id].Bridges++
	return b.pillars[id].Bridges
}

// IncrementLinks records that one more cross-link has attached to pillar id.
func (b *Builder) IncrementLinks(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pillars[id].Links++
	return b.pillars[id].Links
}

// BridgeCount returns how many side-bridges pillar id currently carries.
func (b *Builder) BridgeCount(id int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pillars[id].Bridges
}

// AddBridge appends a straight bridge and returns its id.
func (b *Builder) AddBridge(br Bridge) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	br.ID = int64(len(b.bridges))
	b.bridges = append(b.bridges, br)
	return br.ID
}

// AddCrossBridge appends a cross-bracing bridge between two pillars
// (spec.md §4.6 stage 5) and returns its id.
func (b *Builder) AddCrossBridge(br Bridge) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	br.ID = int64(len(b.crossBridges))
	b.crossBridges = append(b.crossBridges, br)
	return br.ID
}

// AddDiffBridge appends a truncated-cone bridge and returns its id.
func (b *Builder) AddDiffBridge(db DiffBridge) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	db.ID = int64(len(b.diffBridges))
	b.diffBridges = append(b.diffBridges, db)
	return db.ID
}

// AddPedestal appends a pedestal under pillarID and returns its id.
func (b *Builder) AddPedestal(pillarID int64, height, radius float64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos := b.pillars[pillarID].EndPoint()
	ped := Pedestal{
		ID:      int64(len(b.pedestals)),
		Pos:     pos,
		Height:  height,
		RBottom: radius,
		RTop:    b.pillars[pillarID].REnd,
	}
	b.pedestals = append(b.pedestals, ped)
	return ped.ID
}

// AddAnchor appends an anchor and returns its id.
func (b *Builder) AddAnchor(a Anchor) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	a.ID = int64(len(b.anchors))
	b.anchors = append(b.anchors, a)
	return a.ID
}

// Anchors returns a snapshot copy of all anchors.
func (b *Builder) Anchors() []Anchor {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Anchor, len(b.anchors))
	copy(out, b.anchors)
	return out
}

// Mesh merges every cached primitive into one IndexedTriangleSet, skipping
// invalidated heads (ID == IDUnset); a valid head whose PillarID/BridgeID
// remain IDUnset still meshes its pinhead alone. Valid only once population is complete; concurrent Add* calls
// during Mesh are not supported (merging is serialised, per spec.md §4.3).
func (b *Builder) Mesh() mesh.IndexedTriangleSet {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out mesh.IndexedTriangleSet
	facetAngle := 2 * 3.141592653589793 / float64(b.facetSteps)

	for _, h := range b.heads {
		if !h.IsValid() {
			continue
		}
		ph := pinheadMesh(h.RPin, h.RBack, h.RealWidth(), b.facetSteps)
		out.Append(orient(ph, h.Pos, h.Dir))
	}
	for _, a := range b.anchors {
		ph := pinheadMesh(a.RPin, a.RBack, a.RealWidth(), b.facetSteps)
		out.Append(orient(ph, a.Pos, a.Dir))
	}
	for _, p := range b.pillars {
		cm := halfconeMesh(p.Height, p.REnd, p.RStart, mgl64.Vec3{0, 0, 0}, b.facetSteps)
		out.Append(orient(cm, p.Endpoint, mgl64.Vec3{0, 0, 1}))
	}
	for _, j := range b.junctions {
		sm := sphereMesh(j.R, FullPortion, facetAngle)
		out.Append(orient(sm, j.Pos, mgl64.Vec3{0, 0, 1}))
	}
	for _, br := range b.bridges {
		out.Append(orient(cylinderMesh(br.R, br.Length(), b.facetSteps), br.Start, br.Dir()))
	}
	for _, br := range b.crossBridges {
		out.Append(orient(cylinderMesh(br.R, br.Length(), b.facetSteps), br.Start, br.Dir()))
	}
	for _, db := range b.diffBridges {
		out.Append(orient(halfconeMesh(db.Length(), db.R, db.EndR, mgl64.Vec3{0, 0, 0}, b.facetSteps), db.Start, db.Dir()))
	}
	for _, p := range b.pedestals {
		out.Append(orient(halfconeMesh(p.Height, p.RBottom, p.RTop, mgl64.Vec3{0, 0, 0}, b.facetSteps), p.Pos, mgl64.Vec3{0, 0, 1}))
	}

	return out
}
