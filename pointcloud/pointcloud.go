package pointcloud

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// PtType classifies a point-cloud id by which contiguous range it falls in
// (spec.md §3 "Point-cloud categories").
type PtType int

const (
	PtBed PtType = iota
	PtMesh
	PtLeaf
	PtJunction
	PtNone
)

// IDNone marks the absence of a node reference.
const IDNone int32 = -1

// Unqueued marks a node with no current position in the priority queue.
const Unqueued = -1

// Node is a BranchingTree node in point-cloud form (spec.md §3).
type Node struct {
	ID     int32
	Left   int32
	Right  int32
	Pos    mgl64.Vec3
	RMin   float64
	Weight float64
}

// IsOccupied reports whether both of n's child slots are taken, i.e. n is
// already the result of a completed merge.
func (n Node) IsOccupied() bool { return n.Left != IDNone && n.Right != IDNone }

// PointCloud is the typed point cloud over bed/mesh/leaf/junction candidates
// that BranchingTree builds over (spec.md §4.8). Ids are assigned in the
// fixed order bed, mesh, leaf, then dynamically inserted junctions, forming
// one global contiguous id space.
type PointCloud struct {
	nodes       []Node
	meshBegin   int32
	leafBegin   int32
	junctionBegin int32

	bridgeSlope float64
	groundLevel float64

	index      *Index
	queueIndex []int // parallel to nodes; Unqueued or a live queue slot marker
	reachable  int
}

// NewPointCloud builds the point cloud from the three fixed candidate
// ranges (spec.md §3's BED_END/MESH_END/LEAF_END layout) plus the
// parameters needed for branching-distance queries.
func NewPointCloud(bed, meshPts, leafs []Node, bridgeSlope, groundLevel, cellSize float64) *PointCloud {
	pc := &PointCloud{
		meshBegin:     int32(len(bed)),
		bridgeSlope:   bridgeSlope,
		groundLevel:   groundLevel,
		index:         NewIndex(cellSize),
	}
	pc.leafBegin = pc.meshBegin + int32(len(meshPts))
	pc.junctionBegin = pc.leafBegin + int32(len(leafs))

	pc.nodes = make([]Node, 0, len(bed)+len(meshPts)+len(leafs))
	for _, n := range bed {
		pc.appendNode(n)
	}
	for _, n := range meshPts {
		pc.appendNode(n)
	}
	for _, n := range leafs {
		pc.appendNode(n)
	}
	for i := range pc.nodes {
		pc.index.Insert(int32(i), pc.nodes[i].Pos)
	}
	pc.reachable = len(pc.nodes)
	return pc
}

func (pc *PointCloud) appendNode(n Node) {
	n.ID = int32(len(pc.nodes))
	n.Left, n.Right = IDNone, IDNone
	pc.nodes = append(pc.nodes, n)
	pc.queueIndex = append(pc.queueIndex, Unqueued)
}

// Kind classifies id by which contiguous range it falls in (spec.md §3
// kind(id), a constant-time range test).
func (pc *PointCloud) Kind(id int32) PtType {
	switch {
	case id < 0 || int(id) >= len(pc.nodes):
		return PtNone
	case id < pc.meshBegin:
		return PtBed
	case id < pc.leafBegin:
		return PtMesh
	case id < pc.junctionBegin:
		return PtLeaf
	default:
		return PtJunction
	}
}

// Get returns a copy of the node with the given id.
func (pc *PointCloud) Get(id int32) Node { return pc.nodes[id] }

// Set overwrites the node with the given id (used to record weight/left/
// right updates during the build loop).
func (pc *PointCloud) Set(n Node) { pc.nodes[n.ID] = n }

// Count returns the total number of nodes, including dynamically inserted
// junctions.
func (pc *PointCloud) Count() int { return len(pc.nodes) }

// GroundLevel returns the bed-plane Z coordinate this cloud was built with.
func (pc *PointCloud) GroundLevel() float64 { return pc.groundLevel }

// LeafIDs returns the ids of every support-leaf candidate, in id order —
// the seed set for BranchingTree's priority queue (spec.md §4.7).
func (pc *PointCloud) LeafIDs() []int32 {
	ids := make([]int32, 0, pc.junctionBegin-pc.leafBegin)
	for id := pc.leafBegin; id < pc.junctionBegin; id++ {
		ids = append(ids, id)
	}
	return ids
}

// NextJunctionID returns the id the next InsertJunction call will assign.
func (pc *PointCloud) NextJunctionID() int32 { return int32(len(pc.nodes)) }

// InsertJunction appends a new junction node, inserts it into the spatial
// index, and marks it searchable (spec.md §4.8 insert_junction).
func (pc *PointCloud) InsertJunction(n Node) int32 {
	n.ID = pc.NextJunctionID()
	pc.nodes = append(pc.nodes, n)
	pc.queueIndex = append(pc.queueIndex, Unqueued)
	pc.index.Insert(n.ID, n.Pos)
	pc.reachable++
	return n.ID
}

// MarkUnreachable flips id's searchable bit off and forces its queue index
// to Unqueued (spec.md §4.8 mark_unreachable).
func (pc *PointCloud) MarkUnreachable(id int32) {
	pc.index.MarkUnreachable(id)
	pc.queueIndex[id] = Unqueued
	pc.reachable--
}

// ReachableCount returns how many nodes are currently searchable.
func (pc *PointCloud) ReachableCount() int { return pc.reachable }

// SetQueueIdx records that id now lives at queue slot idx (or Unqueued).
func (pc *PointCloud) SetQueueIdx(id int32, idx int) { pc.queueIndex[id] = idx }

// QueueIdx returns id's last recorded queue slot.
func (pc *PointCloud) QueueIdx(id int32) int { return pc.queueIndex[id] }

// GetDistance returns the branching distance from pos to node id: for a bed
// node, the distance from pos straight down to groundLevel (+Inf if that
// line leaves the support cone); for a mesh node, the straight-line
// distance to its position; otherwise the Euclidean distance from pos to
// the merge point of pos and id.Pos under bridge_slope, or +Inf if no valid
// merge point exists (spec.md §4.8 filters on "whose branching distance is
// finite").
func (pc *PointCloud) GetDistance(pos mgl64.Vec3, id int32) float64 {
	other := pc.nodes[id].Pos
	switch pc.Kind(id) {
	case PtBed:
		target := mgl64.Vec3{pos.X(), pos.Y(), pc.groundLevel}
		if geom.IsOutsideSupportCone(pos, target, pc.bridgeSlope) {
			return math.Inf(1)
		}
		return pos.Sub(target).Len()
	case PtMesh:
		return pos.Sub(other).Len()
	default:
		mp, ok := geom.FindMergePt(pos, other, pc.bridgeSlope)
		if !ok {
			return math.Inf(1)
		}
		return pos.Sub(mp).Len()
	}
}

// ForeachReachable queries the spatial index for the k nearest reachable
// candidates to pos whose Euclidean distance exceeds minDist and whose
// branching distance (GetDistance) is finite, confined to the 3D search box
// described by spec.md §4.8 (half-extent 2*maxBranchLength in XY, extended
// up to maxZ and down to groundLevel-eps).
func (pc *PointCloud) ForeachReachable(pos mgl64.Vec3, k int, minDist, maxBranchLength, maxZ float64) []Candidate {
	ids := pc.index.KNearest(pos, k, 2*maxBranchLength, func(id int32, dist float64) bool {
		if dist <= minDist {
			return false
		}
		p := pc.nodes[id].Pos
		if p.Z() > maxZ+1e-6 || p.Z() < pc.groundLevel-1e-6 {
			return false
		}
		return !math.IsInf(pc.GetDistance(pos, id), 0)
	})
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, Candidate{ID: id, BranchingDist: pc.GetDistance(pos, id), EuclDist: pc.nodes[id].Pos.Sub(pos).Len()})
	}
	return out
}

// Candidate is one result of ForeachReachable.
type Candidate struct {
	ID            int32
	BranchingDist float64
	EuclDist      float64
}

// StartQueue builds the priority queue seeded with every leaf id
// (spec.md §4.7).
func (pc *PointCloud) StartQueue() *Queue {
	q := NewQueue()
	for _, id := range pc.LeafIDs() {
		q.Push(id, pc.nodes[id].Pos.Z())
		pc.queueIndex[id] = 0
	}
	return q
}
