// Package branching implements the BranchingTree algorithm (spec.md §4.7): a
// greedy, weighted priority-queue merge construction over pointcloud.PointCloud,
// producing Y-shaped junctions through a pluggable Builder callback
// interface. Grounded field-for-field on
// original_source/src/libslic3r/BranchingTree/BranchingTree.cpp's build_tree
// main loop and BranchingTreeSLA.cpp's wiring of that callback interface
// onto treebuilder.Builder.
package branching

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
	"github.com/noctua3d/slasupport/pointcloud"
)

// Builder is the pluggable output sink BranchingTree materialises geometry
// through (spec.md §9 "polymorphic output interface"): a classic callback
// set, avoiding deep inheritance per the design notes.
type Builder interface {
	AddBridge(from, to pointcloud.Node) bool
	AddMerger(from, to, merged pointcloud.Node) bool
	AddGroundBridge(from, to pointcloud.Node) bool
	AddMeshBridge(from, to pointcloud.Node) bool
	ReportUnroutable(n pointcloud.Node)
	IsValid() bool
	SuggestAvoidance(from, to pointcloud.Node, maxLength float64) (mgl64.Vec3, bool)
}

// initK is the starting k-NN fan-out (spec.md §4.7 step 1).
const initK = 5

// KMax caps the unbounded K-doubling on repeated failure at the same node,
// guaranteeing termination on pathological inputs — an Open Question the
// spec resolves explicitly (spec.md §9).
const KMax = 1024

// Properties parameterises one BranchingTree build.
type Properties struct {
	MaxSlope                float64
	GroundLevel             float64
	MaxBranchLength         float64
	PillarWideningFactor    float64
	MaxWeightOnModelSupport float64
}

// BuildTree runs the full greedy merge loop described by spec.md §4.7,
// dequeuing the highest node each round and trying to route it to the bed,
// the model, or a merge with another reachable candidate.
func BuildTree(pc *pointcloud.PointCloud, builder Builder, props Properties) {
	queue := pc.StartQueue()

	k := initK
	prevDistMax := 0.0
	routed := true

	var id int32
	for (!queue.Empty() && builder.IsValid()) || !routed {
		// A node that failed to route is retried with the doubled k before
		// the next one is dequeued.
		if routed {
			popped, ok := queue.Pop()
			if !ok {
				break
			}
			id = popped
			pc.MarkUnreachable(id)
		}
		node := pc.Get(id)

		candidates := pc.ForeachReachable(node.Pos, k, prevDistMax, props.MaxBranchLength, maxZSoFar(pc))
		if len(candidates) == 0 {
			builder.ReportUnroutable(node)
			k = initK
			prevDistMax = 0
			routed = true
			continue
		}

		dmax := 0.0
		for _, c := range candidates {
			if c.EuclDist > dmax {
				dmax = c.EuclDist
			}
		}
		prevDistMax = dmax
		if k < KMax {
			k *= 2
			if k > KMax {
				k = KMax
			}
		}

		routed = tryRoute(pc, builder, queue, node, candidates, props)
		if routed {
			prevDistMax = 0
			k = initK
		}
	}
}

func maxZSoFar(pc *pointcloud.PointCloud) float64 {
	maxZ := pc.GroundLevel()
	for i := 0; i < pc.Count(); i++ {
		z := pc.Get(int32(i)).Pos.Z()
		if z > maxZ {
			maxZ = z
		}
	}
	return maxZ
}

func tryRoute(pc *pointcloud.PointCloud, builder Builder, queue *pointcloud.Queue, node pointcloud.Node, candidates []pointcloud.Candidate, props Properties) bool {
	for _, c := range candidates {
		cand := pc.Get(c.ID)
		switch pc.Kind(c.ID) {
		case pointcloud.PtBed:
			cand.Weight = node.Weight
			pc.Set(cand)
			if c.BranchingDist > props.MaxBranchLength {
				avoid, ok := builder.SuggestAvoidance(node, cand, props.MaxBranchLength)
				if !ok {
					continue
				}
				newID := pc.InsertJunction(pointcloud.Node{Left: node.ID, Right: pointcloud.IDNone, Pos: avoid, RMin: node.RMin, Weight: node.Weight})
				if !builder.AddBridge(node, pc.Get(newID)) {
					continue
				}
				queue.Push(newID, avoid.Z())
				pc.SetQueueIdx(newID, 0)
				return true
			}
			if !builder.AddGroundBridge(node, cand) {
				continue
			}
			cand.Left, cand.Right = node.ID, node.ID
			pc.Set(cand)
			pc.MarkUnreachable(c.ID)
			return true

		case pointcloud.PtMesh:
			if node.Weight > props.MaxWeightOnModelSupport {
				continue
			}
			if !builder.AddMeshBridge(node, cand) {
				continue
			}
			cand.Left, cand.Right = node.ID, node.ID
			pc.Set(cand)
			pc.MarkUnreachable(c.ID)
			return true

		case pointcloud.PtLeaf, pointcloud.PtJunction:
			mergePt, ok := geom.FindMergePt(node.Pos, cand.Pos, props.MaxSlope)
			if !ok {
				if cand.Pos.Z() < node.Pos.Z() && hasFreeSlot(cand) {
					if !builder.AddBridge(node, cand) {
						continue
					}
					assignFreeSlot(pc, &cand, node.ID)
					return true
				}
				continue
			}
			distToNode := mergePt.Sub(node.Pos).Len()
			distToCand := mergePt.Sub(cand.Pos).Len()
			const epsilon = 1e-9
			if distToCand <= epsilon || distToNode <= epsilon {
				if cand.Pos.Z() < node.Pos.Z() && hasFreeSlot(cand) {
					if !builder.AddBridge(node, cand) {
						continue
					}
					assignFreeSlot(pc, &cand, node.ID)
					return true
				}
				continue
			}

			weight := node.Weight
			if cand.Weight > weight {
				weight = cand.Weight
			}
			mergeLen := distToCand
			if distToNode > mergeLen {
				mergeLen = distToNode
			}
			weight += mergeLen

			merged := pointcloud.Node{
				Left:   node.ID,
				Right:  cand.ID,
				Pos:    mergePt,
				RMin:   node.RMin,
				Weight: weight,
			}
			if !builder.AddMerger(node, cand, merged) {
				continue
			}
			newID := pc.InsertJunction(merged)
			queue.Push(newID, mergePt.Z())
			pc.SetQueueIdx(newID, 0)
			if queue.Contains(c.ID) {
				queue.Remove(c.ID)
			}
			pc.MarkUnreachable(c.ID)
			return true
		}
	}
	return false
}

func hasFreeSlot(n pointcloud.Node) bool {
	return n.Left == pointcloud.IDNone || n.Right == pointcloud.IDNone
}

func assignFreeSlot(pc *pointcloud.PointCloud, n *pointcloud.Node, id int32) {
	if n.Left == pointcloud.IDNone {
		n.Left = id
	} else {
		n.Right = id
	}
	pc.Set(*n)
}
