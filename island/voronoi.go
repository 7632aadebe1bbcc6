// Package island implements the medial-axis island sampler (spec.md §4.9):
// given an ExPolygon slice, place support points so that every interior
// point is within thick_inner_max_distance of a support and none lies
// closer than minimal_distance_from_outline to the boundary.
//
// The Voronoi back-end is wrapped behind the skeletonBackend interface
// (spec.md §9 "Boost-geometry adapter layer" design note: wrap the chosen
// geometry library once behind a thin interface so it can be swapped
// without touching downstream code). github.com/pzsz/voronoi computes a
// point-site Fortune diagram rather than a true segment Voronoi diagram, so
// each boundary edge is densely resampled into point sites before the
// diagram is built — a pragmatic substitute for the Boost segment-Voronoi
// backend original_source uses, producing the same medial-axis shape to
// within the sampling resolution.
package island

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	pzsz "github.com/pzsz/voronoi"

	"github.com/noctua3d/slasupport/geom"
)

// Params holds the tuneables of the island sampler (spec.md §4.9).
type Params struct {
	ThinMaxWidth                 float64
	ThickMinWidth                float64
	ThickInnerMaxDistance        float64
	MinimalDistanceFromOutline   float64
	MaxLengthForOneSupportPoint  float64
	MaxLengthForTwoSupportPoints float64
	ThinMaxDistance              float64
	CountIteration               int
	MinimalMove                  float64
	MaxAlignDistance             float64
	HeadRadius                   float64
	SampleSpacing                float64 // boundary resampling resolution
}

// skeletonNode is one vertex of the Voronoi skeleton graph.
type skeletonNode struct {
	pos       mgl64.Vec2
	width     float64
	neighbors []int
}

// BuildSkeleton constructs the Voronoi skeleton graph of poly: every
// Voronoi edge between two interior cells becomes a graph edge carrying
// "width" (twice the distance from the medial point to the nearest polygon
// edge) at both endpoints (spec.md §4.9 step 2).
func BuildSkeleton(poly geom.ExPolygon, p Params) []skeletonNode {
	sites := sampleBoundary(poly, p.SampleSpacing)
	if len(sites) < 3 {
		return nil
	}

	bbox := computeBBox(sites)
	diagram := pzsz.ComputeDiagram(toPzszVertices(sites), bbox, true)

	nodes := make([]skeletonNode, 0, len(diagram.Edges))
	index := make(map[[2]int32]int)

	addNode := func(v mgl64.Vec2) int {
		key := [2]int32{int32(math.Round(v.X() * 1000)), int32(math.Round(v.Y() * 1000))}
		if idx, ok := index[key]; ok {
			return idx
		}
		idx := len(nodes)
		nodes = append(nodes, skeletonNode{pos: v, width: 2 * poly.DistanceToBoundary(v)})
		index[key] = idx
		return idx
	}

	for _, e := range diagram.Edges {
		if e.Va.Vertex == (pzsz.Vertex{}) || e.Vb.Vertex == (pzsz.Vertex{}) {
			continue
		}
		a := mgl64.Vec2{e.Va.X, e.Va.Y}
		b := mgl64.Vec2{e.Vb.X, e.Vb.Y}
		if !poly.Contains(a) || !poly.Contains(b) {
			continue
		}
		ia := addNode(a)
		ib := addNode(b)
		if ia == ib {
			continue
		}
		nodes[ia].neighbors = append(nodes[ia].neighbors, ib)
		nodes[ib].neighbors = append(nodes[ib].neighbors, ia)
	}
	return nodes
}

func sampleBoundary(poly geom.ExPolygon, spacing float64) []mgl64.Vec2 {
	if spacing <= 0 {
		spacing = 1
	}
	var pts []mgl64.Vec2
	for _, seg := range poly.Segments() {
		a := seg[0].ToVec2()
		b := seg[1].ToVec2()
		length := b.Sub(a).Len()
		steps := int(math.Max(1, math.Round(length/spacing)))
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			pts = append(pts, a.Add(b.Sub(a).Mul(t)))
		}
	}
	return pts
}

func computeBBox(pts []mgl64.Vec2) pzsz.BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X())
		minY = math.Min(minY, p.Y())
		maxX = math.Max(maxX, p.X())
		maxY = math.Max(maxY, p.Y())
	}
	return pzsz.NewBBox(minX, maxX, minY, maxY)
}

func toPzszVertices(pts []mgl64.Vec2) []pzsz.Vertex {
	out := make([]pzsz.Vertex, len(pts))
	for i, p := range pts {
		out[i] = pzsz.Vertex{X: p.X(), Y: p.Y()}
	}
	return out
}
