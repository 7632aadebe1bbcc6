package island

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// Sample walks the Voronoi skeleton of poly and emits candidate support
// positions such that every point of the island is within
// ThickInnerMaxDistance of a chosen sample, following spec.md §4.9 steps
// 3-5: short islands get one or two points, long thin regions are walked at
// ThinMaxDistance spacing, and thick regions are covered at
// ThickInnerMaxDistance spacing.
func Sample(poly geom.ExPolygon, p Params) []mgl64.Vec2 {
	nodes := BuildSkeleton(poly, p)
	if len(nodes) == 0 {
		return enforceOutputInvariants(sampleDegenerate(poly, p), poly, p)
	}

	length := skeletonLength(nodes)
	if length <= p.MaxLengthForOneSupportPoint {
		return enforceOutputInvariants([]mgl64.Vec2{centroid(nodes)}, poly, p)
	}
	if length <= p.MaxLengthForTwoSupportPoints {
		a, b := extremePair(nodes)
		return enforceOutputInvariants([]mgl64.Vec2{nodes[a].pos, nodes[b].pos}, poly, p)
	}

	visited := make([]bool, len(nodes))
	var out []mgl64.Vec2
	for start := range nodes {
		if visited[start] {
			continue
		}
		walkBranch(nodes, start, visited, p, &out)
	}
	if len(out) == 0 {
		out = append(out, centroid(nodes))
	}
	return enforceOutputInvariants(AlignBranches(out, poly, p), poly, p)
}

// enforceOutputInvariants applies spec.md §4.9's output contract: no two
// points closer than HeadRadius, and no point closer than
// MinimalDistanceFromOutline to the island boundary.
func enforceOutputInvariants(points []mgl64.Vec2, poly geom.ExPolygon, p Params) []mgl64.Vec2 {
	points = pullInsideClearance(points, poly, p)
	return dedupeByRadius(points, p.HeadRadius)
}

// pullInsideClearance nudges any point closer than MinimalDistanceFromOutline
// to the boundary toward the island's centroid, a few short steps at a time,
// stopping early once clearance is satisfied or the centroid is reached.
func pullInsideClearance(points []mgl64.Vec2, poly geom.ExPolygon, p Params) []mgl64.Vec2 {
	if p.MinimalDistanceFromOutline <= 0 || len(points) == 0 {
		return points
	}
	c := polyCentroid(poly)
	const maxSteps = 8
	out := make([]mgl64.Vec2, len(points))
	for i, pt := range points {
		cur := pt
		for step := 0; step < maxSteps && poly.DistanceToBoundary(cur) < p.MinimalDistanceFromOutline; step++ {
			toCentre := c.Sub(cur)
			if toCentre.Len() < 1e-9 {
				break
			}
			cur = cur.Add(toCentre.Normalize().Mul(p.MinimalDistanceFromOutline * 0.25))
			if !poly.Contains(cur) {
				cur = cur.Sub(toCentre.Normalize().Mul(p.MinimalDistanceFromOutline * 0.25))
				break
			}
		}
		out[i] = cur
	}
	return out
}

// dedupeByRadius drops any point that falls within headRadius of a
// previously kept point (spec.md §4.9 "no two output points are closer than
// head_radius").
func dedupeByRadius(points []mgl64.Vec2, headRadius float64) []mgl64.Vec2 {
	if headRadius <= 0 || len(points) < 2 {
		return points
	}
	out := make([]mgl64.Vec2, 0, len(points))
	for _, pt := range points {
		tooClose := false
		for _, kept := range out {
			if pt.Sub(kept).Len() < headRadius {
				tooClose = true
				break
			}
		}
		if !tooClose {
			out = append(out, pt)
		}
	}
	return out
}

func polyCentroid(poly geom.ExPolygon) mgl64.Vec2 {
	pts := poly.Contour.Points
	if len(pts) == 0 {
		return mgl64.Vec2{}
	}
	var c mgl64.Vec2
	for _, pt := range pts {
		c = c.Add(pt.ToVec2())
	}
	return c.Mul(1 / float64(len(pts)))
}

// sampleDegenerate handles an island too small for a meaningful Voronoi
// diagram (e.g. a near-circular island collapsing to a single skeleton
// point): a single point at the polygon's centroid.
func sampleDegenerate(poly geom.ExPolygon, p Params) []mgl64.Vec2 {
	pts := poly.Contour.Points
	if len(pts) == 0 {
		return nil
	}
	var c mgl64.Vec2
	for _, pt := range pts {
		c = c.Add(pt.ToVec2())
	}
	return []mgl64.Vec2{c.Mul(1 / float64(len(pts)))}
}

func skeletonLength(nodes []skeletonNode) float64 {
	var total float64
	for i, n := range nodes {
		for _, j := range n.neighbors {
			if j > i {
				total += n.pos.Sub(nodes[j].pos).Len()
			}
		}
	}
	return total
}

func centroid(nodes []skeletonNode) mgl64.Vec2 {
	var c mgl64.Vec2
	for _, n := range nodes {
		c = c.Add(n.pos)
	}
	return c.Mul(1 / float64(len(nodes)))
}

func extremePair(nodes []skeletonNode) (int, int) {
	best, bi, bj := -1.0, 0, 0
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			d := nodes[i].pos.Sub(nodes[j].pos).LenSqr()
			if d > best {
				best, bi, bj = d, i, j
			}
		}
	}
	return bi, bj
}

// walkBranch walks a connected skeleton component depth-first, dropping a
// support point every time accumulated path length exceeds the
// width-dependent spacing (thin vs thick regions, spec.md §4.9 step 2).
func walkBranch(nodes []skeletonNode, start int, visited []bool, p Params, out *[]mgl64.Vec2) {
	stack := []int{start}
	acc := 0.0
	lastSample := nodes[start].pos
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		spacing := p.ThickInnerMaxDistance
		if nodes[cur].width < p.ThinMaxWidth {
			spacing = p.ThinMaxDistance
		}
		acc += nodes[cur].pos.Sub(lastSample).Len()
		if acc >= spacing {
			*out = append(*out, nodes[cur].pos)
			acc = 0
		}
		lastSample = nodes[cur].pos

		for _, nb := range nodes[cur].neighbors {
			if !visited[nb] {
				stack = append(stack, nb)
			}
		}
	}
}

