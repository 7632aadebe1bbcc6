package island

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// AlignBranches relaxes a set of support points so that points sitting on
// the same branch line up straighter (the branch-alignment step of spec.md
// §4.9, step 6): each point is pulled toward the centroid of its
// neighbours within MaxAlignDistance, for up to CountIteration rounds,
// stopping early once the largest single-point move drops below
// MinimalMove. A move that would leave the island is rejected.
func AlignBranches(points []mgl64.Vec2, poly geom.ExPolygon, p Params) []mgl64.Vec2 {
	if p.MaxAlignDistance <= 0 || p.CountIteration <= 0 {
		return points
	}

	cur := append([]mgl64.Vec2(nil), points...)
	for iter := 0; iter < p.CountIteration; iter++ {
		next := append([]mgl64.Vec2(nil), cur...)
		maxMove := 0.0

		for i, pt := range cur {
			var sum mgl64.Vec2
			count := 0
			for j, other := range cur {
				if i == j {
					continue
				}
				if pt.Sub(other).Len() <= p.MaxAlignDistance {
					sum = sum.Add(other)
					count++
				}
			}
			if count == 0 {
				continue
			}
			target := sum.Mul(1 / float64(count))
			candidate := pt.Add(target.Sub(pt).Mul(0.5))
			if !poly.Contains(candidate) {
				continue
			}
			move := candidate.Sub(pt).Len()
			if move > maxMove {
				maxMove = move
			}
			next[i] = candidate
		}

		cur = next
		if maxMove < p.MinimalMove {
			break
		}
	}
	return cur
}
