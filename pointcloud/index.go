// Package pointcloud implements the typed point cloud and spatial index
// used by BranchingTree (spec.md §4.8): a global id space over
// bed/mesh/leaf/junction points, with a mark-unreachable bit and k-NN
// queries bounded by branching distance.
//
// Index is a generalization of feather's own uniform-grid spatial hash
// (feather/spatialgrid.go): feather inserts once per physics step and
// queries once for broad-phase pairs; here the same cell-hash/cell-array
// shape is extended to support dynamic insertion, a per-point searchable
// bit, and growing-radius k-NN queries instead of all-pairs enumeration.
package pointcloud

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type cellKey struct{ x, y, z int }

// Index is a uniform-grid spatial hash over 3D points, generalized from
// feather/spatialgrid.go's SpatialGrid for dynamic point-cloud queries.
type Index struct {
	cellSize float64
	cells    map[cellKey][]int32
	points   []mgl64.Vec3
	active   []bool
}

// NewIndex returns an empty index with the given cell size (should be on
// the order of max_branch_length, spec.md §4.8).
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Index{cellSize: cellSize, cells: make(map[cellKey][]int32)}
}

func (ix *Index) cellOf(p mgl64.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(p.X() / ix.cellSize)),
		y: int(math.Floor(p.Y() / ix.cellSize)),
		z: int(math.Floor(p.Z() / ix.cellSize)),
	}
}

// Insert adds a point under id (the caller's global point-cloud id) and
// marks it active. ids are expected to be inserted in increasing order
// starting at 0, matching a growing arena.
func (ix *Index) Insert(id int32, pos mgl64.Vec3) {
	for int32(len(ix.points)) <= id {
		ix.points = append(ix.points, mgl64.Vec3{})
		ix.active = append(ix.active, false)
	}
	ix.points[id] = pos
	ix.active[id] = true
	key := ix.cellOf(pos)
	ix.cells[key] = append(ix.cells[key], id)
}

// MarkUnreachable flips the searchable bit for id off (spec.md §4.8
// mark_unreachable); the point stays in its cell bucket but is skipped by
// queries.
func (ix *Index) MarkUnreachable(id int32) {
	if int(id) < len(ix.active) {
		ix.active[id] = false
	}
}

// IsActive reports whether id is currently searchable.
func (ix *Index) IsActive(id int32) bool {
	return int(id) < len(ix.active) && ix.active[id]
}

// Pos returns the stored position of id.
func (ix *Index) Pos(id int32) mgl64.Vec3 { return ix.points[id] }

type candidate struct {
	id   int32
	dist float64
}

// KNearest returns up to k active ids passing filter, nearest-first by
// Euclidean distance to pos, searching a growing ring of cells until k
// candidates are found or the search radius exceeds maxRadius.
func (ix *Index) KNearest(pos mgl64.Vec3, k int, maxRadius float64, filter func(id int32, dist float64) bool) []int32 {
	if k <= 0 {
		return nil
	}
	centre := ix.cellOf(pos)
	maxRing := int(math.Ceil(maxRadius/ix.cellSize)) + 1

	var found []candidate
	seen := make(map[int32]bool)
	for ring := 0; ring <= maxRing; ring++ {
		for dx := -ring; dx <= ring; dx++ {
			for dy := -ring; dy <= ring; dy++ {
				for dz := -ring; dz <= ring; dz++ {
					if max3abs(dx, dy, dz) != ring {
						continue
					}
					key := cellKey{centre.x + dx, centre.y + dy, centre.z + dz}
					for _, id := range ix.cells[key] {
						if seen[id] || !ix.IsActive(id) {
							continue
						}
						seen[id] = true
						d := ix.points[id].Sub(pos).Len()
						if filter != nil && !filter(id, d) {
							continue
						}
						found = append(found, candidate{id: id, dist: d})
					}
				}
			}
		}
		if len(found) >= k && float64(ring)*ix.cellSize >= maxRadiusSoFar(found, k) {
			break
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].dist < found[j].dist })
	if len(found) > k {
		found = found[:k]
	}
	out := make([]int32, len(found))
	for i, c := range found {
		out[i] = c.id
	}
	return out
}

func max3abs(a, b, c int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if c < 0 {
		c = -c
	}
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func maxRadiusSoFar(found []candidate, k int) float64 {
	if len(found) < k {
		return math.Inf(1)
	}
	sorted := append([]candidate(nil), found...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].dist < sorted[j].dist })
	return sorted[k-1].dist
}
