package mesh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// maxTrianglesPerLeaf bounds the recursive median split, matching the
// viamrobotics-rdk bvh.go reference file's maxGeomsPerLeaf constant.
const maxTrianglesPerLeaf = 8

// Hit is the result of a ray/beam query against a MeshQ.
type Hit struct {
	Distance float64
	Face     int
	IsInside bool
}

// NoHit is the sentinel "ray missed everything" result.
var NoHit = Hit{Distance: math.Inf(1), Face: -1}

type bvhNode struct {
	bb    geom.BoundingBox3
	left  *bvhNode
	right *bvhNode
	tris  []int // leaf only
}

// MeshQ wraps an IndexedTriangleSet with a static AABB binary tree for
// ray/point/beam queries (spec.md §4.1).
type MeshQ struct {
	mesh   IndexedTriangleSet
	bounds []geom.BoundingBox3
	root   *bvhNode
}

// NewMeshQ builds the query index over mesh. The mesh is not retained by
// reference mutation: callers must not mutate mesh.Vertices/Indices after
// construction.
func NewMeshQ(tris IndexedTriangleSet) *MeshQ {
	q := &MeshQ{mesh: tris, bounds: make([]geom.BoundingBox3, tris.NumTriangles())}
	ids := make([]int, tris.NumTriangles())
	for i := range ids {
		a, b, c := tris.Triangle(i)
		q.bounds[i] = triangleBounds(a, b, c)
		ids[i] = i
	}
	q.root = q.build(ids)
	return q
}

func (q *MeshQ) build(ids []int) *bvhNode {
	if len(ids) == 0 {
		return nil
	}
	bb := q.bounds[ids[0]]
	for _, id := range ids[1:] {
		bb = bb.Union(q.bounds[id])
	}
	if len(ids) <= maxTrianglesPerLeaf {
		return &bvhNode{bb: bb, tris: ids}
	}

	extent := bb.Max.Sub(bb.Min)
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}
	sort.Slice(ids, func(i, j int) bool {
		ci := q.bounds[ids[i]].Min[axis] + q.bounds[ids[i]].Max[axis]
		cj := q.bounds[ids[j]].Min[axis] + q.bounds[ids[j]].Max[axis]
		return ci < cj
	})
	mid := len(ids) / 2
	return &bvhNode{
		bb:    bb,
		left:  q.build(ids[:mid]),
		right: q.build(ids[mid:]),
	}
}

const rayEpsilon = 1e-9

// rayHitRecord is an intersection of the infinite line (src, dir) with a
// triangle, parameterised by signed distance t along dir.
type rayHitRecord struct {
	t    float64
	face int
}

// intersectLine collects every intersection of the full line through src in
// direction dir (both signs of t) with the mesh's triangles.
func (q *MeshQ) intersectLine(src, dir mgl64.Vec3) []rayHitRecord {
	var hits []rayHitRecord
	if q.root == nil {
		return hits
	}
	q.walkLine(q.root, src, dir, &hits)
	return hits
}

func (q *MeshQ) walkLine(n *bvhNode, src, dir mgl64.Vec3, hits *[]rayHitRecord) {
	if n == nil || !lineHitsBox(n.bb, src, dir) {
		return
	}
	if n.tris != nil {
		for _, tri := range n.tris {
			a, b, c := q.mesh.Triangle(tri)
			if t, ok := rayTriangleT(src, dir, a, b, c); ok {
				*hits = append(*hits, rayHitRecord{t: t, face: tri})
			}
		}
		return
	}
	q.walkLine(n.left, src, dir, hits)
	q.walkLine(n.right, src, dir, hits)
}

func lineHitsBox(bb geom.BoundingBox3, src, dir mgl64.Vec3) bool {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < rayEpsilon {
			if src[axis] < bb.Min[axis] || src[axis] > bb.Max[axis] {
				return false
			}
			continue
		}
		inv := 1 / dir[axis]
		t0 := (bb.Min[axis] - src[axis]) * inv
		t1 := (bb.Max[axis] - src[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}

// rayTriangleT is the Möller–Trumbore intersection test, returning the
// signed parameter t such that src+t*dir lies in the triangle plane and
// inside the triangle.
func rayTriangleT(src, dir, a, b, c mgl64.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	invDet := 1 / det
	tv := src.Sub(a)
	u := tv.Dot(p) * invDet
	if u < -rayEpsilon || u > 1+rayEpsilon {
		return 0, false
	}
	q := tv.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < -rayEpsilon || u+v > 1+rayEpsilon {
		return 0, false
	}
	t := e2.Dot(q) * invDet
	return t, true
}

// RayHit casts a ray from src in unit direction dir and returns the nearest
// forward intersection. If src lies strictly inside the mesh, IsInside is
// true and Distance is the exit distance (spec.md §4.1).
func (q *MeshQ) RayHit(src, dir mgl64.Vec3) Hit {
	hits := q.intersectLine(src, dir)
	if len(hits) == 0 {
		return NoHit
	}
	var behind []float64
	best := NoHit
	for _, h := range hits {
		if h.t < -rayEpsilon {
			behind = append(behind, h.t)
			continue
		}
		if h.t < best.Distance {
			best = Hit{Distance: h.t, Face: h.face}
		}
	}
	// Count distinct crossings only: a line through a shared edge or vertex
	// reports one hit per adjacent triangle at the same t.
	sort.Float64s(behind)
	negCount := 0
	for i, t := range behind {
		if i == 0 || t-behind[i-1] > rayEpsilon {
			negCount++
		}
	}
	inside := negCount%2 == 1
	best.IsInside = inside
	if best.Face == -1 {
		// Every intersection lay behind src: treat as a miss forward, but
		// still report the inside parity so callers can decide to re-cast.
		return Hit{Distance: math.Inf(1), Face: -1, IsInside: inside}
	}
	return best
}

// SquaredDistance returns the squared distance from p to the nearest point
// on the mesh surface.
func (q *MeshQ) SquaredDistance(p mgl64.Vec3) float64 {
	if q.root == nil {
		return math.Inf(1)
	}
	best := math.Inf(1)
	q.walkNearest(q.root, p, &best)
	return best
}

func (q *MeshQ) walkNearest(n *bvhNode, p mgl64.Vec3, best *float64) {
	if n == nil || n.bb.SquaredDistanceToPoint(p) > *best {
		return
	}
	if n.tris != nil {
		for _, tri := range n.tris {
			a, b, c := q.mesh.Triangle(tri)
			d := pointTriangleSquaredDistance(p, a, b, c)
			if d < *best {
				*best = d
			}
		}
		return
	}
	// Visit the nearer child first so its tighter bound prunes the other.
	dl, dr := math.Inf(1), math.Inf(1)
	if n.left != nil {
		dl = n.left.bb.SquaredDistanceToPoint(p)
	}
	if n.right != nil {
		dr = n.right.bb.SquaredDistanceToPoint(p)
	}
	if dl <= dr {
		q.walkNearest(n.left, p, best)
		q.walkNearest(n.right, p, best)
	} else {
		q.walkNearest(n.right, p, best)
		q.walkNearest(n.left, p, best)
	}
}

func pointTriangleSquaredDistance(p, a, b, c mgl64.Vec3) float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return ap.LenSqr()
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return bp.LenSqr()
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return ap.Sub(ab.Mul(v)).LenSqr()
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return cp.LenSqr()
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return ap.Sub(ac.Mul(w)).LenSqr()
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return bp.Sub(c.Sub(b).Mul(w)).LenSqr()
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	closest := a.Add(ab.Mul(v)).Add(ac.Mul(w))
	return p.Sub(closest).LenSqr()
}
