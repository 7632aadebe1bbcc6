// Package mesh implements the mesh query layer (spec.md §4.1): an indexed
// triangle mesh plus a static AABB binary tree supporting ray, point and
// beam queries. The tree shape is grounded on the retrieval pack's
// viamrobotics-rdk spatialmath bvh.go reference file (recursive median-split
// bvhNode{min,max,left,right,geoms}), reimplemented from scratch without its
// debug/profiling globals.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// IndexedTriangleSet is a mesh represented as a vertex array plus triangle
// index triples, matching spec.md §3.
type IndexedTriangleSet struct {
	Vertices []mgl32.Vec3
	Indices  [][3]uint32
}

// NumTriangles returns the number of triangles in the set.
func (s IndexedTriangleSet) NumTriangles() int { return len(s.Indices) }

// Triangle returns the three vertices of triangle i, promoted to float64.
func (s IndexedTriangleSet) Triangle(i int) (a, b, c mgl64.Vec3) {
	idx := s.Indices[i]
	a = to64(s.Vertices[idx[0]])
	b = to64(s.Vertices[idx[1]])
	c = to64(s.Vertices[idx[2]])
	return
}

func to64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func triangleBounds(a, b, c mgl64.Vec3) geom.BoundingBox3 {
	bb := geom.BoundingBox3{Min: a, Max: a}
	for _, p := range [2]mgl64.Vec3{b, c} {
		bb.Min = mgl64.Vec3{math.Min(bb.Min.X(), p.X()), math.Min(bb.Min.Y(), p.Y()), math.Min(bb.Min.Z(), p.Z())}
		bb.Max = mgl64.Vec3{math.Max(bb.Max.X(), p.X()), math.Max(bb.Max.Y(), p.Y()), math.Max(bb.Max.Z(), p.Z())}
	}
	return bb
}

// Append merges another set's geometry in, offsetting its vertex indices.
// Used by treebuilder.Builder.Mesh to concatenate primitive meshes.
func (s *IndexedTriangleSet) Append(other IndexedTriangleSet) {
	base := uint32(len(s.Vertices))
	s.Vertices = append(s.Vertices, other.Vertices...)
	for _, tri := range other.Indices {
		s.Indices = append(s.Indices, [3]uint32{tri[0] + base, tri[1] + base, tri[2] + base})
	}
}
