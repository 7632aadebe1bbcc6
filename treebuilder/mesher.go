package treebuilder

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
	"github.com/noctua3d/slasupport/mesh"
)

// Portion selects a latitude band of a sphere, as polar angles in radians
// within [0, pi]: Alpha is the starting latitude, Beta the ending one.
type Portion struct {
	Alpha, Beta float64
}

// FullPortion is the entire sphere.
var FullPortion = Portion{Alpha: 0, Beta: math.Pi}

func ringCount(facetAngle float64) int {
	n := int(math.Round(2 * math.Pi / facetAngle))
	if n < 3 {
		n = 3
	}
	return n
}

// sphereMesh tessellates a sphere of radius r restricted to portion, as
// stacked rings of steps vertices each with pole caps, matching
// original_source's SupportTreeMesher.cpp sphere() ring-stacking algorithm
// (spec.md §4.3).
func sphereMesh(r float64, portion Portion, facetAngle float64) mesh.IndexedTriangleSet {
	if r <= 0 {
		return mesh.IndexedTriangleSet{}
	}
	steps := ringCount(facetAngle)
	ringSteps := steps / 2
	if ringSteps < 1 {
		ringSteps = 1
	}

	var verts []mgl32.Vec3
	var idx [][3]uint32

	hasTopCap := portion.Alpha <= 1e-9
	hasBottomCap := portion.Beta >= math.Pi-1e-9

	var topIdx, botIdx uint32
	if hasTopCap {
		verts = append(verts, f32v(0, 0, r))
		topIdx = 0
	}

	ringStart := 0
	ringEnd := ringSteps
	if !hasTopCap {
		ringStart = 0
	}
	_ = ringEnd

	nRings := ringSteps + 1
	ringVertStart := make([]uint32, nRings)
	for ring := 0; ring <= ringSteps; ring++ {
		polar := portion.Alpha + (portion.Beta-portion.Alpha)*float64(ring)/float64(ringSteps)
		z := r * math.Cos(polar)
		ringR := r * math.Sin(polar)
		ringVertStart[ring] = uint32(len(verts))
		for s := 0; s < steps; s++ {
			az := 2 * math.Pi * float64(s) / float64(steps)
			verts = append(verts, f32v(ringR*math.Cos(az), ringR*math.Sin(az), z))
		}
	}

	if hasBottomCap {
		verts = append(verts, f32v(0, 0, -r))
		botIdx = uint32(len(verts) - 1)
	}

	if hasTopCap {
		r0 := ringVertStart[0]
		for s := 0; s < steps; s++ {
			a := r0 + uint32(s)
			b := r0 + uint32((s+1)%steps)
			idx = append(idx, [3]uint32{topIdx, b, a})
		}
	}

	for ring := 0; ring < ringSteps; ring++ {
		r0 := ringVertStart[ring]
		r1 := ringVertStart[ring+1]
		for s := 0; s < steps; s++ {
			s1 := (s + 1) % steps
			a0, a1 := r0+uint32(s), r0+uint32(s1)
			b0, b1 := r1+uint32(s), r1+uint32(s1)
			idx = append(idx, [3]uint32{a0, b0, b1})
			idx = append(idx, [3]uint32{a0, b1, a1})
		}
	}

	if hasBottomCap {
		r0 := ringVertStart[ringSteps]
		for s := 0; s < steps; s++ {
			a := r0 + uint32(s)
			b := r0 + uint32((s+1)%steps)
			idx = append(idx, [3]uint32{botIdx, a, b})
		}
	}

	return mesh.IndexedTriangleSet{Vertices: verts, Indices: idx}
}

func f32v(x, y, z float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

// cylinderMesh is a straight cylinder of radius r and height h, capped top
// and bottom, base centred at the origin with axis +Z.
func cylinderMesh(r, h float64, steps int) mesh.IndexedTriangleSet {
	if r <= 0 || h <= 0 {
		return mesh.IndexedTriangleSet{}
	}
	if steps < 3 {
		steps = 3
	}
	var verts []mgl32.Vec3
	var idx [][3]uint32

	bottomStart := uint32(0)
	for s := 0; s < steps; s++ {
		az := 2 * math.Pi * float64(s) / float64(steps)
		verts = append(verts, f32v(r*math.Cos(az), r*math.Sin(az), 0))
	}
	topStart := uint32(len(verts))
	for s := 0; s < steps; s++ {
		az := 2 * math.Pi * float64(s) / float64(steps)
		verts = append(verts, f32v(r*math.Cos(az), r*math.Sin(az), h))
	}
	bottomCentre := uint32(len(verts))
	verts = append(verts, f32v(0, 0, 0))
	topCentre := uint32(len(verts))
	verts = append(verts, f32v(0, 0, h))

	for s := 0; s < steps; s++ {
		s1 := (s + 1) % steps
		b0, b1 := bottomStart+uint32(s), bottomStart+uint32(s1)
		t0, t1 := topStart+uint32(s), topStart+uint32(s1)
		idx = append(idx, [3]uint32{b0, t0, t1})
		idx = append(idx, [3]uint32{b0, t1, b1})
		idx = append(idx, [3]uint32{bottomCentre, b1, b0})
		idx = append(idx, [3]uint32{topCentre, t0, t1})
	}
	return mesh.IndexedTriangleSet{Vertices: verts, Indices: idx}
}

// halfconeMesh is a truncated cone from rBottom at z=0 to rTop at z=height,
// base centred at basePos, triangle-fanned top and bottom (spec.md §4.3).
func halfconeMesh(height, rBottom, rTop float64, basePos mgl64.Vec3, steps int) mesh.IndexedTriangleSet {
	if height <= 0 || (rBottom <= 0 && rTop <= 0) {
		return mesh.IndexedTriangleSet{}
	}
	if steps < 3 {
		steps = 3
	}
	var verts []mgl32.Vec3
	var idx [][3]uint32

	bottomStart := uint32(0)
	for s := 0; s < steps; s++ {
		az := 2 * math.Pi * float64(s) / float64(steps)
		verts = append(verts, f32v(basePos.X()+rBottom*math.Cos(az), basePos.Y()+rBottom*math.Sin(az), basePos.Z()))
	}
	topStart := uint32(len(verts))
	for s := 0; s < steps; s++ {
		az := 2 * math.Pi * float64(s) / float64(steps)
		verts = append(verts, f32v(basePos.X()+rTop*math.Cos(az), basePos.Y()+rTop*math.Sin(az), basePos.Z()+height))
	}
	bottomCentre := uint32(len(verts))
	verts = append(verts, f32v(basePos.X(), basePos.Y(), basePos.Z()))
	topCentre := uint32(len(verts))
	verts = append(verts, f32v(basePos.X(), basePos.Y(), basePos.Z()+height))

	for s := 0; s < steps; s++ {
		s1 := (s + 1) % steps
		b0, b1 := bottomStart+uint32(s), bottomStart+uint32(s1)
		t0, t1 := topStart+uint32(s), topStart+uint32(s1)
		idx = append(idx, [3]uint32{b0, t0, t1})
		idx = append(idx, [3]uint32{b0, t1, b1})
		if rBottom > 1e-9 {
			idx = append(idx, [3]uint32{bottomCentre, b1, b0})
		}
		if rTop > 1e-9 {
			idx = append(idx, [3]uint32{topCentre, t0, t1})
		}
	}
	return mesh.IndexedTriangleSet{Vertices: verts, Indices: idx}
}

// pinheadMesh builds two partial spheres (back, pin) joined by a frustum
// robe. The junction latitude follows the exact formula from
// original_source's SupportTreeMesher.cpp: phi = pi/2 - acos((rBack-rPin)/h).
func pinheadMesh(rPin, rBack, length float64, steps int) mesh.IndexedTriangleSet {
	if rPin <= 0 || rBack <= 0 || length <= 0 {
		return mesh.IndexedTriangleSet{}
	}
	h := rBack + rPin + length
	ratio := clampF((rBack-rPin)/h, -1, 1)
	phi := math.Pi/2 - math.Acos(ratio)
	facetAngle := 2 * math.Pi / float64(steps)

	var out mesh.IndexedTriangleSet

	back := sphereMesh(rBack, Portion{Alpha: 0, Beta: math.Pi/2 + phi}, facetAngle)
	translate(&back, mgl64.Vec3{0, 0, 0})
	out.Append(back)

	robeHeight := length
	robe := halfconeMesh(robeHeight, rBack*math.Cos(phi), rPin*math.Cos(phi), mgl64.Vec3{0, 0, rBack * math.Sin(phi)}, steps)
	out.Append(robe)

	pinCentreZ := rBack*math.Sin(phi) + robeHeight + rPin*math.Sin(phi)
	pin := sphereMesh(rPin, Portion{Alpha: math.Pi/2 - phi, Beta: math.Pi}, facetAngle)
	translate(&pin, mgl64.Vec3{0, 0, pinCentreZ})
	out.Append(pin)

	return out
}

func translate(m *mesh.IndexedTriangleSet, d mgl64.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = f32v(
			float64(m.Vertices[i].X())+d.X(),
			float64(m.Vertices[i].Y())+d.Y(),
			float64(m.Vertices[i].Z())+d.Z(),
		)
	}
}

// orient rotates then translates m so that its local +Z axis maps to dir,
// and its local origin maps to pos.
func orient(m mesh.IndexedTriangleSet, pos, dir mgl64.Vec3) mesh.IndexedTriangleSet {
	q := geom.QuatFromTwoVectors(mgl64.Vec3{0, 0, 1}, dir)
	for i := range m.Vertices {
		v := mgl64.Vec3{float64(m.Vertices[i].X()), float64(m.Vertices[i].Y()), float64(m.Vertices[i].Z())}
		v = q.Rotate(v)
		v = v.Add(pos)
		m.Vertices[i] = f32v(v.X(), v.Y(), v.Z())
	}
	return m
}
