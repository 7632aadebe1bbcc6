package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/noctua3d/slasupport/geom"
)

// BeamSamples is the default ring sample count required for correctness
// with the default widening strategy (spec.md §4.1). BeamSamplesTrivial
// suffices only for trivial (non-widening) strategies.
const (
	BeamSamples        = 16
	BeamSamplesTrivial = 8
)

// BeamHit casts samples-many rays around the frustum described by beam,
// widened by safety, and returns the minimum hit distance over all of them.
// Inside-hits are re-cast from the exit point nudged by an epsilon along the
// ray, matching the re-cast rule used by beam and pinhead casts alike.
func (q *MeshQ) BeamHit(beam geom.Beam, safety float64, samples int) Hit {
	ring := geom.NewPointRing(beam.Dir, samples)
	best := NoHit
	for i := 0; i < samples; i++ {
		srcPt := ring.At(i, beam.Src, beam.R1+safety)
		dstPt := ring.At(i, beam.Src.Add(beam.Dir), beam.R2+safety)
		dir := dstPt.Sub(srcPt)
		d := dir.Len()
		if d < rayEpsilon {
			continue
		}
		dir = dir.Mul(1 / d)
		h := q.castWithRecast(srcPt, dir)
		if h.Distance < best.Distance {
			best = h
		}
	}
	return best
}

// castWithRecast casts src->dir and, if the ray originated inside the mesh,
// re-casts once from the exit point nudged outward by recastEps.
func (q *MeshQ) castWithRecast(src, dir mgl64.Vec3) Hit {
	const recastEps = 1e-4
	h := q.RayHit(src, dir)
	if !h.IsInside {
		return h
	}
	newSrc := src.Add(dir.Mul(h.Distance + recastEps))
	h2 := q.RayHit(newSrc, dir)
	if math.IsInf(h2.Distance, 1) {
		return h2
	}
	return Hit{Distance: h.Distance + recastEps + h2.Distance, Face: h2.Face, IsInside: h2.IsInside}
}

// PinheadRings holds the two sample rings (back sphere, pin) used by
// PinheadHit.
type PinheadRings struct {
	Apex   mgl64.Vec3
	Dir    mgl64.Vec3 // unit, pointing from back sphere toward pin
	RBack  float64
	RPin   float64
	Length float64
}

// PinheadHit samples SAMPLES=16 rays over the back-sphere and pin rings of a
// pinhead pose and returns the minimum hit distance. If any ray fires from
// inside the model with an exit distance exceeding RPin, the head is
// declared trapped: the zero-distance Hit{Distance:0} is returned (spec.md
// §4.1).
func (q *MeshQ) PinheadHit(p PinheadRings, safety float64) Hit {
	backCentre := p.Apex
	pinCentre := p.Apex.Add(p.Dir.Mul(p.Length))
	ring := geom.NewPointRing(p.Dir, BeamSamples)

	best := NoHit
	for i := 0; i < BeamSamples; i++ {
		back := ring.At(i, backCentre, p.RBack+safety)
		pin := ring.At(i, pinCentre, p.RPin+safety)
		dir := pin.Sub(back)
		d := dir.Len()
		if d < rayEpsilon {
			continue
		}
		dir = dir.Mul(1 / d)

		h := q.RayHit(back, dir)
		if h.IsInside && h.Distance > p.RPin {
			return Hit{Distance: 0, Face: h.Face, IsInside: true}
		}
		if h.IsInside {
			h = q.castWithRecast(back, dir)
		}
		if h.Distance < best.Distance {
			best = h
		}
	}
	return best
}
