// Package treebuilder holds the typed store of support-tree elements
// (spec.md §3 "Support-tree elements") and the primitives that mesh them
// into triangles. The element layout follows
// original_source/src/libslic3r/SLA/SupportTreeBuilder.hpp field-for-field;
// the thread-safety discipline follows feather's per-object sync.Mutex
// pattern (actor.RigidBody.Mutex, constraint.ContactConstraint's lock-both
// pattern in SolvePosition) applied to one mutex guarding the whole store.
package treebuilder

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// IDUnset marks an element reference that has not been assigned, or a head
// that has been invalidated by a routing failure (spec.md §4.6).
const IDUnset int64 = -1

// Junction is a sphere joining two segments.
type Junction struct {
	ID  int64
	Pos mgl64.Vec3
	R   float64
}

// Head is a pinhead on the model surface: pin -> shaft -> back sphere.
type Head struct {
	ID            int64
	Dir           mgl64.Vec3 // unit, pointing from back sphere toward pin
	Pos           mgl64.Vec3 // apex of the back sphere
	RPin          float64
	RBack         float64
	Width         float64
	Penetration   float64
	PillarID      int64
	BridgeID      int64
}

// Invalidate marks h as routed nowhere: it carries no geometry in the final
// mesh (spec.md §4.6 failure semantics).
func (h *Head) Invalidate() { h.ID = IDUnset }

// IsValid reports whether h still has an assigned id.
func (h *Head) IsValid() bool { return h.ID != IDUnset }

// RealWidth is the shaft length actually embedded, net of penetration.
func (h *Head) RealWidth() float64 { return h.Width - h.Penetration }

// FullWidth is the total length from the back-sphere pole to the pin tip.
func (h *Head) FullWidth() float64 { return 2*h.RBack + h.RealWidth() + 2*h.RPin }

// Junction returns the junction sphere at the point the head's pillar
// attaches.
func (h *Head) Junction() Junction {
	return Junction{Pos: h.JunctionPoint(), R: h.RBack}
}

// JunctionPoint is the point at the base of the back sphere, where a pillar
// or bridge connects.
func (h *Head) JunctionPoint() mgl64.Vec3 {
	return h.Pos.Add(h.Dir.Mul(h.FullWidth()))
}

// Pillar is a strictly vertical truncated cone from (endpoint.xy,
// endpoint.z+height) down to endpoint.
type Pillar struct {
	ID              int64
	Endpoint        mgl64.Vec3
	Height          float64
	RStart          float64
	REnd            float64
	StartsFromHead  bool
	StartJunctionID int64
	Bridges         int
	Links           int
}

// StartPoint is the top of the pillar.
func (p *Pillar) StartPoint() mgl64.Vec3 {
	return mgl64.Vec3{p.Endpoint.X(), p.Endpoint.Y(), p.Endpoint.Z() + p.Height}
}

// EndPoint is the bottom of the pillar.
func (p *Pillar) EndPoint() mgl64.Vec3 { return p.Endpoint }

// Bridge is a straight cylinder between two junctions.
type Bridge struct {
	ID    int64
	Start mgl64.Vec3
	End   mgl64.Vec3
	R     float64
}

// Length is the Euclidean distance between the bridge's endpoints.
func (b *Bridge) Length() float64 { return b.End.Sub(b.Start).Len() }

// Dir is the unit vector from Start to End.
func (b *Bridge) Dir() mgl64.Vec3 {
	l := b.Length()
	if l < 1e-12 {
		return mgl64.Vec3{0, 0, -1}
	}
	return b.End.Sub(b.Start).Mul(1 / l)
}

// DiffBridge is a truncated-cone bridge whose radius varies linearly from
// R at Start to EndR at End.
type DiffBridge struct {
	Bridge
	EndR float64
}

// Pedestal is the bed-adhesion base under a pillar or anchor.
type Pedestal struct {
	ID      int64
	Pos     mgl64.Vec3
	Height  float64
	RBottom float64
	RTop    float64
}

// Anchor is a reverse-oriented Head fastened into the model surface.
type Anchor struct {
	Head
}

// PairHash is the bit-interleaved symmetric hash used by
// defaulttree's interconnectPillars (spec.md §4.6 stage 5) to deduplicate
// order-invariant ID pairs. Implemented as a standalone reusable helper
// since original_source inlines it as a private lambda in
// SupportTreeBuilder.hpp (§10 supplemented features).
func PairHash(a, b int64) uint64 {
	if a > b {
		a, b = b, a
	}
	ua, ub := uint64(a), uint64(b)
	// Spread the low bits of each id across alternating positions so that
	// nearby (a,b) pairs land in different buckets, then fold the high bits
	// in with a multiplicative mix.
	var h uint64
	for i := 0; i < 32; i++ {
		h |= ((ua >> i) & 1) << (2 * i)
		h |= ((ub >> i) & 1) << (2*i + 1)
	}
	h ^= (ua * 0x9E3779B97F4A7C15) ^ (ub * 0xC2B2AE3D27D4EB4F)
	return h
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
