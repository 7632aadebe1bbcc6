// Package headopt places a pinhead at a support point (spec.md §4.4): given
// a surface point and its local normal, find a non-colliding pinhead pose
// by bounded global+local numerical search. The search is grounded on
// original_source's optimize_pinhead_placement (AlgNLoptMLSL_Subplx,
// seed(0)); gonum.org/v1/gonum/optimize supplies the bounded multivariate
// minimizer, run from several deterministic seed points to approximate the
// multistart behaviour of MLSL.
package headopt

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/optimize"

	"github.com/noctua3d/slasupport/geom"
	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/treebuilder"
)

// Result is an accepted pinhead pose.
type Result struct {
	Head treebuilder.Head
}

// bounds for the (polar, azimuth, width) search, spec.md §4.4 step 5.
type bounds struct{ lo, hi float64 }

// multistartSeeds are deterministic fractional offsets within each bound,
// standing in for MLSL's low-discrepancy starting-point sampler; seed(0)
// in the original makes the whole search reproducible, which this mirrors
// by never drawing from a runtime random source.
var multistartSeeds = []float64{0.1, 0.3, 0.5, 0.7, 0.9}

// Place runs the pinhead placement procedure for one support point.
// normal must be a unit vector. Returns (Result{}, false, nil) when no
// pinhead can be placed there (never an error — spec.md §4.4 "failure is
// not an error").
func Place(q *mesh.MeshQ, pos, normal mgl64.Vec3, cfg slaconfig.SupportConfig, logger *slog.Logger) (Result, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	polar, azimuth := geom.DirToSpheric(normal.Mul(-1))
	if polar < math.Pi-cfg.NormalCutoffAngle {
		return Result{}, false, nil
	}
	polar = math.Min(polar, math.Pi-cfg.BridgeSlope)

	w := cfg.HeadWidthMm + 2*cfg.HeadBackRadiusMm + 2*cfg.HeadFrontRadiusMm - cfg.HeadPenetrationMm

	res, ok := tryPlace(q, pos, polar, azimuth, w, cfg.HeadBackRadiusMm, cfg.HeadFrontRadiusMm, cfg, logger)
	if ok {
		return res, true, nil
	}

	// Step 6: retry once with the fallback radius.
	logger.Debug("headopt: retrying with fallback radius", "pos", pos)
	res, ok = tryPlace(q, pos, polar, azimuth, w, cfg.HeadFallbackRadiusMm, cfg.HeadFrontRadiusMm, cfg, logger)
	if !ok {
		return Result{}, false, nil
	}
	return res, true, nil
}

// RetryFallbackRadius is the named, independently observable fallback stage
// (spec.md §10 supplemented features): it exposes step 6 of Place as its
// own callable so test fixtures can assert on fallback behaviour directly,
// matching original_source's sla_supptgen_tests.cpp assertions.
func RetryFallbackRadius(q *mesh.MeshQ, pos mgl64.Vec3, polar, azimuth, w float64, cfg slaconfig.SupportConfig, logger *slog.Logger) (Result, bool) {
	res, ok := tryPlace(q, pos, polar, azimuth, w, cfg.HeadFallbackRadiusMm, cfg.HeadFrontRadiusMm, cfg, logger)
	return res, ok
}

func tryPlace(q *mesh.MeshQ, pos mgl64.Vec3, polar, azimuth, w, rBack, rPin float64, cfg slaconfig.SupportConfig, logger *slog.Logger) (Result, bool) {
	dir := geom.SphericToDir(polar, azimuth)
	hit := castPinhead(q, pos, dir, rBack, rPin, w, cfg.SafetyDistanceMm)
	if hit.Distance >= w && !hit.IsInside {
		return finalize(pos, dir, rBack, rPin, w, cfg)
	}

	lmin := rPin + rBack
	lmax := cfg.HeadWidthMm * 2

	bPolar := bounds{lo: math.Pi - cfg.BridgeSlope, hi: math.Pi}
	bAz := bounds{lo: -math.Pi, hi: math.Pi}
	bWidth := bounds{lo: lmin, hi: lmax}

	best := math.Inf(-1)
	var bestX [3]float64
	found := false

	for _, seed := range multistartSeeds {
		x0 := []float64{
			bPolar.lo + seed*(bPolar.hi-bPolar.lo),
			bAz.lo + seed*(bAz.hi-bAz.lo),
			bWidth.lo + seed*(bWidth.hi-bWidth.lo),
		}
		score, x, ok := localSearch(q, pos, rBack, rPin, cfg, x0, bPolar, bAz, bWidth)
		if !ok {
			continue
		}
		if score > best {
			best = score
			bestX = [3]float64{x[0], x[1], x[2]}
			found = true
		}
		if best >= w {
			break
		}
	}

	if !found {
		return Result{}, false
	}
	logger.Debug("headopt: optimizer converged", "score", best, "polar", bestX[0], "azimuth", bestX[1])

	dir = geom.SphericToDir(bestX[0], bestX[1])
	width := bestX[2]
	hit = castPinhead(q, pos, dir, rBack, rPin, width, cfg.SafetyDistanceMm)
	if hit.Distance < w || hit.IsInside {
		return Result{}, false
	}
	return finalize(pos, dir, rBack, rPin, width, cfg)
}

func finalize(pos, dir mgl64.Vec3, rBack, rPin, width float64, cfg slaconfig.SupportConfig) (Result, bool) {
	apexZ := pos.Z() + dir.Z()*(width+rBack+rPin)
	if apexZ < cfg.GroundLevel {
		return Result{}, false
	}
	h := treebuilder.Head{
		Dir:         dir,
		Pos:         pos,
		RPin:        rPin,
		RBack:       rBack,
		Width:       width,
		Penetration: cfg.HeadPenetrationMm,
		PillarID:    treebuilder.IDUnset,
		BridgeID:    treebuilder.IDUnset,
	}
	return Result{Head: h}, true
}

func castPinhead(q *mesh.MeshQ, pos, dir mgl64.Vec3, rBack, rPin, width, safety float64) mesh.Hit {
	return q.PinheadHit(mesh.PinheadRings{
		Apex:   pos,
		Dir:    dir,
		RBack:  rBack,
		RPin:   rPin,
		Length: width,
	}, safety)
}

// localSearch runs gonum's Nelder-Mead from x0 with the three bounds
// enforced by a penalty, maximising clearance (gonum only minimizes, so the
// objective's sign is flipped).
func localSearch(q *mesh.MeshQ, pos mgl64.Vec3, rBack, rPin float64, cfg slaconfig.SupportConfig, x0 []float64, bp, ba, bw bounds) (float64, []float64, bool) {
	objective := func(x []float64) float64 {
		polar := clampTo(x[0], bp)
		az := clampTo(x[1], ba)
		width := clampTo(x[2], bw)
		dir := geom.SphericToDir(polar, az)
		hit := castPinhead(q, pos, dir, rBack, rPin, width, cfg.SafetyDistanceMm)
		penalty := penaltyFor(x[0], bp) + penaltyFor(x[1], ba) + penaltyFor(x[2], bw)
		score := hit.Distance
		if hit.IsInside {
			score = 0
		}
		if math.IsInf(score, 1) {
			score = bw.hi * 4
		}
		return -(score - penalty)
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		MajorIterations: cfg.OptimizerMaxIterations,
	}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		return 0, nil, false
	}
	if !isFinite(result.F) {
		return 0, nil, false
	}
	return -result.F, result.X, true
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clampTo(v float64, b bounds) float64 { return math.Max(b.lo, math.Min(b.hi, v)) }

func penaltyFor(v float64, b bounds) float64 {
	if v < b.lo {
		return (b.lo - v) * 1000
	}
	if v > b.hi {
		return (v - b.hi) * 1000
	}
	return 0
}

