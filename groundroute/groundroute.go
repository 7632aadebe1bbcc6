// Package groundroute implements the 3-DoF numerical search for a pillar
// route from a junction to the bed (spec.md §4.5), grounded on
// original_source's SupportTreeUtils.hpp check_ground_route /
// deepsearch_ground_connection / build_ground_connection family.
package groundroute

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

// WideningFn describes how a branch's radius grows along its length; two
// built-ins are provided below (spec.md §4.5 "Widening function").
type WideningFn func(src geom.Ball, dir mgl64.Vec3, length float64) float64

// FixedEndRadius returns a WideningFn that linearly interpolates from
// src.Radius to endR over length.
func FixedEndRadius(endR float64) WideningFn {
	return func(src geom.Ball, _ mgl64.Vec3, length float64) float64 {
		return endR
	}
}

// DefaultWidening implements original_source's DefaultWideningModel: radius
// grows with accumulated length at a rate derived from
// pillar_widening_factor, scaled by the constant 0.02 the original uses
// (WIDENING_SCALE).
func DefaultWidening(headBackRadius, pillarWideningFactor float64) WideningFn {
	const wideningScale = 0.02
	return func(src geom.Ball, _ mgl64.Vec3, length float64) float64 {
		base := math.Max(src.Radius, headBackRadius)
		return base + wideningScale*pillarWideningFactor*length
	}
}

// GroundConnection is a validated path from a junction down to a pedestal on
// the bed.
type GroundConnection struct {
	Path        []treebuilder.Junction
	PillarBase  treebuilder.Pedestal
	HasPillarBase bool
}

// Valid reports whether the connection's pillar base was populated; the
// builder refuses to materialise invalid connections (spec.md §4.5 step 5).
func (g GroundConnection) Valid() bool { return g.HasPillarBase }

// routeHit is the result of a single candidate route evaluation: the Z
// height of whichever of model-hit or ground-hit is higher, plus whether a
// model collision occurred above the bed (meaning the route is unusable).
type routeHit struct {
	z         float64
	collision bool
}

// CheckGroundRoute intersects the beam with the model from src along dir
// for at most bridgeLen; if it clears, a vertical pillar is dropped from the
// bridge end. Returns whichever of model-hit / ground-hit has the higher Z
// (spec.md §4.5 step 2).
func CheckGroundRoute(q *mesh.MeshQ, src mgl64.Vec3, dir mgl64.Vec3, r float64, bridgeLen float64, widening WideningFn, cfg slaconfig.SupportConfig) routeHit {
	if dir.Z() < -1e-9 {
		if t := (cfg.GroundLevel - src.Z()) / dir.Z(); t < bridgeLen {
			bridgeLen = math.Max(t, 0)
		}
	}

	srcBall := geom.Ball{Centre: src, Radius: r}
	end := src.Add(dir.Mul(bridgeLen))
	endR := widening(srcBall, dir, bridgeLen)
	beam := geom.NewBeamBetweenBalls(srcBall, geom.Ball{Centre: end, Radius: endR})

	brHit := q.BeamHit(beam, cfg.SafetyDistanceMm, mesh.BeamSamples)
	if brHit.Distance < bridgeLen {
		hitZ := src.Add(dir.Mul(brHit.Distance)).Z()
		return routeHit{z: hitZ, collision: hitZ > cfg.GroundLevel+1e-6}
	}

	downLen := end.Z() - cfg.GroundLevel
	if downLen <= 0 {
		return routeHit{z: end.Z(), collision: false}
	}
	pillarBeam := geom.Beam{Src: end, Dir: mgl64.Vec3{0, 0, -1}, R1: endR, R2: endR}
	pHit := q.BeamHit(pillarBeam, cfg.SafetyDistanceMm, mesh.BeamSamples)
	if pHit.Distance < downLen {
		hitZ := end.Z() - pHit.Distance
		return routeHit{z: hitZ, collision: hitZ > cfg.GroundLevel+1e-6}
	}
	return routeHit{z: cfg.GroundLevel, collision: false}
}

// PillarBaseSafetyTest is the zero-elevation pedestal/model clearance check
// (spec.md §4.5 step 3), pulled out as an independently testable predicate
// per spec.md §10 supplemented features: original_source computes this
// inline inside deepsearch_ground_connection.
func PillarBaseSafetyTest(q *mesh.MeshQ, groundPoint mgl64.Vec3, baseRadius, safetyDistance float64) bool {
	d2 := q.SquaredDistance(groundPoint)
	min := safetyDistance + baseRadius
	return d2 >= min*min
}

const (
	maxIterationsGlobal = 5000
	maxIterationsLocal  = 100
	relScoreDiff        = 0.05
)

// DeepsearchGroundConnection runs one bounded Nelder-Mead search over
// (polar, azimuth, bridgeLen) from a single fixed start (straight down);
// no multistart global search is made. It then runs the brute-force
// bridge-length tightening pass (spec.md §4.5 step 4) and assembles the
// resulting GroundConnection.
func DeepsearchGroundConnection(q *mesh.MeshQ, junction treebuilder.Junction, widening WideningFn, cfg slaconfig.SupportConfig, logger *slog.Logger) (GroundConnection, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	bPolar := [2]float64{math.Pi - cfg.BridgeSlope, math.Pi}
	bAz := [2]float64{-math.Pi, math.Pi}
	bLen := [2]float64{0, cfg.MaxBridgeLengthMm}

	objective := func(x []float64) float64 {
		polar := clamp(x[0], bPolar[0], bPolar[1])
		az := clamp(x[1], bAz[0], bAz[1])
		l := clamp(x[2], bLen[0], bLen[1])
		dir := geom.SphericToDir(polar, az)
		hit := CheckGroundRoute(q, junction.Pos, dir, junction.R, l, widening, cfg)
		score := hit.z
		if hit.collision {
			score += 1e6
		}
		return score
	}

	x0 := []float64{math.Pi, 0, cfg.MaxBridgeLengthMm / 2}
	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{MajorIterations: maxIterationsGlobal}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil || result == nil || !isFinite(result.F) {
		return GroundConnection{}, false
	}

	polar := clamp(result.X[0], bPolar[0], bPolar[1])
	az := clamp(result.X[1], bAz[0], bAz[1])
	l := clamp(result.X[2], bLen[0], bLen[1])
	dir := geom.SphericToDir(polar, az)

	hit := CheckGroundRoute(q, junction.Pos, dir, junction.R, l, widening, cfg)
	if hit.collision || hit.z > cfg.GroundLevel+relScoreDiff*cfg.MaxBridgeLengthMm {
		logger.Warn("groundroute: no route reached the bed", "junction", junction.ID)
		return GroundConnection{}, false
	}

	// Step 4: brute-force tighten bridgeLen downward in steps of r.
	lMax := l
	for l > 0 {
		h := CheckGroundRoute(q, junction.Pos, dir, junction.R, l, widening, cfg)
		if h.collision || h.z > cfg.GroundLevel+1e-6 {
			break
		}
		lMax = l
		l -= junction.R
	}

	end := junction.Pos.Add(dir.Mul(lMax))
	endR := widening(geom.Ball{Centre: junction.Pos, Radius: junction.R}, dir, lMax)

	groundPoint := mgl64.Vec3{end.X(), end.Y(), cfg.GroundLevel}
	if cfg.ObjectElevationMm <= 1e-9 {
		if !PillarBaseSafetyTest(q, groundPoint, cfg.BaseRadiusMm, cfg.PillarBaseSafetyDistanceMm) {
			logger.Warn("groundroute: pedestal too close to model in zero-elevation mode", "junction", junction.ID)
			return GroundConnection{}, false
		}
	}

	conn := GroundConnection{
		Path: []treebuilder.Junction{
			{Pos: end, R: endR},
		},
		PillarBase: treebuilder.Pedestal{
			Pos:     groundPoint,
			Height:  cfg.BaseHeightMm,
			RBottom: cfg.BaseRadiusMm,
			RTop:    endR,
		},
		HasPillarBase: true,
	}
	return conn, true
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
