// Package slaconfig holds the flat tuneable configuration consumed by every
// stage of a support-tree build. There is no environment-variable or file
// layer here, matching spec.md §6: this is a library, and the caller owns
// configuration construction.
package slaconfig

import (
	"math"

	"github.com/noctua3d/slasupport/slaerr"
)

// Algorithm selects which tree-building strategy Build uses.
type Algorithm int

const (
	// AlgorithmDefault runs the deterministic DefaultTree pipeline.
	AlgorithmDefault Algorithm = iota
	// AlgorithmBranching runs the greedy BranchingTree builder.
	AlgorithmBranching
)

// SupportConfig is the full set of tuneables for a support-tree build.
type SupportConfig struct {
	Algorithm Algorithm

	HeadBackRadiusMm     float64
	HeadFrontRadiusMm    float64
	HeadPenetrationMm    float64
	HeadWidthMm          float64
	HeadFallbackRadiusMm float64

	BridgeSlope      float64 // radians
	MaxBridgeLengthMm float64
	SafetyDistanceMm float64

	PillarWideningFactor      float64
	MaxWeightOnModelSupport   float64
	GroundFacingOnly          bool
	ObjectElevationMm         float64

	BaseRadiusMm                 float64
	BaseHeightMm                 float64
	PillarBaseSafetyDistanceMm   float64

	OptimizerMaxIterations int
	OptimizerRelScoreDiff  float64

	// NormalCutoffAngle rejects near-horizontal surface normals in pinhead
	// placement (spec.md §4.4 step 1).
	NormalCutoffAngle float64

	// MaxBridgesOnPillar caps how many peripheral heads a single pillar
	// absorbs in DefaultTree stage 3 (spec.md §4.6 step 3).
	MaxBridgesOnPillar int

	// GroundClusterRadiusMm groups ground-facing heads in DefaultTree
	// stage 2 (spec.md §4.6 step 2).
	GroundClusterRadiusMm float64

	// GroundLevel is the Z coordinate of the bed plane.
	GroundLevel float64

	// Workers bounds fork-join parallelism (spec.md §5). Values below 1,
	// including 0, run the work on the calling goroutine; 0 is not mapped to
	// GOMAXPROCS.
	Workers int
}

// Default returns a SupportConfig populated with the reference values used
// throughout the module's own tests — deliberately conservative, matching
// typical SLA resin-printer defaults.
func Default() SupportConfig {
	return SupportConfig{
		Algorithm: AlgorithmDefault,

		HeadBackRadiusMm:     0.3,
		HeadFrontRadiusMm:    0.2,
		HeadPenetrationMm:    0.2,
		HeadWidthMm:          1.0,
		HeadFallbackRadiusMm: 0.15,

		BridgeSlope:       math.Pi / 4,
		MaxBridgeLengthMm: 15.0,
		SafetyDistanceMm:  0.1,

		PillarWideningFactor:       0.02,
		MaxWeightOnModelSupport:    10.0,
		GroundFacingOnly:           false,
		ObjectElevationMm:          5.0,

		BaseRadiusMm:               1.5,
		BaseHeightMm:               0.3,
		PillarBaseSafetyDistanceMm: 0.5,

		OptimizerMaxIterations: 200,
		OptimizerRelScoreDiff:  0.05,

		NormalCutoffAngle: math.Pi / 6,

		MaxBridgesOnPillar:    3,
		GroundClusterRadiusMm: 5.0,
		GroundLevel:           0,

		Workers: 1,
	}
}

// Validate checks the invariants spec.md §7 requires to hold before any
// build work starts, returning a slaerr.ConfigInvalid-wrapped error
// describing the first violation found.
func (c SupportConfig) Validate() error {
	switch {
	case c.HeadBackRadiusMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "head_back_radius_mm must be positive")
	case c.HeadFrontRadiusMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "head_front_radius_mm must be positive")
	case c.HeadFrontRadiusMm >= c.HeadBackRadiusMm:
		return slaerr.Wrap(slaerr.ConfigInvalid, "head_front_radius_mm must be smaller than head_back_radius_mm")
	case c.HeadWidthMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "head_width_mm must be positive")
	case c.HeadFallbackRadiusMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "head_fallback_radius_mm must be positive")
	case c.BridgeSlope <= 0 || c.BridgeSlope > math.Pi/2:
		return slaerr.Wrap(slaerr.ConfigInvalid, "bridge_slope must be in (0, pi/2]")
	case c.MaxBridgeLengthMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "max_bridge_length_mm must be positive")
	case c.SafetyDistanceMm < 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "safety_distance_mm must not be negative")
	case c.PillarWideningFactor < 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "pillar_widening_factor must not be negative")
	case c.MaxWeightOnModelSupport <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "max_weight_on_model_support must be positive")
	case c.ObjectElevationMm < 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "object_elevation_mm must not be negative")
	case c.BaseRadiusMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "base_radius_mm must be positive")
	case c.BaseHeightMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "base_height_mm must be positive")
	case c.PillarBaseSafetyDistanceMm < 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "pillar_base_safety_distance_mm must not be negative")
	case c.OptimizerMaxIterations <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "optimizer_max_iterations must be positive")
	case c.OptimizerRelScoreDiff <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "optimizer_rel_score_diff must be positive")
	case c.NormalCutoffAngle <= 0 || c.NormalCutoffAngle >= math.Pi/2:
		return slaerr.Wrap(slaerr.ConfigInvalid, "normal_cutoff_angle must be in (0, pi/2)")
	case c.MaxBridgesOnPillar <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "max_bridges_on_pillar must be positive")
	case c.GroundClusterRadiusMm <= 0:
		return slaerr.Wrap(slaerr.ConfigInvalid, "ground_cluster_radius_mm must be positive")
	}
	return nil
}
