package slasupport_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/noctua3d/slasupport"
	"github.com/noctua3d/slasupport/mesh"
	"github.com/noctua3d/slasupport/slaconfig"
	"github.com/noctua3d/slasupport/slaerr"
	"github.com/noctua3d/slasupport/supportpoint"
)

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := slaconfig.Default()
	cfg.SafetyDistanceMm = -1

	_, err := slasupport.Build(mesh.IndexedTriangleSet{}, nil, cfg, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a negative safety distance")
	}
	if !errors.Is(err, slaerr.ConfigInvalid) {
		t.Fatalf("expected a ConfigInvalid error, got %v", err)
	}
}

func TestBuildBranchingAlgorithmRoutesToGround(t *testing.T) {
	cfg := slaconfig.Default()
	cfg.Algorithm = slaconfig.AlgorithmBranching

	points := []supportpoint.SupportPoint{{Pos: mgl32.Vec3{0, 0, 10}, HeadR: 0.2}}
	res, err := slasupport.Build(mesh.IndexedTriangleSet{}, points, cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Unroutable) != 0 {
		t.Fatalf("expected the single point to route to ground against an empty mesh, got unroutable %v", res.Unroutable)
	}
}

func TestBuildCancellation(t *testing.T) {
	cfg := slaconfig.Default()
	points := []supportpoint.SupportPoint{{Pos: mgl32.Vec3{0, 0, 10}, HeadR: 0.2}}
	_, err := slasupport.Build(mesh.IndexedTriangleSet{}, points, cfg, nil, func() bool { return true }, nil)
	if !errors.Is(err, slaerr.Cancelled) {
		t.Fatalf("expected a Cancelled error, got %v", err)
	}
}
