package slaerr

import (
	"errors"
	"testing"
)

func TestWrapIsCompatible(t *testing.T) {
	err := Wrap(ConfigInvalid, "bridge slope must be positive")
	if !errors.Is(err, ConfigInvalid) {
		t.Fatal("wrapped error should report errors.Is against its kind")
	}
	if errors.Is(err, UnroutablePoint) {
		t.Fatal("wrapped error should not match an unrelated kind")
	}
	if err.Error() != "bridge slope must be positive" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapfFormats(t *testing.T) {
	err := Wrapf(NumericalFailure, "optimizer failed after %d iterations", 42)
	want := "optimizer failed after 42 iterations"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
	if !errors.Is(err, NumericalFailure) {
		t.Fatal("Wrapf result should match its kind")
	}
}
