// Package slaerr defines the sentinel error kinds returned throughout the
// module, following feather's plain errors.New/fmt.Errorf idiom rather
// than introducing a third-party error-handling package: feather never
// imports one, and the small fixed taxonomy here (five kinds, wrapped with
// context via %w) is fully served by errors.Is/errors.As.
package slaerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the fixed failure categories a Build can fail with.
type Kind error

var (
	// ConfigInvalid marks a SupportConfig that failed validation.
	ConfigInvalid Kind = errors.New("slasupport: invalid configuration")
	// UnroutablePoint marks a support point that could not be connected to
	// the bed or the model within the configured constraints.
	UnroutablePoint Kind = errors.New("slasupport: point could not be routed")
	// Cancelled marks an operation aborted via its cancel predicate.
	Cancelled Kind = errors.New("slasupport: operation cancelled")
	// NumericalFailure marks an optimizer or search that failed to converge.
	NumericalFailure Kind = errors.New("slasupport: numerical search failed")
	// PredicateViolation marks a detected violation of an internal
	// invariant (a bug, rather than bad input).
	PredicateViolation Kind = errors.New("slasupport: invariant violated")
)

// wrapped pairs a Kind with a contextual message while remaining
// errors.Is-compatible with the Kind it wraps.
type wrapped struct {
	kind Kind
	msg  string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }

// Wrap produces an error reporting as errors.Is(err, kind) whose message is
// msg.
func Wrap(kind Kind, msg string) error {
	return &wrapped{kind: kind, msg: msg}
}

// Wrapf is Wrap with fmt-style formatting.
func Wrapf(kind Kind, format string, args ...any) error {
	return &wrapped{kind: kind, msg: fmt.Sprintf(format, args...)}
}
