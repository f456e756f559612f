package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrGrammar is returned when the text does not match the pattern grammar.
	// No position is reported.
	ErrGrammar = errors.New("pattern does not match grammar")

	// ErrNumericParse is returned when a numeric literal overflows or is out of range.
	ErrNumericParse = errors.New("invalid numeric literal")

	// ErrEuclideanConstraint is matched by every *EuclideanError.
	ErrEuclideanConstraint = errors.New("euclidean constraint violated")

	// ErrInternalInvariant signals an expansion bug, e.g. an alternate surviving expansion.
	ErrInternalInvariant = errors.New("internal invariant violated")

	// ErrMeasureBudget is returned when a compile would exceed Options.MaxMeasures
	// or Options.MaxNodes. It is reported before the oversized allocation.
	ErrMeasureBudget = errors.New("expansion exceeds budget")
)

// EuclideanErrorKind tells which Euclidean constraint failed.
type EuclideanErrorKind int

const (
	NGreaterThanM EuclideanErrorKind = iota + 1
	RGreaterEqualThanM
)

func (k EuclideanErrorKind) String() string {
	switch k {
	case NGreaterThanM:
		return "n_greater_than_m"
	case RGreaterEqualThanM:
		return "r_greater_equal_than_m"
	default:
		return "unknown"
	}
}

// EuclideanError reports pulses exceeding steps, or a rotation not below steps.
type EuclideanError struct {
	Kind EuclideanErrorKind
	N    uint32
	M    uint32
	R    uint32
}

func (e *EuclideanError) Error() string {
	switch e.Kind {
	case NGreaterThanM:
		return fmt.Sprintf("euclidean pulses %d exceed steps %d", e.N, e.M)
	case RGreaterEqualThanM:
		return fmt.Sprintf("euclidean rotation %d must be less than steps %d", e.R, e.M)
	default:
		return ErrEuclideanConstraint.Error()
	}
}

func (e *EuclideanError) Is(target error) bool {
	return target == ErrEuclideanConstraint
}

func numericError(literal string) error {
	return fmt.Errorf("%w: %q", ErrNumericParse, literal)
}
