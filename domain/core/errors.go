package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Schema errors
	ErrSchema         = errors.New("schema error")
	ErrColumnNotFound = fmt.Errorf("%w: column not found", ErrSchema)
	ErrLengthMismatch = fmt.Errorf("%w: column length mismatch", ErrSchema)
	ErrKindMismatch   = fmt.Errorf("%w: column kind mismatch", ErrSchema)
	ErrRoleConflict   = fmt.Errorf("%w: role assignment conflict", ErrSchema)

	// Transform errors
	ErrDomain          = errors.New("value outside transform domain")
	ErrUnknownLevel    = errors.New("unknown categorical level at apply time")
	ErrDegenerateScale = errors.New("zero-variance column reached a scale-dependent step")

	// Lifecycle errors
	ErrNotFitted   = errors.New("not fitted")
	ErrNotRetained = errors.New("training table was not retained")

	// Estimator errors
	ErrEstimator = errors.New("estimator failure")

	// Resampling / tuning errors
	ErrBadSplit     = errors.New("invalid split specification")
	ErrEmptyGrid    = errors.New("empty tuning grid")
	ErrNoCandidates = errors.New("no configuration survived tuning")
)

// Error constructors with context

func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

func NewLengthMismatchError(name string, got, want int) error {
	return fmt.Errorf("%w: column %q has %d rows, table has %d", ErrLengthMismatch, name, got, want)
}

func NewDomainError(step, column string, row int, value float64) error {
	return fmt.Errorf("%w: step %s, column %q, row %d, value %v", ErrDomain, step, column, row, value)
}

func NewUnknownLevelError(column, level string) error {
	return fmt.Errorf("%w: column %q, level %q", ErrUnknownLevel, column, level)
}

func NewDegenerateScaleError(column string) error {
	return fmt.Errorf("%w: column %q", ErrDegenerateScale, column)
}

func NewNotFittedError(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFitted, what)
}

func NewEstimatorError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEstimator, name, err)
}

// Error checking helpers

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsTransformError(err error) bool {
	return errors.Is(err, ErrDomain) ||
		errors.Is(err, ErrUnknownLevel) ||
		errors.Is(err, ErrDegenerateScale)
}

func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrNotFitted) ||
		errors.Is(err, ErrNotRetained)
}

func IsEstimatorError(err error) bool {
	return errors.Is(err, ErrEstimator)
}
