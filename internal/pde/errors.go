package pde

import (
	"errors"
	"fmt"
)

// Domain errors. Callers match them with errors.Is; the returned errors wrap
// these sentinels with detail.
var (
	// ErrInvalidGrid indicates a grid with too few points or a bad spacing.
	ErrInvalidGrid = errors.New("pde: invalid grid")

	// ErrUnsupportedIntegrator indicates an unknown integrator name.
	ErrUnsupportedIntegrator = errors.New("pde: unsupported integrator")

	// ErrShapeMismatch indicates a state, operator or reference of the wrong size.
	ErrShapeMismatch = errors.New("pde: shape mismatch")

	// ErrMissingSpacing indicates diagnostics configured without a grid spacing.
	ErrMissingSpacing = errors.New("pde: missing grid spacing")

	// ErrInvalidStep indicates a non-positive time step or negative step count.
	ErrInvalidStep = errors.New("pde: invalid time step")
)

// StepError wraps an error raised while a run was in progress.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
