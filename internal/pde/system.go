package pde

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// System couples an RHS to a time stepper for states of a fixed size.
type System struct {
	rhs      RHSFunc
	stepper  Stepper
	size     int
	hook     Observer
	recorder Recorder
}

type Option func(*System)

// WithStepHook passes h to every Step call. It sees the pre-step state.
func WithStepHook(h Observer) Option {
	return func(s *System) { s.hook = h }
}

// WithRecorder sends every history entry to r as it is produced, starting
// with the initial condition at t=0.
func WithRecorder(r Recorder) Option {
	return func(s *System) { s.recorder = r }
}

func New(rhs RHSFunc, stepper Stepper, size int, opts ...Option) (*System, error) {
	if rhs == nil {
		return nil, errors.New("pde: nil rhs")
	}
	if stepper == nil {
		return nil, errors.New("pde: nil stepper")
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: state size must be positive, got %d", ErrShapeMismatch, size)
	}
	s := &System{rhs: rhs, stepper: stepper, size: size}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evolve runs steps integrator calls from u0 and returns steps+1 states.
func (s *System) Evolve(u0 State, dt float64, steps int) (History, error) {
	return s.EvolveContext(context.Background(), u0, dt, steps)
}

// EvolveContext is Evolve with cooperative cancellation between steps. A
// cancelled or failed run returns no history.
//
// The time passed to step i is float64(i)*dt rather than an accumulated sum,
// so it does not drift, but very large step counts lose precision in t.
func (s *System) EvolveContext(ctx context.Context, u0 State, dt float64, steps int) (History, error) {
	if err := s.validate(u0, dt, steps); err != nil {
		return nil, err
	}

	history := make(History, 0, steps+1)
	u := u0.Clone()
	history = append(history, u)
	if err := s.record(u, 0, 0); err != nil {
		return nil, err
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := float64(i) * dt
		u = s.stepper.Step(u, s.rhs, t, dt, s.hook)
		history = append(history, u)

		if err := s.record(u, i+1, float64(i+1)*dt); err != nil {
			return nil, err
		}
	}

	return history, nil
}

func (s *System) validate(u0 State, dt float64, steps int) error {
	if len(u0) != s.size {
		return fmt.Errorf("%w: initial state has %d entries, operator expects %d", ErrShapeMismatch, len(u0), s.size)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidStep, dt)
	}
	if steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidStep, steps)
	}
	return nil
}

func (s *System) record(u State, step int, t float64) error {
	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.Track(u, t); err != nil {
		return &StepError{Step: step, Time: t, Wrapped: err}
	}
	return nil
}
