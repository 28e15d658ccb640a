package pde

import "math"

// State is a flattened field. 2D fields are stored row-major with x the
// fastest-varying index, see [Grid.Index].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Equal reports exact, element-wise equality.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// History is the ordered sequence of states produced by an evolution.
// Index 0 is the initial condition.
type History []State

// Final returns the last state, or nil for an empty history.
func (h History) Final() State {
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

// Operator is a square linear spatial operator.
type Operator interface {
	Size() int
	// Apply writes L·u into dst. dst and u must not alias.
	Apply(dst, u []float64)
}

// RHSFunc maps (u, t) to du/dt. Implementations must be pure and return a
// new slice of the same length as u.
type RHSFunc func(u State, t float64) State

// Observer is an instrumentation hook. It must not modify u.
type Observer func(u State, t float64)

// Stepper advances u by one step of size dt. observe may be nil; when set it
// is called with (u, t) before the first derivative evaluation.
type Stepper interface {
	Name() string
	Step(u State, rhs RHSFunc, t, dt float64, observe Observer) State
}

// Recorder receives each state of a history as it is produced.
type Recorder interface {
	Track(u State, t float64) error
}
