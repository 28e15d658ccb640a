package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pdesim/internal/pde"
)

// Euler is the explicit forward Euler scheme, first-order accurate.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(u pde.State, rhs pde.RHSFunc, t, dt float64, observe pde.Observer) pde.State {
	if observe != nil {
		observe(u, t)
	}
	du := rhs(u, t)
	result := make(pde.State, len(u))
	floats.AddScaledTo(result, u, dt, du)
	return result
}
