// Package rhs builds right-hand sides u' = f(u, t) from spatial operators.
// Every function returned here is pure and safe to call concurrently.
package rhs

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pdesim/internal/pde"
)

// Linear returns u' = alpha·(L·u), the diffusion equation when L is a
// Laplacian and alpha the diffusivity.
func Linear(op pde.Operator, alpha float64) pde.RHSFunc {
	return func(u pde.State, _ float64) pde.State {
		du := make(pde.State, len(u))
		op.Apply(du, u)
		floats.Scale(alpha, du)
		return du
	}
}

// Reaction returns u' = alpha·(L·u) + beta·|u|²·u.
func Reaction(op pde.Operator, alpha, beta float64) pde.RHSFunc {
	linear := Linear(op, alpha)
	return func(u pde.State, t float64) pde.State {
		du := linear(u, t)
		for i, v := range u {
			du[i] += beta * v * v * v
		}
		return du
	}
}

// Burgers returns u' = -u·(Σ_d ∂u/∂x_d) + nu·(L·u). grad holds one
// first-derivative operator per axis.
func Burgers(op pde.Operator, grad []pde.Operator, nu float64) (pde.RHSFunc, error) {
	if len(grad) == 0 {
		return nil, fmt.Errorf("%w: burgers needs at least one gradient operator", pde.ErrShapeMismatch)
	}
	for _, g := range grad {
		if g.Size() != op.Size() {
			return nil, fmt.Errorf("%w: gradient size %d, laplacian size %d", pde.ErrShapeMismatch, g.Size(), op.Size())
		}
	}

	linear := Linear(op, nu)
	return func(u pde.State, t float64) pde.State {
		du := linear(u, t)
		d := make([]float64, len(u))
		for _, g := range grad {
			g.Apply(d, u)
			for i, v := range u {
				du[i] -= v * d[i]
			}
		}
		return du
	}, nil
}
