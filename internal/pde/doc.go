// Package pde provides the core primitives for explicit PDE integration on
// periodic grids.
//
// The package defines the types shared by every other part of pdesim:
//
//   - [Grid]: 1D or 2D periodic grid (point counts and spacings)
//   - [State]: flattened field values at one instant
//   - [Operator]: square linear spatial operator (e.g. a Laplacian)
//   - [RHSFunc]: right-hand side u' = f(u, t)
//   - [Stepper]: explicit time integrator
//   - [System]: binds an RHS to a stepper and evolves a state history
//
// # Example
//
//	g, _ := pde.NewGrid1D(64, 0.1)
//	lap, _ := laplacian.Laplacian(g)
//	sys, _ := pde.New(rhs.Linear(lap, 1.0), integrators.NewRK4(), g.Size())
//	history, _ := sys.Evolve(u0, 1e-3, 500)
//
// # Thread Safety
//
// Operators, RHS functions and steppers are immutable and may be shared by
// independent runs. A [System] holds no per-run state, but any [Recorder]
// attached to it belongs to exactly one run at a time.
package pde
