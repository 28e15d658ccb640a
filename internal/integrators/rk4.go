package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pdesim/internal/pde"
)

// RK4 is the classic four-stage Runge-Kutta scheme. It keeps no scratch
// buffers, so one value may be shared by concurrent runs.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(u pde.State, rhs pde.RHSFunc, t, dt float64, observe pde.Observer) pde.State {
	if observe != nil {
		observe(u, t)
	}
	n := len(u)
	stage := make(pde.State, n)

	k1 := rhs(u, t)

	floats.AddScaledTo(stage, u, 0.5*dt, k1)
	k2 := rhs(stage, t+0.5*dt)

	stage = make(pde.State, n)
	floats.AddScaledTo(stage, u, 0.5*dt, k2)
	k3 := rhs(stage, t+0.5*dt)

	stage = make(pde.State, n)
	floats.AddScaledTo(stage, u, dt, k3)
	k4 := rhs(stage, t+dt)

	result := make(pde.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = u[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
