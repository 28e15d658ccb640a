package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/pdesim/internal/pde"
)

func oscillator(x pde.State, _ float64) pde.State {
	return pde.State{x[1], -x[0]}
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := pde.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(x, oscillator, float64(i)*dt, dt, nil)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestRK4_StageTimes(t *testing.T) {
	var times []float64
	rhs := func(u pde.State, t float64) pde.State {
		times = append(times, t)
		return make(pde.State, len(u))
	}

	NewRK4().Step(pde.State{1}, rhs, 2.0, 0.5, nil)

	want := []float64{2.0, 2.25, 2.25, 2.5}
	if len(times) != len(want) {
		t.Fatalf("expected %d rhs evaluations, got %d", len(want), len(times))
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("evaluation %d at t=%v, want %v", i, times[i], want[i])
		}
	}
}

func TestRK4_ExponentialDecay(t *testing.T) {
	decay := func(u pde.State, _ float64) pde.State {
		return pde.State{-u[0]}
	}
	u := NewRK4().Step(pde.State{1}, decay, 0, 0.1, nil)

	// one RK4 step reproduces the Taylor series of exp(-h) to fourth order
	h := 0.1
	want := 1 - h + h*h/2 - h*h*h/6 + h*h*h*h/24
	if math.Abs(u[0]-want) > 1e-15 {
		t.Errorf("got %.17f, want %.17f", u[0], want)
	}
}
