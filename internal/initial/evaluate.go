package initial

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pdesim/internal/pde"
)

// Spec selects and parameterizes a profile.
type Spec struct {
	Type      string
	CenterX   float64
	CenterY   float64
	Width     float64
	Amplitude float64
}

func (s Spec) validate() error {
	if strings.ToLower(s.Type) == Delta {
		return nil
	}
	if !(s.Width > 0) || math.IsInf(s.Width, 0) {
		return fmt.Errorf("initial: width must be positive, got %g", s.Width)
	}
	return nil
}

// Evaluate dispatches on the grid dimension.
func Evaluate(g pde.Grid, s Spec) (pde.State, error) {
	if g.Dim == 2 {
		return Evaluate2D(g, s)
	}
	return Evaluate1D(g, s)
}

func Evaluate1D(g pde.Grid, s Spec) (pde.State, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Dim != 1 {
		return nil, fmt.Errorf("%w: expected a 1D grid, got %s", pde.ErrInvalidGrid, g)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	lx, _ := g.Lengths()
	x := Coordinates(g.Nx, lx)
	u := make(pde.State, g.Nx)

	if strings.ToLower(s.Type) == Delta {
		u[nearest(x, s.CenterX)] = s.Amplitude
		return u, nil
	}

	f, err := Profile(s.Type)
	if err != nil {
		return nil, err
	}
	for i, xi := range x {
		u[i] = f(xi, s.CenterX, s.Width, s.Amplitude)
	}
	return u, nil
}

// Evaluate2D builds a 2D field. Profiles other than gaussian and delta are
// applied separably as f(x)·f(y).
func Evaluate2D(g pde.Grid, s Spec) (pde.State, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Dim != 2 {
		return nil, fmt.Errorf("%w: expected a 2D grid, got %s", pde.ErrInvalidGrid, g)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	lx, ly := g.Lengths()
	x := Coordinates(g.Nx, lx)
	y := Coordinates(g.Ny, ly)
	u := make(pde.State, g.Size())

	name := strings.ToLower(s.Type)
	switch name {
	case Delta:
		u[g.Index(nearest(x, s.CenterX), nearest(y, s.CenterY))] = s.Amplitude
		return u, nil
	case "gaussian":
		for j, yj := range y {
			for i, xi := range x {
				u[g.Index(i, j)] = Gaussian2D(xi, yj, s.CenterX, s.CenterY, s.Width, s.Amplitude)
			}
		}
		return u, nil
	}

	f, err := Profile(name)
	if err != nil {
		return nil, err
	}
	for j, yj := range y {
		fy := f(yj, s.CenterY, s.Width, 1)
		for i, xi := range x {
			u[g.Index(i, j)] = f(xi, s.CenterX, s.Width, s.Amplitude) * fy
		}
	}
	return u, nil
}

func nearest(coords []float64, c float64) int {
	best := 0
	for i, v := range coords {
		if math.Abs(v-c) < math.Abs(coords[best]-c) {
			best = i
		}
	}
	return best
}
