package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pdesim/internal/config"
	"github.com/san-kum/pdesim/internal/initial"
	"github.com/san-kum/pdesim/internal/integrators"
	"github.com/san-kum/pdesim/internal/laplacian"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/rhs"
)

// EquationBuilder assembles an RHS on g around the Laplacian lap.
type EquationBuilder func(g pde.Grid, lap pde.Operator, c config.CoefficientConfig) (pde.RHSFunc, error)

type Registry struct {
	equations map[string]EquationBuilder
}

func NewRegistry() *Registry {
	r := &Registry{equations: make(map[string]EquationBuilder)}

	r.equations["heat"] = func(_ pde.Grid, lap pde.Operator, c config.CoefficientConfig) (pde.RHSFunc, error) {
		return rhs.Linear(lap, c.Alpha), nil
	}
	r.equations["reaction"] = func(_ pde.Grid, lap pde.Operator, c config.CoefficientConfig) (pde.RHSFunc, error) {
		return rhs.Reaction(lap, c.Alpha, c.Beta), nil
	}
	r.equations["burgers"] = func(g pde.Grid, lap pde.Operator, c config.CoefficientConfig) (pde.RHSFunc, error) {
		grads, err := laplacian.Gradient(g)
		if err != nil {
			return nil, err
		}
		ops := make([]pde.Operator, len(grads))
		for i, d := range grads {
			ops[i] = d
		}
		return rhs.Burgers(lap, ops, c.Nu)
	}

	return r
}

// Register adds or replaces an equation.
func (r *Registry) Register(name string, b EquationBuilder) {
	r.equations[name] = b
}

func (r *Registry) GetEquation(name string) (EquationBuilder, error) {
	b, ok := r.equations[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown equation %q (available: %v)", config.ErrInvalidConfig, name, r.ListEquations())
	}
	return b, nil
}

func (r *Registry) GetIntegrator(name string) (pde.Stepper, error) {
	return integrators.New(name)
}

func (r *Registry) ListEquations() []string {
	names := make([]string, 0, len(r.equations))
	for name := range r.equations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string { return integrators.Names() }

func (r *Registry) ListProfiles() []string { return initial.Names() }
