package integrators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/pdesim/internal/pde"
)

var constructors = map[string]func() pde.Stepper{
	"euler": func() pde.Stepper { return NewEuler() },
	"rk4":   func() pde.Stepper { return NewRK4() },
}

// New returns the stepper registered under name (case-insensitive).
func New(name string) (pde.Stepper, error) {
	fn, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", pde.ErrUnsupportedIntegrator, name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
