// Package initial builds initial conditions on periodic grids. Coordinates
// span [-L/2, L/2) along each axis, so a profile centred at 0 sits in the
// middle of the domain.
package initial

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var ErrUnknownProfile = errors.New("initial: unknown profile")

// Func1D evaluates a profile at x.
type Func1D func(x, center, width, amplitude float64) float64

func GaussianBump(x, center, width, amplitude float64) float64 {
	d := (x - center) / width
	return amplitude * math.Exp(-d*d)
}

// SquarePulse is amplitude on the open interval of the given width.
func SquarePulse(x, center, width, amplitude float64) float64 {
	if x > center-width/2 && x < center+width/2 {
		return amplitude
	}
	return 0
}

func TriangleWave(x, center, width, amplitude float64) float64 {
	slope := 2 * amplitude / width
	return math.Max(0, math.Min(amplitude, amplitude-slope*math.Abs(x-center)))
}

// Sine is a single Fourier mode with wavelength width. It is periodic on the
// grid only when width divides the domain length.
func Sine(x, center, width, amplitude float64) float64 {
	return amplitude * math.Sin(2*math.Pi*(x-center)/width)
}

// Gaussian2D uses a variance of width², unlike the 1D bump which uses
// width²/2.
func Gaussian2D(x, y, cx, cy, width, amplitude float64) float64 {
	dx, dy := x-cx, y-cy
	return amplitude * math.Exp(-(dx*dx+dy*dy)/(2*width*width))
}

var profiles = map[string]Func1D{
	"gaussian": GaussianBump,
	"square":   SquarePulse,
	"triangle": TriangleWave,
	"sine":     Sine,
}

// Delta names the single-hot-cell profile. It has no Func1D since it depends
// on the grid rather than on coordinates.
const Delta = "delta"

func Profile(name string) (Func1D, error) {
	f, ok := profiles[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names lists every profile, including delta, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles)+1)
	for name := range profiles {
		names = append(names, name)
	}
	names = append(names, Delta)
	sort.Strings(names)
	return names
}

// Coordinates returns n points spanning [-length/2, length/2).
func Coordinates(n int, length float64) []float64 {
	x := make([]float64, n)
	dx := length / float64(n)
	for i := range x {
		x[i] = -length/2 + float64(i)*dx
	}
	return x
}
