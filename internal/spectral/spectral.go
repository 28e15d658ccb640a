// Package spectral provides the exact solution of the semi-discrete periodic
// heat equation and the eigenvalue bounds that govern explicit stability.
//
// The periodic Laplacian is diagonalized by the discrete Fourier transform:
// mode k of an N-point axis with spacing dx has eigenvalue
//
//	λ_k = -(4/dx²)·sin²(πk/N)
//
// and in 2D the eigenvalues of the two axes add. Solving u' = αLu is then a
// matter of scaling each Fourier coefficient by exp(α·λ·t).
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/pdesim/internal/pde"
)

// Largest |z| on the negative real axis for which each method's stability
// polynomial stays within the unit disk.
const (
	EulerStabilityLimit = 2.0
	RK4StabilityLimit   = 2.785
)

// Eigenvalues returns λ_k for k = 0..n-1 of the 1D periodic Laplacian.
func Eigenvalues(n int, dx float64) []float64 {
	ev := make([]float64, n)
	scale := -4 / (dx * dx)
	for k := range ev {
		s := math.Sin(math.Pi * float64(k) / float64(n))
		ev[k] = scale * s * s
	}
	return ev
}

// SpectralRadius is the bound 4/dx² (+ 4/dy² in 2D) on |λ|. It is attained
// when the point counts are even.
func SpectralRadius(g pde.Grid) float64 {
	rho := 4 / (g.Dx * g.Dx)
	if g.Dim == 2 {
		rho += 4 / (g.Dy * g.Dy)
	}
	return rho
}

// StableDt returns the largest time step for which method is stable on
// u' = αLu. A zero alpha gives +Inf.
func StableDt(g pde.Grid, alpha float64, method string) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	if alpha < 0 || math.IsNaN(alpha) {
		return 0, fmt.Errorf("spectral: alpha must be non-negative, got %g", alpha)
	}

	var limit float64
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "euler":
		limit = EulerStabilityLimit
	case "rk4":
		limit = RK4StabilityLimit
	default:
		return 0, fmt.Errorf("%w: %q", pde.ErrUnsupportedIntegrator, method)
	}

	if alpha == 0 {
		return math.Inf(1), nil
	}
	return limit / (alpha * SpectralRadius(g)), nil
}

// HeatSolution returns exp(α·L·t)·u0 for the periodic Laplacian L of g.
func HeatSolution(g pde.Grid, u0 pde.State, alpha, t float64) (pde.State, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(u0) != g.Size() {
		return nil, fmt.Errorf("%w: state has %d entries, grid %s has %d", pde.ErrShapeMismatch, len(u0), g, g.Size())
	}

	if g.Dim == 1 {
		return heat1D(g, u0, alpha, t), nil
	}
	return heat2D(g, u0, alpha, t), nil
}

func heat1D(g pde.Grid, u0 pde.State, alpha, t float64) pde.State {
	coeffs := fft.FFTReal(u0)
	ev := Eigenvalues(g.Nx, g.Dx)
	for k := range coeffs {
		coeffs[k] *= complex(math.Exp(alpha*ev[k]*t), 0)
	}
	return realPart(fft.IFFT(coeffs))
}

func heat2D(g pde.Grid, u0 pde.State, alpha, t float64) pde.State {
	rows := make([][]float64, g.Ny)
	for j := range rows {
		rows[j] = u0[j*g.Nx : (j+1)*g.Nx]
	}

	coeffs := fft.FFT2Real(rows)
	evx := Eigenvalues(g.Nx, g.Dx)
	evy := Eigenvalues(g.Ny, g.Dy)
	for j := range coeffs {
		for i := range coeffs[j] {
			coeffs[j][i] *= complex(math.Exp(alpha*(evx[i]+evy[j])*t), 0)
		}
	}

	out := make(pde.State, 0, g.Size())
	for _, row := range fft.IFFT2(coeffs) {
		out = append(out, realPart(row)...)
	}
	return out
}

// PowerSpectrum returns |U_k|²/n for k = 0..n/2 of a 1D field.
func PowerSpectrum(u []float64) []float64 {
	if len(u) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(u)
	n := float64(len(coeffs))
	ps := make([]float64, len(coeffs)/2+1)
	for k := range ps {
		a := cmplx.Abs(coeffs[k])
		ps[k] = a * a / n
	}
	return ps
}

func realPart(c []complex128) pde.State {
	out := make(pde.State, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}
