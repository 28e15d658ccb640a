package laplacian

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pdesim/internal/pde"
)

// Laplacian builds the periodic second-order Laplacian for g in CSR storage.
func Laplacian(g pde.Grid) (*Sparse, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	switch g.Dim {
	case 1:
		return newSparse(periodicSecondDiff(g.Nx, g.Dx)), nil
	case 2:
		lx := periodicSecondDiff(g.Nx, g.Dx).ToCSR()
		ly := periodicSecondDiff(g.Ny, g.Dy).ToCSR()
		return newSparse(kroneckerSum(lx, ly)), nil
	}
	return nil, fmt.Errorf("%w: dimension %d", pde.ErrInvalidGrid, g.Dim)
}

func Laplacian1D(n int, dx float64) (*Sparse, error) {
	return Laplacian(pde.Grid{Dim: 1, Nx: n, Ny: 1, Dx: dx})
}

func Laplacian2D(nx, ny int, dx, dy float64) (*Sparse, error) {
	return Laplacian(pde.Grid{Dim: 2, Nx: nx, Ny: ny, Dx: dx, Dy: dy})
}

// DenseLaplacian builds the same operator as Laplacian with gonum dense
// matrices. Memory grows with the square of the grid size.
func DenseLaplacian(g pde.Grid) (*Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	lx := denseSecondDiff(g.Nx, g.Dx)
	if g.Dim == 1 {
		return &Dense{m: lx, n: g.Nx}, nil
	}
	ly := denseSecondDiff(g.Ny, g.Dy)

	var a, b mat.Dense
	a.Kronecker(identity(g.Ny), lx)
	b.Kronecker(ly, identity(g.Nx))
	a.Add(&a, &b)
	return &Dense{m: &a, n: g.Size()}, nil
}

// Gradient returns periodic central-difference first derivatives, one
// operator per axis (∂/∂x, then ∂/∂y in 2D).
func Gradient(g pde.Grid) ([]*Sparse, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	dx := periodicFirstDiff(g.Nx, g.Dx)
	if g.Dim == 1 {
		return []*Sparse{newSparse(dx)}, nil
	}
	dy := periodicFirstDiff(g.Ny, g.Dy)

	gx := sparse.NewDOK(g.Size(), g.Size())
	addKronecker(gx, sparseIdentity(g.Ny), dx.ToCSR())
	gy := sparse.NewDOK(g.Size(), g.Size())
	addKronecker(gy, dy.ToCSR(), sparseIdentity(g.Nx))
	return []*Sparse{newSparse(gx), newSparse(gy)}, nil
}

// periodicSecondDiff is the 3-point stencil with wraparound. Entries
// accumulate so that n == 2, where both neighbours are the same column,
// still gives zero row sums.
func periodicSecondDiff(n int, h float64) *sparse.DOK {
	d := sparse.NewDOK(n, n)
	inv := 1 / (h * h)
	for i := 0; i < n; i++ {
		add(d, i, i, -2*inv)
		add(d, i, (i-1+n)%n, inv)
		add(d, i, (i+1)%n, inv)
	}
	return d
}

func periodicFirstDiff(n int, h float64) *sparse.DOK {
	d := sparse.NewDOK(n, n)
	inv := 1 / (2 * h)
	for i := 0; i < n; i++ {
		add(d, i, (i+1)%n, inv)
		add(d, i, (i-1+n)%n, -inv)
	}
	return d
}

func denseSecondDiff(n int, h float64) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	inv := 1 / (h * h)
	for i := 0; i < n; i++ {
		d.Set(i, i, d.At(i, i)-2*inv)
		d.Set(i, (i-1+n)%n, d.At(i, (i-1+n)%n)+inv)
		d.Set(i, (i+1)%n, d.At(i, (i+1)%n)+inv)
	}
	return d
}

// kroneckerSum returns I_y ⊗ L_x + L_y ⊗ I_x.
func kroneckerSum(lx, ly *sparse.CSR) *sparse.DOK {
	nx, _ := lx.Dims()
	ny, _ := ly.Dims()
	out := sparse.NewDOK(nx*ny, nx*ny)
	addKronecker(out, sparseIdentity(ny), lx)
	addKronecker(out, ly, sparseIdentity(nx))
	return out
}

// addKronecker accumulates a ⊗ b into dst.
func addKronecker(dst *sparse.DOK, a, b *sparse.CSR) {
	rb, cb := b.Dims()
	a.DoNonZero(func(ia, ja int, va float64) {
		b.DoNonZero(func(ib, jb int, vb float64) {
			add(dst, ia*rb+ib, ja*cb+jb, va*vb)
		})
	})
}

func sparseIdentity(n int) *sparse.CSR {
	d := sparse.NewDOK(n, n)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d.ToCSR()
}

func identity(n int) *mat.DiagDense {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDiagDense(n, ones)
}

func add(d *sparse.DOK, i, j int, v float64) {
	d.Set(i, j, d.At(i, j)+v)
}
