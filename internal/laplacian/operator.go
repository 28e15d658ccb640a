package laplacian

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Sparse is an immutable CSR operator. It satisfies pde.Operator and
// mat.Matrix.
type Sparse struct {
	m *sparse.CSR
	n int
}

func newSparse(d *sparse.DOK) *Sparse {
	r, _ := d.Dims()
	return &Sparse{m: d.ToCSR(), n: r}
}

func (s *Sparse) Size() int                              { return s.n }
func (s *Sparse) Dims() (r, c int)                       { return s.m.Dims() }
func (s *Sparse) At(i, j int) float64                    { return s.m.At(i, j) }
func (s *Sparse) T() mat.Matrix                          { return mat.Transpose{Matrix: s} }
func (s *Sparse) NNZ() int                               { return s.m.NNZ() }
func (s *Sparse) RowNNZ(i int) int                       { return s.m.RowNNZ(i) }
func (s *Sparse) DoNonZero(fn func(i, j int, v float64)) { s.m.DoNonZero(fn) }

// Apply writes L·u into dst.
func (s *Sparse) Apply(dst, u []float64) {
	// MulVecTo accumulates into dst.
	for i := range dst {
		dst[i] = 0
	}
	s.m.MulVecTo(dst, false, u)
}

// ToDense copies the operator into dense storage.
func (s *Sparse) ToDense() *Dense {
	d := mat.NewDense(s.n, s.n, nil)
	s.m.DoNonZero(func(i, j int, v float64) {
		d.Set(i, j, v)
	})
	return &Dense{m: d, n: s.n}
}

// Dense is an immutable dense operator, only sensible for small grids.
type Dense struct {
	m *mat.Dense
	n int
}

func (d *Dense) Size() int           { return d.n }
func (d *Dense) Dims() (r, c int)    { return d.m.Dims() }
func (d *Dense) At(i, j int) float64 { return d.m.At(i, j) }
func (d *Dense) T() mat.Matrix       { return d.m.T() }

func (d *Dense) Apply(dst, u []float64) {
	out := mat.NewVecDense(d.n, dst)
	out.MulVec(d.m, mat.NewVecDense(d.n, u))
}
