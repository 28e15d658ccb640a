package pde

import (
	"fmt"
	"math"
)

// Grid describes a periodic 1D or 2D grid. For 1D grids Ny is 1 and Dy is
// unused.
type Grid struct {
	Dim    int
	Nx, Ny int
	Dx, Dy float64
}

func NewGrid1D(n int, dx float64) (Grid, error) {
	g := Grid{Dim: 1, Nx: n, Ny: 1, Dx: dx}
	return g, g.Validate()
}

func NewGrid2D(nx, ny int, dx, dy float64) (Grid, error) {
	g := Grid{Dim: 2, Nx: nx, Ny: ny, Dx: dx, Dy: dy}
	return g, g.Validate()
}

// GridFromLengths builds a grid whose spacing is length/points along each
// axis. ly and ny are ignored when dim is 1.
func GridFromLengths(dim, nx, ny int, lx, ly float64) (Grid, error) {
	switch dim {
	case 1:
		if nx <= 0 {
			return Grid{}, fmt.Errorf("%w: nx=%d", ErrInvalidGrid, nx)
		}
		return NewGrid1D(nx, lx/float64(nx))
	case 2:
		if nx <= 0 || ny <= 0 {
			return Grid{}, fmt.Errorf("%w: nx=%d ny=%d", ErrInvalidGrid, nx, ny)
		}
		return NewGrid2D(nx, ny, lx/float64(nx), ly/float64(ny))
	default:
		return Grid{}, fmt.Errorf("%w: dimension %d not supported", ErrInvalidGrid, dim)
	}
}

func (g Grid) Validate() error {
	switch g.Dim {
	case 1:
		if g.Nx < 2 {
			return fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidGrid, g.Nx)
		}
		if !positive(g.Dx) {
			return fmt.Errorf("%w: spacing must be positive, got dx=%g", ErrInvalidGrid, g.Dx)
		}
	case 2:
		if g.Nx < 2 || g.Ny < 2 {
			return fmt.Errorf("%w: need at least 2x2 points, got %dx%d", ErrInvalidGrid, g.Nx, g.Ny)
		}
		if !positive(g.Dx) || !positive(g.Dy) {
			return fmt.Errorf("%w: spacing must be positive, got dx=%g dy=%g", ErrInvalidGrid, g.Dx, g.Dy)
		}
	default:
		return fmt.Errorf("%w: dimension %d not supported", ErrInvalidGrid, g.Dim)
	}
	return nil
}

// Size is the length of a state vector on this grid.
func (g Grid) Size() int {
	if g.Dim == 2 {
		return g.Nx * g.Ny
	}
	return g.Nx
}

// Index flattens (i, j) with i along x.
func (g Grid) Index(i, j int) int {
	return j*g.Nx + i
}

// Lengths returns the periodic domain extents.
func (g Grid) Lengths() (lx, ly float64) {
	lx = float64(g.Nx) * g.Dx
	if g.Dim == 2 {
		ly = float64(g.Ny) * g.Dy
	}
	return lx, ly
}

func (g Grid) String() string {
	if g.Dim == 2 {
		return fmt.Sprintf("%dx%d (dx=%g, dy=%g)", g.Nx, g.Ny, g.Dx, g.Dy)
	}
	return fmt.Sprintf("%d (dx=%g)", g.Nx, g.Dx)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
