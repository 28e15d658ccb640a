// Package render draws run results to PNG files with gonum/plot.
package render

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pdesim/internal/pde"
)

const dpi = 150

// Profile plots the initial and final 1D fields against x.
func Profile(path string, x, initial, final []float64) error {
	if len(x) != len(initial) || len(x) != len(final) {
		return fmt.Errorf("render: profile lengths differ: x=%d initial=%d final=%d", len(x), len(initial), len(final))
	}

	p := plot.New()
	p.Title.Text = "Initial vs Final Profile"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "u(x, t)"
	stylePlot(p)
	p.Add(plotter.NewGrid())

	start, err := plotter.NewLine(xys(x, initial))
	if err != nil {
		return fmt.Errorf("render: initial profile: %w", err)
	}
	start.LineStyle.Width = vg.Points(1.5)
	start.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	start.LineStyle.Color = color.RGBA{R: 120, G: 120, B: 140, A: 255}

	end, err := plotter.NewLine(xys(x, final))
	if err != nil {
		return fmt.Errorf("render: final profile: %w", err)
	}
	end.LineStyle.Width = vg.Points(2.5)
	end.LineStyle.Color = color.RGBA{R: 200, G: 60, B: 40, A: 255}

	p.Add(start, end)
	p.Legend.Add("initial", start)
	p.Legend.Add("final", end)
	p.Legend.Top = true

	return savePlotPNG(p, 8, 4, path)
}

// Series plots one scalar against time.
func Series(path, title, ylabel string, t, y []float64) error {
	if len(t) != len(y) {
		return fmt.Errorf("render: series lengths differ: t=%d y=%d", len(t), len(y))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = ylabel
	stylePlot(p)
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys(t, y))
	if err != nil {
		return fmt.Errorf("render: %s: %w", ylabel, err)
	}
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)

	return savePlotPNG(p, 8, 4, path)
}

// Heatmap draws a 2D field flattened as in [pde.Grid.Index].
func Heatmap(path, title string, g pde.Grid, field []float64) error {
	if g.Dim != 2 {
		return fmt.Errorf("%w: heatmap needs a 2D grid, got %s", pde.ErrInvalidGrid, g)
	}
	if len(field) != g.Size() {
		return fmt.Errorf("%w: field has %d entries, grid %s has %d", pde.ErrShapeMismatch, len(field), g, g.Size())
	}
	for _, v := range field {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("render: field contains non-finite values")
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	stylePlot(p)

	pal := moreland.Kindlmann().Palette(255)
	p.Add(plotter.NewHeatMap(gridXYZ{g: g, data: field}, pal))

	return savePlotPNG(p, 7, 6, path)
}

// gridXYZ exposes a flattened field as a plotter.GridXYZ, with coordinates
// spanning [-L/2, L/2) like the initial conditions.
type gridXYZ struct {
	g    pde.Grid
	data []float64
}

func (h gridXYZ) Dims() (c, r int)   { return h.g.Nx, h.g.Ny }
func (h gridXYZ) Z(c, r int) float64 { return h.data[h.g.Index(c, r)] }
func (h gridXYZ) X(c int) float64    { return (float64(c) - float64(h.g.Nx)/2) * h.g.Dx }
func (h gridXYZ) Y(r int) float64    { return (float64(r) - float64(h.g.Ny)/2) * h.g.Dy }

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
}

func savePlotPNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
