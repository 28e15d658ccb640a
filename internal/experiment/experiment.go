// Package experiment wires a configuration into a ready-to-run system: grid,
// operator, RHS, stepper, initial state and diagnostics tracker. Every
// configuration error surfaces from New, before any step is taken.
package experiment

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pdesim/internal/config"
	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/initial"
	"github.com/san-kum/pdesim/internal/laplacian"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/spectral"
)

type Experiment struct {
	cfg     config.Config
	grid    pde.Grid
	stepper pde.Stepper
	rhs     pde.RHSFunc
	u0      pde.State
	tracker *diagnostics.Tracker
	hook    pde.Observer
}

type Option func(*Experiment)

// WithStepHook installs an observer that sees each pre-step state.
func WithStepHook(h pde.Observer) Option {
	return func(e *Experiment) { e.hook = h }
}

func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	return NewWithRegistry(NewRegistry(), cfg, opts...)
}

func NewWithRegistry(reg *Registry, cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := cfg.GridSpec()
	if err != nil {
		return nil, err
	}
	lap, err := laplacian.Laplacian(g)
	if err != nil {
		return nil, err
	}
	build, err := reg.GetEquation(cfg.Equation)
	if err != nil {
		return nil, err
	}
	f, err := build(g, lap, cfg.Coefficients)
	if err != nil {
		return nil, err
	}
	stepper, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	ic := cfg.InitialCondition
	u0, err := initial.Evaluate(g, initial.Spec{
		Type:      ic.Type,
		CenterX:   ic.CenterX,
		CenterY:   ic.CenterY,
		Width:     ic.Width,
		Amplitude: ic.Amplitude,
	})
	if err != nil {
		return nil, err
	}

	e := &Experiment{cfg: *cfg, grid: g, stepper: stepper, rhs: f, u0: u0}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.Diagnostics.Reference != "none" {
		ref, err := e.reference()
		if err != nil {
			return nil, err
		}
		e.tracker, err = diagnostics.New(diagnostics.Config{
			Dx:        g.Dx,
			Dy:        g.Dy,
			Reference: ref,
			Track:     cfg.Diagnostics.Track,
		})
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// reference picks the l2_error reference. "exact" compares against the
// semi-discrete heat solution at the final time, so only the last record's
// l2_error measures the integration error.
func (e *Experiment) reference() (pde.State, error) {
	switch e.cfg.Diagnostics.Reference {
	case "exact":
		return spectral.HeatSolution(e.grid, e.u0, e.cfg.Coefficients.Alpha, e.cfg.Duration())
	default:
		return e.u0.Clone(), nil
	}
}

func (e *Experiment) Grid() pde.Grid { return e.grid }

// Tracking reports whether runs record diagnostics.
func (e *Experiment) Tracking() bool { return e.tracker != nil }

type Result struct {
	Grid    pde.Grid
	History pde.History
	Times   []float64
	Columns []string
	Records []diagnostics.Record
	Summary Summary
}

type Summary struct {
	Equation    string
	Integrator  string
	Grid        string
	Steps       int
	Dt          float64
	Duration    float64
	StableDt    float64
	InitialMass float64
	FinalMass   float64
	MassDrift   float64
	FinalMin    float64
	FinalMax    float64
	FinalL2     float64
	Finite      bool
	Elapsed     time.Duration
}

// Run evolves the configured system. Each call starts from a fresh tracker.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	opts := []pde.Option{}
	if e.hook != nil {
		opts = append(opts, pde.WithStepHook(e.hook))
	}
	if e.tracker != nil {
		e.tracker.Reset()
		opts = append(opts, pde.WithRecorder(e.tracker))
	}

	sys, err := pde.New(e.rhs, e.stepper, e.grid.Size(), opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	history, err := sys.EvolveContext(ctx, e.u0, e.cfg.Dt, e.cfg.Steps)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	times := make([]float64, len(history))
	for i := range times {
		times[i] = float64(i) * e.cfg.Dt
	}

	res := &Result{Grid: e.grid, History: history, Times: times}
	if e.tracker != nil {
		res.Columns = e.tracker.Columns()
		res.Records = e.tracker.Records()
	}
	res.Summary = e.summarize(history, res.Records, elapsed)
	return res, nil
}

func (e *Experiment) summarize(h pde.History, records []diagnostics.Record, elapsed time.Duration) Summary {
	final := h.Final()
	s := Summary{
		Equation:    e.cfg.Equation,
		Integrator:  e.stepper.Name(),
		Grid:        e.grid.String(),
		Steps:       e.cfg.Steps,
		Dt:          e.cfg.Dt,
		Duration:    e.cfg.Duration(),
		InitialMass: e.mass(h[0]),
		FinalMass:   e.mass(final),
		FinalMin:    floats.Min(final),
		FinalMax:    floats.Max(final),
		Finite:      final.IsValid(),
		FinalL2:     math.NaN(),
		Elapsed:     elapsed,
	}
	s.MassDrift = math.Abs(s.FinalMass - s.InitialMass)
	if s.InitialMass != 0 {
		s.MassDrift /= math.Abs(s.InitialMass)
	}
	if len(records) > 0 {
		if v, ok := records[len(records)-1].Get(diagnostics.L2Error); ok {
			s.FinalL2 = v
		}
	}
	if dt, err := spectral.StableDt(e.grid, e.diffusivity(), s.Integrator); err == nil {
		s.StableDt = dt
	}
	return s
}

// diffusivity is the coefficient in front of the Laplacian.
func (e *Experiment) diffusivity() float64 {
	if e.cfg.Equation == "burgers" {
		return e.cfg.Coefficients.Nu
	}
	return e.cfg.Coefficients.Alpha
}

// mass follows the tracker's convention: dy defaults to dx.
func (e *Experiment) mass(u pde.State) float64 {
	dy := e.grid.Dy
	if dy == 0 {
		dy = e.grid.Dx
	}
	return floats.Sum(u) * e.grid.Dx * dy
}

// Metrics flattens the numeric fields of s, dropping non-finite values.
func (s Summary) Metrics() map[string]float64 {
	m := make(map[string]float64)
	put := func(k string, v float64) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			m[k] = v
		}
	}
	put("stable_dt", s.StableDt)
	put("initial_mass", s.InitialMass)
	put("final_mass", s.FinalMass)
	put("mass_drift", s.MassDrift)
	put("final_min", s.FinalMin)
	put("final_max", s.FinalMax)
	put("final_l2_error", s.FinalL2)
	put("elapsed_seconds", s.Elapsed.Seconds())
	return m
}
