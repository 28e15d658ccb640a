package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/pdesim/internal/config"
)

// runFlags are the configuration overrides shared by run, compare and
// stability. Each one only applies when set on the command line.
type runFlags struct {
	configFile string
	preset     string

	integrator string
	dt         float64
	steps      int

	dim    int
	nx, ny int
	lx, ly float64

	alpha, beta, nu float64

	ic        string
	centerX   float64
	centerY   float64
	width     float64
	amplitude float64

	reference string
	track     []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	def := config.DefaultConfig()
	fs := cmd.Flags()

	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")

	fs.StringVar(&f.integrator, "integrator", def.Integrator, "time integrator (euler, rk4)")
	fs.Float64Var(&f.dt, "dt", def.Dt, "time step")
	fs.IntVar(&f.steps, "steps", def.Steps, "number of steps")

	fs.IntVar(&f.dim, "dim", def.Grid.Dim, "grid dimension (1, 2)")
	fs.IntVar(&f.nx, "nx", def.Grid.Nx, "points along x")
	fs.IntVar(&f.ny, "ny", def.Grid.Nx, "points along y (2D)")
	fs.Float64Var(&f.lx, "lx", def.Grid.Lx, "domain length along x")
	fs.Float64Var(&f.ly, "ly", def.Grid.Lx, "domain length along y (2D)")

	fs.Float64Var(&f.alpha, "alpha", def.Coefficients.Alpha, "diffusivity")
	fs.Float64Var(&f.beta, "beta", 0, "cubic reaction coefficient (reaction)")
	fs.Float64Var(&f.nu, "nu", 0, "viscosity (burgers)")

	fs.StringVar(&f.ic, "ic", def.InitialCondition.Type, "initial condition (gaussian, square, triangle, sine, delta)")
	fs.Float64Var(&f.centerX, "center-x", 0, "initial condition center along x")
	fs.Float64Var(&f.centerY, "center-y", 0, "initial condition center along y")
	fs.Float64Var(&f.width, "width", def.InitialCondition.Width, "initial condition width")
	fs.Float64Var(&f.amplitude, "amplitude", def.InitialCondition.Amplitude, "initial condition amplitude")

	fs.StringVar(&f.reference, "reference", def.Diagnostics.Reference, "l2 reference (initial, exact, none)")
	fs.StringSliceVar(&f.track, "track", nil, "diagnostics to track (default all)")
}

// resolve layers defaults, preset, config file and explicit flags, in that
// order.
func (f *runFlags) resolve(cmd *cobra.Command, equation string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		eq := equation
		if eq == "" {
			eq = cfg.Equation
		}
		p := config.GetPreset(eq, f.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", f.preset, eq, config.ListPresets(eq))
		}
		cfg = p
	}

	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if equation != "" {
		cfg.Equation = equation
	}

	changed := cmd.Flags().Changed
	if changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if changed("dt") {
		cfg.Dt = f.dt
	}
	if changed("steps") {
		cfg.Steps = f.steps
	}
	if changed("dim") {
		cfg.Grid.Dim = f.dim
	}
	if changed("nx") {
		cfg.Grid.Nx = f.nx
	}
	if changed("ny") {
		cfg.Grid.Ny = f.ny
	}
	if changed("lx") {
		cfg.Grid.Lx = f.lx
	}
	if changed("ly") {
		cfg.Grid.Ly = f.ly
	}
	if cfg.Grid.Dim == 2 {
		if cfg.Grid.Ny == 0 {
			cfg.Grid.Ny = cfg.Grid.Nx
		}
		if cfg.Grid.Ly == 0 {
			cfg.Grid.Ly = cfg.Grid.Lx
		}
	}
	if changed("alpha") {
		cfg.Coefficients.Alpha = f.alpha
	}
	if changed("beta") {
		cfg.Coefficients.Beta = f.beta
	}
	if changed("nu") {
		cfg.Coefficients.Nu = f.nu
	}
	if changed("ic") {
		cfg.InitialCondition.Type = f.ic
	}
	if changed("center-x") {
		cfg.InitialCondition.CenterX = f.centerX
	}
	if changed("center-y") {
		cfg.InitialCondition.CenterY = f.centerY
	}
	if changed("width") {
		cfg.InitialCondition.Width = f.width
	}
	if changed("amplitude") {
		cfg.InitialCondition.Amplitude = f.amplitude
	}
	if changed("reference") {
		cfg.Diagnostics.Reference = f.reference
	}
	if changed("track") {
		cfg.Diagnostics.Track = f.track
	}
	return cfg, nil
}
