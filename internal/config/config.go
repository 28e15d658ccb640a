package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pdesim/internal/integrators"
	"github.com/san-kum/pdesim/internal/pde"
)

const (
	DefaultDt        = 1e-4
	DefaultSteps     = 1000
	DefaultPoints    = 128
	DefaultLength    = 10.0
	DefaultAlpha     = 1.0
	DefaultWidth     = 0.5
	DefaultAmplitude = 1.0
)

var (
	Equations  = []string{"heat", "reaction", "burgers"}
	References = []string{"initial", "exact", "none"}
	StoreKinds = []string{"fs", "sqlite"}
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Equation         string            `yaml:"equation"`
	Integrator       string            `yaml:"integrator"`
	Dt               float64           `yaml:"dt"`
	Steps            int               `yaml:"steps"`
	Grid             GridConfig        `yaml:"grid"`
	Coefficients     CoefficientConfig `yaml:"coefficients"`
	InitialCondition InitialConfig     `yaml:"initial_condition"`
	Diagnostics      DiagnosticsConfig `yaml:"diagnostics"`
	Storage          StorageConfig     `yaml:"storage"`
}

type GridConfig struct {
	Dim int     `yaml:"dim"`
	Nx  int     `yaml:"nx"`
	Ny  int     `yaml:"ny,omitempty"`
	Lx  float64 `yaml:"lx"`
	Ly  float64 `yaml:"ly,omitempty"`
}

type CoefficientConfig struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta,omitempty"`
	Nu    float64 `yaml:"nu,omitempty"`
}

type InitialConfig struct {
	Type      string  `yaml:"type"`
	CenterX   float64 `yaml:"center_x"`
	CenterY   float64 `yaml:"center_y,omitempty"`
	Width     float64 `yaml:"width"`
	Amplitude float64 `yaml:"amplitude"`
}

type DiagnosticsConfig struct {
	Track     []string `yaml:"track,omitempty"`
	Reference string   `yaml:"reference"`
}

// StorageConfig selects the run store. An empty Path leaves the choice to
// the caller.
type StorageConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Equation:   "heat",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Grid: GridConfig{
			Dim: 1,
			Nx:  DefaultPoints,
			Lx:  DefaultLength,
		},
		Coefficients: CoefficientConfig{Alpha: DefaultAlpha},
		InitialCondition: InitialConfig{
			Type:      "gaussian",
			Width:     DefaultWidth,
			Amplitude: DefaultAmplitude,
		},
		Diagnostics: DiagnosticsConfig{Reference: "initial"},
		Storage:     StorageConfig{Kind: "fs"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GridSpec builds the grid with spacing L/N along each axis.
func (c *Config) GridSpec() (pde.Grid, error) {
	return pde.GridFromLengths(c.Grid.Dim, c.Grid.Nx, c.Grid.Ny, c.Grid.Lx, c.Grid.Ly)
}

// Validate checks everything that can be checked before a run starts.
func (c *Config) Validate() error {
	if !slices.Contains(Equations, c.Equation) {
		return fmt.Errorf("%w: unknown equation %q (available: %v)", ErrInvalidConfig, c.Equation, Equations)
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}
	if _, err := c.GridSpec(); err != nil {
		return err
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", pde.ErrInvalidStep, c.Dt)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", pde.ErrInvalidStep, c.Steps)
	}
	if c.Diagnostics.Reference != "" && !slices.Contains(References, c.Diagnostics.Reference) {
		return fmt.Errorf("%w: unknown diagnostics reference %q (available: %v)", ErrInvalidConfig, c.Diagnostics.Reference, References)
	}
	if c.Diagnostics.Reference == "exact" && c.Equation != "heat" {
		return fmt.Errorf("%w: exact reference is only available for the heat equation", ErrInvalidConfig)
	}
	if c.Storage.Kind != "" && !slices.Contains(StoreKinds, c.Storage.Kind) {
		return fmt.Errorf("%w: unknown storage kind %q (available: %v)", ErrInvalidConfig, c.Storage.Kind, StoreKinds)
	}
	return nil
}

// Duration is the simulated time span.
func (c *Config) Duration() float64 {
	return float64(c.Steps) * c.Dt
}
