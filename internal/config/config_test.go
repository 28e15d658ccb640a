package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pdesim/internal/pde"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Equation != "heat" {
		t.Errorf("expected equation heat, got %s", cfg.Equation)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGridSpec(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid = GridConfig{Dim: 2, Nx: 10, Ny: 20, Lx: 5, Ly: 4}

	g, err := cfg.GridSpec()
	if err != nil {
		t.Fatal(err)
	}
	if g.Dx != 0.5 || g.Dy != 0.2 {
		t.Errorf("expected spacing (0.5, 0.2), got (%g, %g)", g.Dx, g.Dy)
	}
	if g.Size() != 200 {
		t.Errorf("expected 200 points, got %d", g.Size())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }, pde.ErrUnsupportedIntegrator},
		{"single point", func(c *Config) { c.Grid.Nx = 1 }, pde.ErrInvalidGrid},
		{"zero length", func(c *Config) { c.Grid.Lx = 0 }, pde.ErrInvalidGrid},
		{"3d", func(c *Config) { c.Grid.Dim = 3 }, pde.ErrInvalidGrid},
		{"2d without ny", func(c *Config) { c.Grid.Dim = 2 }, pde.ErrInvalidGrid},
		{"zero dt", func(c *Config) { c.Dt = 0 }, pde.ErrInvalidStep},
		{"negative steps", func(c *Config) { c.Steps = -1 }, pde.ErrInvalidStep},
		{"unknown equation", func(c *Config) { c.Equation = "wave" }, ErrInvalidConfig},
		{"unknown reference", func(c *Config) { c.Diagnostics.Reference = "analytic" }, ErrInvalidConfig},
		{"exact for burgers", func(c *Config) { c.Equation = "burgers"; c.Diagnostics.Reference = "exact" }, ErrInvalidConfig},
		{"unknown store", func(c *Config) { c.Storage.Kind = "s3" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Integrator = "euler"
	cfg.Grid = GridConfig{Dim: 2, Nx: 16, Ny: 8, Lx: 2, Ly: 1}
	cfg.Diagnostics.Track = []string{"mass", "l2_error"}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Integrator != "euler" || loaded.Grid != cfg.Grid {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.Diagnostics.Track) != 2 {
		t.Errorf("expected 2 tracked statistics, got %v", loaded.Diagnostics.Track)
	}
}

func TestLoad_PartialUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("integrator: euler\nsteps: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Integrator != "euler" || cfg.Steps != 10 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Grid.Nx != DefaultPoints || cfg.Coefficients.Alpha != DefaultAlpha {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("heat", "gaussian")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.InitialCondition.Width != 0.5 {
		t.Errorf("expected width 0.5, got %f", cfg.InitialCondition.Width)
	}

	cfg.Dt = 42
	if Presets["heat"]["gaussian"].Dt == 42 {
		t.Error("GetPreset should return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("heat", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "gaussian")
	if cfg != nil {
		t.Error("expected nil for nonexistent equation")
	}
}

func TestPresetsValidate(t *testing.T) {
	for eq := range Presets {
		for _, name := range ListPresets(eq) {
			if err := GetPreset(eq, name).Validate(); err != nil {
				t.Errorf("preset %s/%s: %v", eq, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("heat")
	want := []string{"gaussian", "plate", "square", "triangle", "unstable"}
	if len(presets) != len(want) {
		t.Fatalf("expected %v, got %v", want, presets)
	}
	for i := range want {
		if presets[i] != want[i] {
			t.Errorf("expected %v, got %v", want, presets)
		}
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent equation")
	}
}
