package config

import "sort"

var Presets = map[string]map[string]*Config{
	"heat": {
		"gaussian": {
			Equation: "heat", Integrator: "rk4", Dt: 1e-4, Steps: 2000,
			Grid:             GridConfig{Dim: 1, Nx: 128, Lx: 10},
			Coefficients:     CoefficientConfig{Alpha: 1},
			InitialCondition: InitialConfig{Type: "gaussian", Width: 0.5, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "exact"},
		},
		"square": {
			Equation: "heat", Integrator: "rk4", Dt: 1e-4, Steps: 2000,
			Grid:             GridConfig{Dim: 1, Nx: 128, Lx: 10},
			Coefficients:     CoefficientConfig{Alpha: 1},
			InitialCondition: InitialConfig{Type: "square", Width: 2, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "exact"},
		},
		"triangle": {
			Equation: "heat", Integrator: "euler", Dt: 1e-4, Steps: 2000,
			Grid:             GridConfig{Dim: 1, Nx: 128, Lx: 10},
			Coefficients:     CoefficientConfig{Alpha: 1},
			InitialCondition: InitialConfig{Type: "triangle", Width: 2, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "initial"},
		},
		"unstable": {
			Equation: "heat", Integrator: "euler", Dt: 0.6, Steps: 500,
			Grid:             GridConfig{Dim: 1, Nx: 8, Lx: 8},
			Coefficients:     CoefficientConfig{Alpha: 1},
			InitialCondition: InitialConfig{Type: "delta", Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "initial"},
		},
		"plate": {
			Equation: "heat", Integrator: "rk4", Dt: 5e-4, Steps: 400,
			Grid:             GridConfig{Dim: 2, Nx: 64, Ny: 64, Lx: 4, Ly: 4},
			Coefficients:     CoefficientConfig{Alpha: 1},
			InitialCondition: InitialConfig{Type: "gaussian", Width: 0.3, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "exact"},
		},
	},
	"reaction": {
		"gaussian": {
			Equation: "reaction", Integrator: "rk4", Dt: 1e-4, Steps: 2000,
			Grid:             GridConfig{Dim: 1, Nx: 128, Lx: 10},
			Coefficients:     CoefficientConfig{Alpha: 1, Beta: -1},
			InitialCondition: InitialConfig{Type: "gaussian", Width: 0.5, Amplitude: 2},
			Diagnostics:      DiagnosticsConfig{Reference: "initial"},
		},
	},
	"burgers": {
		"sine": {
			Equation: "burgers", Integrator: "rk4", Dt: 1e-3, Steps: 1000,
			Grid:             GridConfig{Dim: 1, Nx: 256, Lx: 6.283185307179586},
			Coefficients:     CoefficientConfig{Alpha: 1, Nu: 0.05},
			InitialCondition: InitialConfig{Type: "sine", Width: 6.283185307179586, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "initial"},
		},
		"shock2d": {
			Equation: "burgers", Integrator: "rk4", Dt: 1e-3, Steps: 500,
			Grid:             GridConfig{Dim: 2, Nx: 64, Ny: 64, Lx: 4, Ly: 4},
			Coefficients:     CoefficientConfig{Alpha: 1, Nu: 0.05},
			InitialCondition: InitialConfig{Type: "gaussian", Width: 0.4, Amplitude: 1},
			Diagnostics:      DiagnosticsConfig{Reference: "initial"},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(equation, preset string) *Config {
	eqPresets, ok := Presets[equation]
	if !ok {
		return nil
	}
	cfg, ok := eqPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.Diagnostics.Track = append([]string(nil), cfg.Diagnostics.Track...)
	if c.Storage.Kind == "" {
		c.Storage = DefaultConfig().Storage
	}
	return &c
}

func ListPresets(equation string) []string {
	eqPresets, ok := Presets[equation]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(eqPresets))
	for name := range eqPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
