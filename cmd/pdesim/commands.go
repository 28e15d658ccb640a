package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/pdesim/internal/config"
	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/experiment"
	"github.com/san-kum/pdesim/internal/initial"
	"github.com/san-kum/pdesim/internal/integrators"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/render"
	"github.com/san-kum/pdesim/internal/report"
	"github.com/san-kum/pdesim/internal/spectral"
	"github.com/san-kum/pdesim/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEQUATION\tINTEGRATOR\tGRID\tDT\tSTEPS\tTIMESTAMP")
			for _, r := range runs {
				grid := fmt.Sprintf("%dD %d", r.Grid.Dim, r.Grid.Nx)
				if r.Grid.Dim == 2 {
					grid = fmt.Sprintf("2D %dx%d", r.Grid.Nx, r.Grid.Ny)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
					r.ID, r.Equation, r.Integrator, grid, r.Dt, r.Steps,
					r.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var (
		stat     string
		field    bool
		spectrum bool
	)

	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			runID := args[0]
			if field || spectrum {
				final, err := loadFinalState(ctx, store, runID)
				if err != nil {
					return err
				}
				if spectrum {
					plotSeries(spectral.PowerSpectrum(final), "power spectrum of final state (by wavenumber)")
				} else {
					plotSeries(final, "final state (flattened)")
				}
				return nil
			}

			_, records, err := store.LoadRecords(ctx, runID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("run %s has no diagnostics records", runID)
			}
			_, values := diagnostics.Series(records, stat)
			plotSeries(values, fmt.Sprintf("%s vs step", stat))
			return nil
		},
	}

	cmd.Flags().StringVar(&stat, "stat", diagnostics.Mass, "diagnostic to plot")
	cmd.Flags().BoolVar(&field, "field", false, "plot the final state instead of a diagnostic")
	cmd.Flags().BoolVar(&spectrum, "spectrum", false, "plot the power spectrum of the final state")
	return cmd
}

func loadFinalState(ctx context.Context, store storage.Store, runID string) ([]float64, error) {
	states, _, err := store.LoadStates(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("run %s has no stored states", runID)
	}
	return states[len(states)-1], nil
}

// plotSeries draws data with asciigraph. Non-finite points are dropped
// since the chart cannot place them.
func plotSeries(data []float64, caption string) {
	finite := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		fmt.Println("nothing to plot: no finite values")
		return
	}
	if len(finite) < len(data) {
		logger.Warn("dropped non-finite points", slog.Int("dropped", len(data)-len(finite)))
	}

	graph := asciigraph.Plot(finite,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
}

func newExportCSVCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the state history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			states, times, err := store.LoadStates(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(out, func(f *os.File) error {
				return storage.ExportCSV(f, states, times)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and state history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			meta, err := store.Load(ctx, args[0])
			if err != nil {
				return err
			}
			states, times, err := store.LoadStates(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(out, func(f *os.File) error {
				return storage.ExportJSON(f, *meta, states, times)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newDiagnosticsCmd() *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "diagnostics [run_id]",
		Short: "print the diagnostics records of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := diagnostics.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			columns, records, err := store.LoadRecords(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(out, func(w *os.File) error {
				return diagnostics.WriteRecords(w, f, columns, records)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, yaml, json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "compare [equation] [integrators...]",
		Short: "run one configuration under several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd, args[0])
			if err != nil {
				return err
			}
			g, err := cfg.GridSpec()
			if err != nil {
				return err
			}
			names := args[1:]
			if len(names) == 0 {
				names = integrators.Names()
			}
			for _, name := range names {
				if limit, err := spectral.StableDt(g, diffusivity(cfg), name); err == nil && cfg.Dt > limit {
					logger.Warn("dt exceeds the linear stability limit",
						slog.String("integrator", name),
						slog.Float64("dt", cfg.Dt),
						slog.Float64("stable_dt", limit),
					)
				}
			}

			results, err := experiment.Compare(cmd.Context(), cfg, names)
			if err != nil {
				return err
			}
			summaries := make([]experiment.Summary, len(results))
			for i, r := range results {
				summaries[i] = r.Summary
			}
			fmt.Println(report.CompareTable(summaries))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [equation]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equations := experiment.NewRegistry().ListEquations()
			if len(args) == 1 {
				equations = []string{args[0]}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EQUATION\tPRESET\tINTEGRATOR\tGRID\tDT\tSTEPS\tIC")
			for _, eq := range equations {
				for _, name := range config.ListPresets(eq) {
					p := config.GetPreset(eq, name)
					grid := fmt.Sprintf("%dD %d", p.Grid.Dim, p.Grid.Nx)
					if p.Grid.Dim == 2 {
						grid = fmt.Sprintf("2D %dx%d", p.Grid.Nx, p.Grid.Ny)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
						eq, name, p.Integrator, grid, p.Dt, p.Steps, p.InitialCondition.Type)
				}
			}
			return w.Flush()
		},
	}
}

func newRenderCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "write PNG plots of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, config.StorageConfig{})
			if err != nil {
				return err
			}
			defer store.Close()

			runID := args[0]
			meta, err := store.Load(ctx, runID)
			if err != nil {
				return err
			}
			states, _, err := store.LoadStates(ctx, runID)
			if err != nil {
				return err
			}
			_, records, err := store.LoadRecords(ctx, runID)
			if err != nil {
				return err
			}

			dir := out
			if dir == "" {
				dir = filepath.Join(dataDir, "plots", runID)
			}
			g := pde.Grid{Dim: meta.Grid.Dim, Nx: meta.Grid.Nx, Ny: meta.Grid.Ny, Dx: meta.Grid.Dx, Dy: meta.Grid.Dy}
			if err := renderRun(dir, g, states, records); err != nil {
				return err
			}
			fmt.Printf("plots written to %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default <data>/plots/<run_id>)")
	return cmd
}

// renderRun writes the final field plot plus one time series per tracked
// statistic. Series with non-finite values are skipped.
func renderRun(dir string, g pde.Grid, states [][]float64, records []diagnostics.Record) error {
	if len(states) == 0 {
		return fmt.Errorf("no states to render")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	first, final := states[0], states[len(states)-1]
	if g.Dim == 2 {
		if err := render.Heatmap(filepath.Join(dir, "initial.png"), "Initial field", g, first); err != nil {
			return err
		}
		if err := render.Heatmap(filepath.Join(dir, "final.png"), "Final field", g, final); err != nil {
			logger.Warn("skipping final heatmap", slog.String("error", err.Error()))
		}
	} else {
		x := initial.Coordinates(g.Nx, float64(g.Nx)*g.Dx)
		if err := render.Profile(filepath.Join(dir, "profile.png"), x, first, final); err != nil {
			logger.Warn("skipping profile plot", slog.String("error", err.Error()))
		}
	}

	for _, name := range diagnostics.All() {
		t, y := diagnostics.Series(records, name)
		if !allFinite(y) {
			continue
		}
		path := filepath.Join(dir, strings.ReplaceAll(name, "_", "-")+".png")
		if err := render.Series(path, name+" vs time", name, t, y); err != nil {
			return err
		}
	}
	return nil
}

func allFinite(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func newStabilityCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "stability [equation]",
		Short: "show the largest stable dt per integrator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equation := ""
			if len(args) == 1 {
				equation = args[0]
			}
			cfg, err := flags.resolve(cmd, equation)
			if err != nil {
				return err
			}
			g, err := cfg.GridSpec()
			if err != nil {
				return err
			}

			fmt.Printf("grid %s, diffusivity %g, spectral radius %g\n\n", g, diffusivity(cfg), spectral.SpectralRadius(g))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTEGRATOR\tSTABLE DT\tCONFIGURED DT\tSTATUS")
			for _, name := range integrators.Names() {
				limit, err := spectral.StableDt(g, diffusivity(cfg), name)
				if err != nil {
					return err
				}
				status := "stable"
				if cfg.Dt > limit {
					status = "unstable"
				}
				fmt.Fprintf(w, "%s\t%g\t%g\t%s\n", name, limit, cfg.Dt, status)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}

func writeOutput(path string, fn func(*os.File) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
