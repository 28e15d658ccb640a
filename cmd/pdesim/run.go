package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/san-kum/pdesim/internal/config"
	"github.com/san-kum/pdesim/internal/experiment"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/report"
	"github.com/san-kum/pdesim/internal/spectral"
	"github.com/san-kum/pdesim/internal/storage"
)

func newRunCmd() *cobra.Command {
	var (
		flags      runFlags
		noSave     bool
		profileOpt string
		renderDir  string
		saveConfig string
	)

	cmd := &cobra.Command{
		Use:   "run [equation]",
		Short: "run simulation",
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

			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
				logger.Info("config saved", slog.String("path", saveConfig))
			}

			switch profileOpt {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(dataDir), profile.Quiet).Stop()
			case "mem":
				defer profile.Start(profile.MemProfile, profile.ProfilePath(dataDir), profile.Quiet).Stop()
			default:
				return fmt.Errorf("unknown profile mode: %s (available: cpu, mem)", profileOpt)
			}

			return runSimulation(cmd.Context(), cfg, !noSave, renderDir)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&profileOpt, "profile", "", "write a cpu or mem profile to the data directory")
	cmd.Flags().StringVar(&renderDir, "render", "", "write PNG plots of the run to this directory")
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this path")

	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config, save bool, renderDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	exp, err := experiment.New(cfg, experiment.WithStepHook(progressHook(cfg)))
	if err != nil {
		return err
	}
	warnIfUnstable(exp.Grid(), cfg)
	if !exp.Tracking() {
		logger.Info("diagnostics disabled", slog.String("reference", cfg.Diagnostics.Reference))
	}

	var store storage.Store
	if save {
		store, err = openStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	logger.Info("running",
		slog.String("equation", cfg.Equation),
		slog.String("integrator", cfg.Integrator),
		slog.String("grid", exp.Grid().String()),
		slog.Float64("dt", cfg.Dt),
		slog.Int("steps", cfg.Steps),
	)

	res, err := exp.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logger.Info("simulation complete", slog.Duration("elapsed", res.Summary.Elapsed))

	runID := ""
	if store != nil {
		runID, err = saveRun(ctx, store, cfg, res)
		if err != nil {
			return err
		}
	}

	fmt.Println(report.RunSummary(runID, res.Summary, res.Records))

	if renderDir != "" {
		states := make([][]float64, len(res.History))
		for i, u := range res.History {
			states[i] = u
		}
		if err := renderRun(renderDir, res.Grid, states, res.Records); err != nil {
			return err
		}
		logger.Info("plots written", slog.String("dir", renderDir))
	}
	return nil
}

// saveRun stores res. The store is opened before the run starts so a bad
// data directory fails fast.
func saveRun(ctx context.Context, store storage.Store, cfg *config.Config, res *experiment.Result) (string, error) {
	id, err := store.Save(ctx, storage.NewMetadata(cfg, res), res)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	logger.Info("run saved", slog.String("id", id))
	return id, nil
}

// openStore picks the backend from the --store flag unless the config names
// one explicitly.
func openStore(ctx context.Context, sc config.StorageConfig) (storage.Store, error) {
	kind := storeKind
	if sc.Kind != "" && sc.Kind != "fs" {
		kind = sc.Kind
	}
	path := sc.Path
	if path == "" {
		path = dataDir
		if kind == "sqlite" {
			path = filepath.Join(dataDir, "runs.db")
		}
	}

	store, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", kind, err)
	}
	return store, nil
}

func warnIfUnstable(g pde.Grid, cfg *config.Config) {
	limit, err := spectral.StableDt(g, diffusivity(cfg), cfg.Integrator)
	if err != nil {
		return
	}
	if cfg.Dt > limit {
		logger.Warn("dt exceeds the linear stability limit",
			slog.Float64("dt", cfg.Dt),
			slog.Float64("stable_dt", limit),
			slog.String("integrator", cfg.Integrator),
		)
	}
}

// progressHook logs roughly ten progress lines per run at debug level.
func progressHook(cfg *config.Config) pde.Observer {
	every := cfg.Steps / 10
	if every == 0 {
		every = 1
	}
	step := 0
	return func(u pde.State, t float64) {
		if step%every == 0 {
			logger.Debug("step", slog.Int("step", step), slog.Float64("t", t))
		}
		step++
	}
}

// diffusivity is the coefficient in front of the Laplacian.
func diffusivity(cfg *config.Config) float64 {
	if cfg.Equation == "burgers" {
		return cfg.Coefficients.Nu
	}
	return cfg.Coefficients.Alpha
}
