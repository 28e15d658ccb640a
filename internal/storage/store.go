// Package storage persists finished runs: metadata, the full state history
// and the diagnostics records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/pdesim/internal/config"
	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/experiment"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store interface {
	Init(ctx context.Context) error
	// Save writes a complete run and returns its id. A failed save leaves no
	// trace of the run.
	Save(ctx context.Context, meta RunMetadata, res *experiment.Result) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, id string) (*RunMetadata, error)
	LoadStates(ctx context.Context, id string) (states [][]float64, times []float64, err error)
	LoadRecords(ctx context.Context, id string) (columns []string, records []diagnostics.Record, err error)
	Close() error
}

type GridInfo struct {
	Dim int     `json:"dim"`
	Nx  int     `json:"nx"`
	Ny  int     `json:"ny"`
	Dx  float64 `json:"dx"`
	Dy  float64 `json:"dy,omitempty"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Equation   string             `json:"equation"`
	Integrator string             `json:"integrator"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Duration   float64            `json:"duration"`
	Grid       GridInfo           `json:"grid"`
	Columns    []string           `json:"columns,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Config     *config.Config     `json:"config,omitempty"`
}

// NewMetadata describes res as produced from cfg. The id and timestamp are
// filled in by Save.
func NewMetadata(cfg *config.Config, res *experiment.Result) RunMetadata {
	g := res.Grid
	return RunMetadata{
		Equation:   res.Summary.Equation,
		Integrator: res.Summary.Integrator,
		Dt:         res.Summary.Dt,
		Steps:      res.Summary.Steps,
		Duration:   res.Summary.Duration,
		Grid:       GridInfo{Dim: g.Dim, Nx: g.Nx, Ny: g.Ny, Dx: g.Dx, Dy: g.Dy},
		Columns:    res.Columns,
		Metrics:    res.Summary.Metrics(),
		Config:     cfg,
	}
}

func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "fs":
		return NewFSStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func prepare(meta *RunMetadata, res *experiment.Result) error {
	if res == nil || len(res.History) == 0 {
		return errors.New("storage: empty result")
	}
	if len(res.Times) != len(res.History) {
		return fmt.Errorf("storage: %d times for %d states", len(res.Times), len(res.History))
	}
	if meta.ID == "" {
		meta.ID = newRunID(meta.Equation)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}
	return nil
}

func newRunID(equation string) string {
	if equation == "" {
		equation = "run"
	}
	return fmt.Sprintf("%s_%s", equation, uuid.NewString()[:8])
}
