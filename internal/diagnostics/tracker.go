// Package diagnostics computes per-step scalar statistics of a field during
// or after an evolution.
//
// A Tracker is a [pde.Recorder]: pass it to [pde.WithRecorder] and it will
// see the initial condition followed by every post-step state, so record i
// describes history[i]. It never modifies the states it observes.
package diagnostics

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pdesim/internal/pde"
)

// Statistic names.
const (
	Min     = "min"
	Max     = "max"
	Mean    = "mean"
	Mass    = "mass"
	L2Error = "l2_error"
)

var ErrUnknownStatistic = errors.New("diagnostics: unknown statistic")

type statFunc func(tr *Tracker, u pde.State) float64

var statistics = map[string]statFunc{
	Min:  func(_ *Tracker, u pde.State) float64 { return floats.Min(u) },
	Max:  func(_ *Tracker, u pde.State) float64 { return floats.Max(u) },
	Mean: func(_ *Tracker, u pde.State) float64 { return floats.Sum(u) / float64(len(u)) },
	Mass: func(tr *Tracker, u pde.State) float64 { return floats.Sum(u) * tr.dx * tr.dy },
	L2Error: func(tr *Tracker, u pde.State) float64 {
		return floats.Distance(u, tr.reference, 2) * math.Sqrt(tr.dx*tr.dy)
	},
}

// All lists every statistic in output order.
func All() []string {
	return []string{Min, Max, Mean, Mass, L2Error}
}

type Record struct {
	Step   int                `json:"step" yaml:"step"`
	Time   float64            `json:"time" yaml:"time"`
	Values map[string]float64 `json:"values" yaml:"values"`
}

func (r Record) Get(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

type Config struct {
	// Dx is required. Dy defaults to Dx, which is also the right value for
	// 1D grids since mass then reduces to Σu·dx.
	Dx, Dy float64

	// Reference is the field l2_error is measured against. When nil the first
	// tracked state is used.
	Reference pde.State

	// Track selects statistics by name. Empty means all of them.
	Track []string
}

type Tracker struct {
	dx, dy    float64
	reference pde.State
	fixedRef  bool
	track     []string
	records   []Record
}

func New(cfg Config) (*Tracker, error) {
	if !(cfg.Dx > 0) || math.IsInf(cfg.Dx, 0) {
		return nil, fmt.Errorf("%w: dx=%g", pde.ErrMissingSpacing, cfg.Dx)
	}
	dy := cfg.Dy
	if dy == 0 {
		dy = cfg.Dx
	}
	if !(dy > 0) || math.IsInf(dy, 0) {
		return nil, fmt.Errorf("%w: dy=%g", pde.ErrMissingSpacing, dy)
	}

	track := All()
	if len(cfg.Track) > 0 {
		track = make([]string, 0, len(cfg.Track))
		for _, name := range cfg.Track {
			if _, ok := statistics[name]; !ok {
				return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStatistic, name, All())
			}
			if !slices.Contains(track, name) {
				track = append(track, name)
			}
		}
	}

	tr := &Tracker{dx: cfg.Dx, dy: dy, track: track}
	if cfg.Reference != nil {
		tr.reference = cfg.Reference.Clone()
		tr.fixedRef = true
	}
	return tr, nil
}

// Track appends one record for u at time t. On error nothing is appended.
func (tr *Tracker) Track(u pde.State, t float64) error {
	if len(u) == 0 {
		return fmt.Errorf("%w: empty state", pde.ErrShapeMismatch)
	}
	if slices.Contains(tr.track, L2Error) {
		if tr.reference == nil {
			tr.reference = u.Clone()
		}
		if len(tr.reference) != len(u) {
			return fmt.Errorf("%w: state has %d entries, reference has %d", pde.ErrShapeMismatch, len(u), len(tr.reference))
		}
	}

	values := make(map[string]float64, len(tr.track))
	for _, name := range tr.track {
		values[name] = statistics[name](tr, u)
	}
	tr.records = append(tr.records, Record{Step: len(tr.records), Time: t, Values: values})
	return nil
}

// TrackHistory tracks every state of h, with state i at time i·dt.
func (tr *Tracker) TrackHistory(h pde.History, dt float64) error {
	for i, u := range h {
		if err := tr.Track(u, float64(i)*dt); err != nil {
			return &pde.StepError{Step: i, Time: float64(i) * dt, Wrapped: err}
		}
	}
	return nil
}

// Records returns a copy of the records in tracking order.
func (tr *Tracker) Records() []Record {
	out := make([]Record, len(tr.records))
	for i, r := range tr.records {
		values := make(map[string]float64, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		out[i] = Record{Step: r.Step, Time: r.Time, Values: values}
	}
	return out
}

func (tr *Tracker) Len() int { return len(tr.records) }

// Columns returns the tracked statistic names in output order.
func (tr *Tracker) Columns() []string {
	return slices.Clone(tr.track)
}

// Reset drops all records. A reference taken from the first tracked state is
// forgotten too; one passed in Config is kept.
func (tr *Tracker) Reset() {
	tr.records = nil
	if !tr.fixedRef {
		tr.reference = nil
	}
}

// Series extracts one statistic across records, with NaN where it is absent.
func Series(records []Record, name string) (times, values []float64) {
	times = make([]float64, len(records))
	values = make([]float64, len(records))
	for i, r := range records {
		times[i] = r.Time
		v, ok := r.Values[name]
		if !ok {
			v = math.NaN()
		}
		values[i] = v
	}
	return times, values
}
