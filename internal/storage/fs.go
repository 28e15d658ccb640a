package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/experiment"
)

const (
	metadataFile     = "metadata.json"
	statesFile       = "states.csv"
	diagnosticsCSV   = "diagnostics.csv"
	diagnosticsYAML  = "diagnostics.yaml"
	tempDirPrefix    = ".run-"
	statesTimeHeader = "time"
)

// FSStore keeps one directory per run under baseDir.
type FSStore struct {
	baseDir string
}

func NewFSStore(baseDir string) *FSStore {
	return &FSStore{baseDir: baseDir}
}

func (s *FSStore) Init(context.Context) error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FSStore) Close() error { return nil }

// Save writes the run into a temporary directory and renames it into place.
func (s *FSStore) Save(ctx context.Context, meta RunMetadata, res *experiment.Result) (string, error) {
	if err := prepare(&meta, res); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(s.baseDir, tempDirPrefix)
	if err != nil {
		return "", err
	}
	if err := s.writeRun(ctx, tmp, meta, res); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	if err := os.Rename(tmp, filepath.Join(s.baseDir, meta.ID)); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}
	return meta.ID, nil
}

func (s *FSStore) writeRun(ctx context.Context, dir string, meta RunMetadata, res *experiment.Result) error {
	if err := writeFile(filepath.Join(dir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, statesFile), func(f *os.File) error {
		return writeStates(f, res)
	}); err != nil {
		return err
	}

	if len(res.Records) == 0 {
		return nil
	}
	if err := writeFile(filepath.Join(dir, diagnosticsCSV), func(f *os.File) error {
		return diagnostics.WriteRecords(f, diagnostics.FormatCSV, res.Columns, res.Records)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, diagnosticsYAML), func(f *os.File) error {
		return diagnostics.WriteRecords(f, diagnostics.FormatYAML, res.Columns, res.Records)
	})
}

func writeFile(path string, fn func(*os.File) error) error {
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

func writeStates(f *os.File, res *experiment.Result) error {
	w := csv.NewWriter(f)

	header := []string{statesTimeHeader}
	for i := range res.History[0] {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, u := range res.History {
		if len(u) != len(header)-1 {
			return fmt.Errorf("storage: state %d has %d entries, expected %d", i, len(u), len(header)-1)
		}
		row[0] = strconv.FormatFloat(res.Times[i], 'g', -1, 64)
		for j, v := range u {
			row[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every complete run, oldest first.
func (s *FSStore) List(context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		meta, err := s.readMetadata(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *FSStore) Load(_ context.Context, id string) (*RunMetadata, error) {
	return s.readMetadata(id)
}

func (s *FSStore) readMetadata(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode metadata %s: %w", id, err)
	}
	return &meta, nil
}

func (s *FSStore) LoadStates(_ context.Context, id string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, statesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, nil, err
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(rows) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(rows)-1)
	states := make([][]float64, 0, len(rows)-1)

	for i, row := range rows[1:] {
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s row %d: %w", statesFile, i+1, err)
		}
		times = append(times, t)

		state := make([]float64, len(row)-1)
		for j, cell := range row[1:] {
			state[j], err = strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s row %d: %w", statesFile, i+1, err)
			}
		}
		states = append(states, state)
	}

	return states, times, nil
}

// LoadRecords returns no records for a run saved without diagnostics.
func (s *FSStore) LoadRecords(_ context.Context, id string) ([]string, []diagnostics.Record, error) {
	if _, err := s.readMetadata(id); err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, diagnosticsCSV))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, []diagnostics.Record{}, nil
		}
		return nil, nil, err
	}
	defer file.Close()

	return diagnostics.ReadCSV(file)
}
