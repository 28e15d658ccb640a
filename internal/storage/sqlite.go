package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pdesim/internal/diagnostics"
	"github.com/san-kum/pdesim/internal/experiment"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps runs in a single database file. States are stored as
// little-endian float64 blobs and record values as YAML, both of which
// round-trip NaN and Inf.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, meta RunMetadata, res *experiment.Result) (string, error) {
	db, err := s.getDB()
	if err != nil {
		return "", err
	}
	if err := prepare(&meta, res); err != nil {
		return "", err
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, equation, integrator, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, meta.ID, meta.Timestamp.UnixNano(), meta.Equation, meta.Integrator, payload); err != nil {
		return "", err
	}

	stateStmt, err := tx.PrepareContext(ctx, `INSERT INTO states (run_id, step, time, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stateStmt.Close()

	size := len(res.History[0])
	for i, u := range res.History {
		if len(u) != size {
			return "", fmt.Errorf("storage: state %d has %d entries, expected %d", i, len(u), size)
		}
		if _, err := stateStmt.ExecContext(ctx, meta.ID, i, res.Times[i], encodeState(u)); err != nil {
			return "", err
		}
	}

	recordStmt, err := tx.PrepareContext(ctx, `INSERT INTO records (run_id, step, time, payload) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer recordStmt.Close()

	for _, r := range res.Records {
		values, err := yaml.Marshal(r.Values)
		if err != nil {
			return "", err
		}
		if _, err := recordStmt.ExecContext(ctx, meta.ID, r.Step, r.Time, values); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, metadata FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", id, err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT metadata FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadStates(ctx context.Context, id string) ([][]float64, []float64, error) {
	if _, err := s.Load(ctx, id); err != nil {
		return nil, nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT time, payload FROM states WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	states := make([][]float64, 0)
	times := make([]float64, 0)
	for rows.Next() {
		var t float64
		var payload []byte
		if err := rows.Scan(&t, &payload); err != nil {
			return nil, nil, err
		}
		u, err := decodeState(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("decode state of %s: %w", id, err)
		}
		states = append(states, u)
		times = append(times, t)
	}
	return states, times, rows.Err()
}

func (s *SQLiteStore) LoadRecords(ctx context.Context, id string) ([]string, []diagnostics.Record, error) {
	meta, err := s.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	db, err := s.getDB()
	if err != nil {
		return nil, nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT step, time, payload FROM records WHERE run_id = ? ORDER BY step`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := make([]diagnostics.Record, 0)
	for rows.Next() {
		var r diagnostics.Record
		var payload []byte
		if err := rows.Scan(&r.Step, &r.Time, &payload); err != nil {
			return nil, nil, err
		}
		if err := yaml.Unmarshal(payload, &r.Values); err != nil {
			return nil, nil, fmt.Errorf("decode record %d of %s: %w", r.Step, id, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, records, nil
	}
	return meta.Columns, records, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			equation TEXT NOT NULL,
			integrator TEXT NOT NULL,
			metadata BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS states (
			run_id TEXT NOT NULL REFERENCES runs(id),
			step INTEGER NOT NULL,
			time REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, step)
		);
		CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(id),
			step INTEGER NOT NULL,
			time REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, step)
		);
	`)
	return err
}

func encodeState(u []float64) []byte {
	buf := make([]byte, 8*len(u))
	for i, v := range u {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeState(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 8", len(buf))
	}
	u := make([]float64, len(buf)/8)
	for i := range u {
		u[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return u, nil
}
