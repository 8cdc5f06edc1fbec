package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// DB is the SQLite-backed run history: one row per fitting run plus an
// append-only event log per run.
type DB struct {
	db   *sql.DB
	path string
}

// OpenDB opens (or creates) the history database under dir.
func OpenDB(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Single connection for writes, WAL allows concurrent reads
	db.SetMaxOpenConns(2)

	s := &DB{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *DB) migrate() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		problem      TEXT NOT NULL,
		procedure    TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'running',
		error_kind   TEXT,
		error_text   TEXT,
		chi_squared  REAL,
		created_at   TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);

	CREATE TABLE IF NOT EXISTS run_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		kind       TEXT NOT NULL,
		data       TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_events_kind ON run_events(kind);

	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// --- Run operations ---

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID          string  `json:"id"`
	Problem     string  `json:"problem"`
	Procedure   string  `json:"procedure"`
	Status      string  `json:"status"`
	ErrorKind   *string `json:"error_kind,omitempty"`
	ErrorText   *string `json:"error_text,omitempty"`
	ChiSquared  *float64 `json:"chi_squared,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

func (s *DB) CreateRun(id, problem, procedure string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO runs (id, problem, procedure, status, created_at) VALUES (?, ?, ?, 'running', ?)`,
		id, problem, procedure, now,
	)
	return err
}

// CompleteRun finalizes a run row. errKind and errText may be empty for
// finished or interrupted runs; chi is stored only when non-nil.
func (s *DB) CompleteRun(id, status, errKind, errText string, chi *float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, error_kind = NULLIF(?, ''), error_text = NULLIF(?, ''), chi_squared = ?, completed_at = ? WHERE id = ?`,
		status, errKind, errText, chi, now, id,
	)
	return err
}

func (s *DB) GetRun(id string) (*RunInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, problem, procedure, status, error_kind, error_text, chi_squared, created_at, completed_at
		 FROM runs WHERE id = ?`, id)
	var ri RunInfo
	if err := row.Scan(&ri.ID, &ri.Problem, &ri.Procedure, &ri.Status, &ri.ErrorKind, &ri.ErrorText, &ri.ChiSquared, &ri.CreatedAt, &ri.CompletedAt); err != nil {
		return nil, err
	}
	return &ri, nil
}

func (s *DB) LatestRun() (*RunInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, problem, procedure, status, error_kind, error_text, chi_squared, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT 1`)
	var ri RunInfo
	if err := row.Scan(&ri.ID, &ri.Problem, &ri.Procedure, &ri.Status, &ri.ErrorKind, &ri.ErrorText, &ri.ChiSquared, &ri.CreatedAt, &ri.CompletedAt); err != nil {
		return nil, err
	}
	return &ri, nil
}

func (s *DB) GetRuns(limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, problem, procedure, status, error_kind, error_text, chi_squared, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []RunInfo
	for rows.Next() {
		var ri RunInfo
		if err := rows.Scan(&ri.ID, &ri.Problem, &ri.Procedure, &ri.Status, &ri.ErrorKind, &ri.ErrorText, &ri.ChiSquared, &ri.CreatedAt, &ri.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, ri)
	}
	return runs, rows.Err()
}

// --- Event log (append-only) ---

func (s *DB) AppendEvent(runID, kind string, data interface{}) (int64, error) {
	var dataStr string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return 0, err
		}
		dataStr = string(b)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	result, err := s.db.Exec(
		`INSERT INTO run_events (run_id, kind, data, created_at) VALUES (?, ?, ?, ?)`,
		runID, kind, dataStr, now,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *DB) EventCount(runID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM run_events WHERE run_id = ?`, runID).Scan(&count)
	return count, err
}

// EventRow is one row of the run_events table.
type EventRow struct {
	ID        int64  `json:"id"`
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Data      string `json:"data"`
	CreatedAt string `json:"created_at"`
}

func (s *DB) GetEvents(runID string, limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, kind, data, created_at FROM run_events
		 WHERE run_id = ? ORDER BY id LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []EventRow
	for rows.Next() {
		var ev EventRow
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.Kind, &ev.Data, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- KV (general purpose) ---

func (s *DB) SetKV(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (s *DB) GetKV(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	return value, err
}

// --- Lifecycle ---

func (s *DB) Close() error {
	return s.db.Close()
}
