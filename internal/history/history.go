package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500

	StatusOK    = "ok"
	StatusError = "error"
)

// Record is one completed invocation.
type Record struct {
	RequestID  string    `json:"request_id"`
	Timestamp  time.Time `json:"ts"`
	Selector   string    `json:"selector"`
	Model      string    `json:"model"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Store persists invocation records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// SQLiteStore keeps records in an append-only SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS invocations(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		ts INTEGER,
		selector TEXT,
		model TEXT,
		prompt TEXT,
		response TEXT,
		status TEXT,
		error TEXT,
		duration_ms INTEGER
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create invocations table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO invocations(
		request_id, ts, selector, model, prompt, response, status, error, duration_ms)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		rec.RequestID, rec.Timestamp.UnixNano(), rec.Selector, rec.Model, rec.Prompt, rec.Response,
		rec.Status, rec.Error, rec.DurationMs)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	limit = ClampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `SELECT request_id, ts, selector, model, prompt, response, status, error, duration_ms
		FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&rec.RequestID, &ts, &rec.Selector, &rec.Model, &rec.Prompt, &rec.Response,
			&rec.Status, &rec.Error, &rec.DurationMs); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Nop is the Store used when history is disabled.
type Nop struct{}

func (Nop) Append(context.Context, Record) error { return nil }

func (Nop) Recent(context.Context, int) ([]Record, error) { return []Record{}, nil }

func (Nop) Close() error { return nil }

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
