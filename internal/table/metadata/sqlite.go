package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteFileName is the label cache database created under the config directory.
const SQLiteFileName = "field-labels.db"

// SQLiteStore persists label mappings across invocations.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLiteStore creates or opens the label cache in dir.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dir, SQLiteFileName)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open label cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize label cache: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS field_labels (
		cache_key TEXT PRIMARY KEY,
		labels_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Labels, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT labels_json FROM field_labels WHERE cache_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read labels for %s: %w", key, err)
	}

	var labels Labels
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, false, fmt.Errorf("corrupt labels for %s: %w", key, err)
	}
	return labels, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, labels Labels) error {
	data, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO field_labels (cache_key, labels_json, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(cache_key) DO UPDATE SET labels_json = excluded.labels_json, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to store labels for %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Invalidate(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM field_labels WHERE cache_key = ?`, key)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cache_key, labels_json, updated_at FROM field_labels ORDER BY cache_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rv []Entry
	for rows.Next() {
		var key, raw, updated string
		if err := rows.Scan(&key, &raw, &updated); err != nil {
			return nil, err
		}
		e := Entry{Key: key}
		if err := json.Unmarshal([]byte(raw), &e.Labels); err != nil {
			return nil, fmt.Errorf("corrupt labels for %s: %w", key, err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		rv = append(rv, e)
	}
	return rv, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM field_labels`)
	return err
}
