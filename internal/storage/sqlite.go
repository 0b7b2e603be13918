package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"financeflow/internal/log"
)

// SQLite stores the snapshot record in a single-file database.
type SQLite struct {
	db  *sql.DB
	key string
}

// NewSQLite opens (creating if needed) the database at dbPath and applies the
// schema migrations.
func NewSQLite(dbPath, key string) (*SQLite, error) {
	if key == "" {
		key = DefaultKey
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the store already serializes mutations.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, key: key}, nil
}

func (s *SQLite) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE key = ?`, s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}
	return body, nil
}

func (s *SQLite) Write(ctx context.Context, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.key, body)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	logger().DebugContext(ctx, "Snapshot written to SQLite", log.FieldKey, s.key, "bytes", len(body))
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("clear snapshot %q: %w", s.key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
