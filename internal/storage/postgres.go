package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"financeflow/internal/log"
)

// Postgres stores the snapshot record in a shared Postgres database, so the
// API server and the mirror worker can run on different hosts.
type Postgres struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgres migrates the schema and opens a connection pool.
func NewPostgres(ctx context.Context, databaseURL, key string) (*Postgres, error) {
	if key == "" {
		key = DefaultKey
	}
	if err := RunPostgresMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool, key: key}, nil
}

func (p *Postgres) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, `SELECT body FROM snapshots WHERE key = $1`, p.key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", p.key, err)
	}
	return body, nil
}

func (p *Postgres) Write(ctx context.Context, body []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO snapshots (key, body, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		p.key, body)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", p.key, err)
	}
	logger().DebugContext(ctx, "Snapshot written to Postgres", log.FieldKey, p.key, "bytes", len(body))
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM snapshots WHERE key = $1`, p.key); err != nil {
		return fmt.Errorf("clear snapshot %q: %w", p.key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
