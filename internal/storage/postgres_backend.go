package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"essayproxy-go/internal/migrations"

	pq "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const pgUndefinedTable = "42P01"

// PostgresBackend keeps the index in the rotation_index table, one row per
// key.
type PostgresBackend struct {
	dsn string
	key string
	db  *sql.DB
}

func NewPostgresBackend(dsn, key string) *PostgresBackend {
	return &PostgresBackend{dsn: dsn, key: key}
}

// Initialize opens the pool, pings and applies migrations.
func (p *PostgresBackend) Initialize(ctx context.Context) error {
	if p.db == nil {
		db, err := sql.Open("postgres", p.dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
		p.db = db
	}
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.PostgresUp(p.dsn); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("PostgreSQL index store ready")
	return nil
}

func (p *PostgresBackend) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *PostgresBackend) Health(ctx context.Context) error {
	if p.db == nil {
		return errors.New("postgres index store not initialized")
	}
	return p.db.PingContext(ctx)
}

func (p *PostgresBackend) Get(ctx context.Context) (int, error) {
	if p.db == nil {
		return 0, errors.New("postgres index store not initialized")
	}
	var idx int
	err := p.db.QueryRowContext(ctx, `SELECT idx FROM rotation_index WHERE key = $1`, p.key).Scan(&idx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, wrapPQ("select rotation index", err)
	}
	return idx, nil
}

func (p *PostgresBackend) Set(ctx context.Context, idx int) error {
	if p.db == nil {
		return errors.New("postgres index store not initialized")
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO rotation_index (key, idx, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET idx = EXCLUDED.idx, updated_at = NOW()`, p.key, idx)
	if err != nil {
		return wrapPQ("upsert rotation index", err)
	}
	return nil
}

func wrapPQ(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable {
		return fmt.Errorf("%s: table missing, run `indexutil migrate up`: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
