package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
)

const postgresDriver = "pgx"

// sqlOpen is swapped in tests.
var sqlOpen = sql.Open

// PostgresStore keeps the save as one row of a Postgres table.
type PostgresStore struct {
	db  *sql.DB
	key string
}

// NewPostgresStore connects and ensures the saves table exists.
func NewPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sqlOpen(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS tycoon_saves (
		key        TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure saves table: %w", err)
	}
	return &PostgresStore{db: db, key: key}, nil
}

func (p *PostgresStore) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM tycoon_saves WHERE key = $1`, p.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select save: %w", err)
	}
	return payload, true, nil
}

func (p *PostgresStore) Save(ctx context.Context, data []byte) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO tycoon_saves (key, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`, p.key, data)
	if err != nil {
		return fmt.Errorf("upsert save: %w", err)
	}
	return nil
}

func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM tycoon_saves WHERE key = $1`, p.key); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error   { return p.db.Close() }
func (p *PostgresStore) Driver() Driver { return DriverPostgres }
