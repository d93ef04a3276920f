// Package repository persists accounts, decks and the card catalog in Postgres.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cardbattle/battle-server-go/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_name_lower_idx ON accounts (lower(name));

CREATE TABLE IF NOT EXISTS decks (
	account_id BIGINT PRIMARY KEY REFERENCES accounts (id) ON DELETE CASCADE,
	cards      INTEGER[] NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cards (
	id                      INTEGER PRIMARY KEY,
	name                    TEXT NOT NULL,
	kind                    TEXT NOT NULL,
	grade                   TEXT NOT NULL DEFAULT 'COMMON',
	race                    TEXT NOT NULL DEFAULT '',
	attack                  INTEGER NOT NULL DEFAULT 0,
	health                  INTEGER NOT NULL DEFAULT 0,
	archetype               TEXT NOT NULL DEFAULT '',
	alternative_damage      INTEGER NOT NULL DEFAULT -1,
	field_unit_damage       INTEGER NOT NULL DEFAULT -1,
	main_character_damage   INTEGER NOT NULL DEFAULT -1,
	deck_mill_count         INTEGER NOT NULL DEFAULT -1,
	target_count            INTEGER NOT NULL DEFAULT 0,
	sacrifice_eligible      INTEGER[] NOT NULL DEFAULT '{}',
	energy_removal          INTEGER NOT NULL DEFAULT -1,
	health_per_field_energy INTEGER NOT NULL DEFAULT -1
);
`

// DB wraps the connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDB connects to Postgres and verifies the connection.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
	)
	return &DB{Pool: pool, logger: logger}, nil
}

// Migrate creates missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Stats returns pool statistics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}

// Close releases every connection.
func (db *DB) Close() {
	db.Pool.Close()
	db.logger.Info("database connection closed")
}
