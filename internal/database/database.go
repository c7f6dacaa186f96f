// Package database provides the pooled Postgres connection and its
// surrounding helpers (slow-query logging, transaction wrapper).
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paiban/storeroster/internal/config"
	"github.com/paiban/storeroster/pkg/logger"

	_ "github.com/lib/pq"
)

// DB wraps a pooled *sql.DB with slow-query logging and a transaction
// helper.
type DB struct {
	*sql.DB
	cfg *config.DatabaseConfig
}

// New opens and pings a new pooled connection.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("database connected")

	return &DB{DB: db, cfg: cfg}, nil
}

// Close closes the pooled connection.
func (db *DB) Close() error {
	if db.DB != nil {
		logger.Info().Msg("closing database connection")
		return db.DB.Close()
	}
	return nil
}

// Health pings the database.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Ready checks liveness (Health) plus readiness: that store_profiles, the
// persistence root for every run's shift-code catalogue and demand
// defaults, is actually queryable. A pool that pings fine but can't read
// its own tables (missing migration, permission error) should not report
// healthy.
func (db *DB) Ready(ctx context.Context) error {
	if err := db.Health(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM store_profiles").Scan(&count); err != nil {
		return fmt.Errorf("store_profiles table unreachable: %w", err)
	}

	return nil
}

// Transaction runs fn inside a transaction, rolling back on error or panic.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Stats returns the pooled connection's statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// ExecContext runs a statement, logging it if it takes over 100ms.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := db.DB.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	if duration > 100*time.Millisecond {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", duration).
			Msg("slow query")
	}

	return result, err
}

// QueryContext runs a query, logging it if it takes over 100ms.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.DB.QueryContext(ctx, query, args...)
	duration := time.Since(start)

	if duration > 100*time.Millisecond {
		logger.Warn().
			Str("query", truncateQuery(query)).
			Dur("duration", duration).
			Msg("slow query")
	}

	return rows, err
}

// QueryRowContext runs a single-row query.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, query, args...)
}

// truncateQuery shortens a long query for log output.
func truncateQuery(query string) string {
	if len(query) > 200 {
		return query[:200] + "..."
	}
	return query
}
