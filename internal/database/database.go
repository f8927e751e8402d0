// Package database is the ISPPlus data-access layer.
//
// A Manager owns the SQLite store and hands out one scoped connection per
// operation through WithConnection. Each entity kind has a repository built
// on top of it (clients, companies, plans, contracts, users, indicators);
// repositories never share a transaction, so every call commits or rolls
// back on its own.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ispplus/ispplus/internal/config"
)

// Manager is the approved entrypoint for database access. Repositories
// receive it at construction time.
type Manager struct {
	db   *sql.DB
	path string
}

// Open opens the SQLite store described by cfg.
func Open(cfg config.DatabaseConfig) (*Manager, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeoutMS)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("path", cfg.Path).Msg("Database connection established")

	return &Manager{db: db, path: cfg.Path}, nil
}

// Path returns the database file path
func (m *Manager) Path() string {
	return m.path
}

// Close releases the underlying handle.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Conn is a connection scoped to one WithConnection call. Everything run
// through it belongs to the same transaction.
type Conn struct {
	tx *sql.Tx
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.tx.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.tx.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.tx.QueryRowContext(ctx, query, args...)
}

// WithConnection acquires a dedicated connection, turns on foreign key
// enforcement, and runs work inside a transaction on it. The transaction
// commits when work returns nil and rolls back otherwise; work's error is
// returned as is. The connection is released on every path, including a
// panic in work.
func (m *Manager) WithConnection(ctx context.Context, work func(*Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// foreign_keys is a no-op inside a transaction, so it goes first.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
	}()

	if err := work(&Conn{tx: tx}); err != nil {
		log.Trace().Err(err).Msg("Rolling back transaction")
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
