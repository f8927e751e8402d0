package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

type migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrate creates the schema. Versions already recorded in
// schema_migrations are skipped, so running it twice is harmless.
func (m *Manager) Migrate(ctx context.Context) error {
	log.Debug().Str("path", m.path).Msg("Running database migrations")

	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	if err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

	for _, mig := range migrations {
		if mig.Version <= currentVersion {
			continue
		}

		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("Applying migration")

		err := m.WithConnection(ctx, func(c *Conn) error {
			for i, stmt := range splitSQLStatements(mig.SQL) {
				if _, err := c.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d statement %d failed: %w", mig.Version, i+1, err)
				}
			}

			if _, err := c.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", mig.Version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// splitSQLStatements splits a SQL string into individual statements.
// Comment lines are dropped; a statement ends at a line ending in ';'.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	for line := range strings.SplitSeq(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(trimmed, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			CREATE TABLE clients (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				national_id TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE companies (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				national_id TEXT NOT NULL,
				contact_email TEXT NOT NULL DEFAULT ''
			);

			-- Decimal amounts are stored as exact text
			CREATE TABLE plans (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				company_id INTEGER NOT NULL REFERENCES companies(id),
				name TEXT NOT NULL,
				download_mbps INTEGER NOT NULL,
				upload_mbps INTEGER NOT NULL,
				contention TEXT NOT NULL DEFAULT '',
				price TEXT NOT NULL,
				description TEXT
			);
			CREATE INDEX idx_plans_company ON plans(company_id);

			-- Dates are ISO-8601 text; end_date NULL means open-ended
			CREATE TABLE contracts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				client_id INTEGER NOT NULL REFERENCES clients(id),
				plan_id INTEGER NOT NULL REFERENCES plans(id),
				start_date TEXT NOT NULL,
				end_date TEXT,
				status TEXT NOT NULL
			);
			CREATE INDEX idx_contracts_client ON contracts(client_id);
			CREATE INDEX idx_contracts_plan ON contracts(plan_id);

			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('ADMIN', 'OPERATOR', 'VIEWER'))
			);

			CREATE TABLE indicators (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				value_date TEXT NOT NULL,
				value TEXT NOT NULL,
				UNIQUE (name, value_date)
			);

			CREATE TABLE indicator_queries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				indicator_id INTEGER NOT NULL REFERENCES indicators(id),
				user_id INTEGER NOT NULL REFERENCES users(id),
				queried_at TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX idx_indicator_queries_user ON indicator_queries(user_id);
			CREATE INDEX idx_indicator_queries_indicator ON indicator_queries(indicator_id);
		`,
	},
}
