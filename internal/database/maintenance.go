package database

import (
	"context"
	"fmt"
)

// Optimize runs SQLite's PRAGMA optimize to refresh planner stats.
func (m *Manager) Optimize(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim unused space. VACUUM cannot
// run inside a transaction, so it bypasses WithConnection.
func (m *Manager) Vacuum(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
