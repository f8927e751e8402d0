package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ispplus/ispplus/internal/config"
)

// newTestManager opens a migrated store in a temp directory.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := Open(config.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		BusyTimeoutMS: 1000,
	})
	require.NoError(t, err, "failed to open db")
	t.Cleanup(func() { m.Close() })

	require.NoError(t, m.Migrate(context.Background()), "failed to migrate")
	return m
}

func countRows(t *testing.T, m *Manager, table string) int {
	t.Helper()
	var n int
	require.NoError(t, m.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func seedCompany(t *testing.T, m *Manager, name string) *Company {
	t.Helper()
	c, err := NewCompanyRepository(m).Create(context.Background(), &Company{
		Name:         name,
		NationalID:   "76.000.000-0",
		ContactEmail: "contacto@example.cl",
	})
	require.NoError(t, err)
	return c
}

func seedPlan(t *testing.T, m *Manager, companyID int64, name string) *Plan {
	t.Helper()
	p, err := NewPlanRepository(m).Create(context.Background(), &Plan{
		CompanyID:    companyID,
		Name:         name,
		DownloadMbps: 300,
		UploadMbps:   100,
		Contention:   "1:8",
		Price:        decimal.NewFromInt(24990),
	})
	require.NoError(t, err)
	return p
}

func seedClient(t *testing.T, m *Manager, name string) *Client {
	t.Helper()
	c, err := NewClientRepository(m).Create(context.Background(), &Client{
		Name:       name,
		NationalID: "12.345.678-9",
		Email:      "cliente@example.cl",
		Phone:      "+56 9 1234 5678",
	})
	require.NoError(t, err)
	return c
}

func seedUser(t *testing.T, m *Manager, username string) *User {
	t.Helper()
	u, err := NewUserRepository(m).Create(context.Background(), &User{
		Username:     username,
		PasswordHash: "$2a$12$hash",
		Role:         RoleOperator,
	})
	require.NoError(t, err)
	return u
}
