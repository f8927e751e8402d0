package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

const contractsTable = "contracts"

var contractColumns = []string{"id", "client_id", "plan_id", "start_date", "end_date", "status"}

// Contract binds a client to a plan for a period. EndDate is nil while the
// contract is open-ended. Only the calendar day of each date is stored, and
// dates are read back as midnight UTC.
type Contract struct {
	ID        int64
	ClientID  int64
	PlanID    int64
	StartDate time.Time
	EndDate   *time.Time
	Status    string
}

type contractRow struct {
	ID        int64          `db:"id"`
	ClientID  int64          `db:"client_id"`
	PlanID    int64          `db:"plan_id"`
	StartDate string         `db:"start_date"`
	EndDate   sql.NullString `db:"end_date"`
	Status    string         `db:"status"`
}

func (r *contractRow) toModel() (*Contract, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("contract %d start_date: %w", r.ID, err)
	}
	end, err := nullToDatePtr(r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("contract %d end_date: %w", r.ID, err)
	}

	return &Contract{
		ID:        r.ID,
		ClientID:  r.ClientID,
		PlanID:    r.PlanID,
		StartDate: start,
		EndDate:   end,
		Status:    r.Status,
	}, nil
}

// ContractRepository persists contracts.
type ContractRepository struct {
	m *Manager
}

var _ Repository[Contract] = (*ContractRepository)(nil)

func NewContractRepository(m *Manager) *ContractRepository {
	return &ContractRepository{m: m}
}

// Create inserts a contract. Both the client and the plan must exist.
func (r *ContractRepository) Create(ctx context.Context, c *Contract) (*Contract, error) {
	id, err := insert(ctx, r.m, builder.Insert(contractsTable).
		Columns("client_id", "plan_id", "start_date", "end_date", "status").
		Values(c.ClientID, c.PlanID, formatDate(c.StartDate), datePtrToNull(c.EndDate), c.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*Contract, error) {
	c, err := getOne(ctx, r.m, r.selectContracts().Where(squirrel.Eq{"id": id}), (*contractRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return c, nil
}

func (r *ContractRepository) List(ctx context.Context) ([]*Contract, error) {
	contracts, err := selectAll(ctx, r.m, r.selectContracts(), (*contractRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return contracts, nil
}

// ListByClient returns every contract signed by a client.
func (r *ContractRepository) ListByClient(ctx context.Context, clientID int64) ([]*Contract, error) {
	contracts, err := selectAll(ctx, r.m, r.selectContracts().Where(squirrel.Eq{"client_id": clientID}), (*contractRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts for client %d: %w", clientID, err)
	}
	return contracts, nil
}

func (r *ContractRepository) Update(ctx context.Context, c *Contract) (*Contract, error) {
	if c.ID == 0 {
		return nil, missingID("a contract")
	}

	err := exec(ctx, r.m, builder.Update(contractsTable).
		Set("client_id", c.ClientID).
		Set("plan_id", c.PlanID).
		Set("start_date", formatDate(c.StartDate)).
		Set("end_date", datePtrToNull(c.EndDate)).
		Set("status", c.Status).
		Where(squirrel.Eq{"id": c.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}
	return c, nil
}

func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(contractsTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

func (r *ContractRepository) selectContracts() squirrel.SelectBuilder {
	return builder.Select(contractColumns...).From(contractsTable).OrderBy("id")
}
