package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

const plansTable = "plans"

var planColumns = []string{
	"id", "company_id", "name", "download_mbps", "upload_mbps",
	"contention", "price", "description",
}

// Plan is an internet service plan offered by a company.
type Plan struct {
	ID           int64
	CompanyID    int64
	Name         string
	DownloadMbps int
	UploadMbps   int
	// Contention is the oversubscription ratio, e.g. "1:8".
	Contention  string
	Price       decimal.Decimal
	Description string
}

type planRow struct {
	ID           int64           `db:"id"`
	CompanyID    int64           `db:"company_id"`
	Name         string          `db:"name"`
	DownloadMbps int             `db:"download_mbps"`
	UploadMbps   int             `db:"upload_mbps"`
	Contention   string          `db:"contention"`
	Price        decimal.Decimal `db:"price"`
	Description  sql.NullString  `db:"description"`
}

func (r *planRow) toModel() (*Plan, error) {
	return &Plan{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		Name:         r.Name,
		DownloadMbps: r.DownloadMbps,
		UploadMbps:   r.UploadMbps,
		Contention:   r.Contention,
		Price:        r.Price,
		Description:  nullStringValue(r.Description),
	}, nil
}

// PlanRepository persists plans.
type PlanRepository struct {
	m *Manager
}

var _ Repository[Plan] = (*PlanRepository)(nil)

func NewPlanRepository(m *Manager) *PlanRepository {
	return &PlanRepository{m: m}
}

// Create inserts a plan. The owning company must exist.
func (r *PlanRepository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	id, err := insert(ctx, r.m, builder.Insert(plansTable).
		Columns("company_id", "name", "download_mbps", "upload_mbps", "contention", "price", "description").
		Values(p.CompanyID, p.Name, p.DownloadMbps, p.UploadMbps, p.Contention, p.Price, p.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*Plan, error) {
	p, err := getOne(ctx, r.m, r.selectPlans().Where(squirrel.Eq{"id": id}), (*planRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]*Plan, error) {
	plans, err := selectAll(ctx, r.m, r.selectPlans(), (*planRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// ListByCompany returns the plans owned by a company.
func (r *PlanRepository) ListByCompany(ctx context.Context, companyID int64) ([]*Plan, error) {
	plans, err := selectAll(ctx, r.m, r.selectPlans().Where(squirrel.Eq{"company_id": companyID}), (*planRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans for company %d: %w", companyID, err)
	}
	return plans, nil
}

func (r *PlanRepository) Update(ctx context.Context, p *Plan) (*Plan, error) {
	if p.ID == 0 {
		return nil, missingID("a plan")
	}

	err := exec(ctx, r.m, builder.Update(plansTable).
		Set("company_id", p.CompanyID).
		Set("name", p.Name).
		Set("download_mbps", p.DownloadMbps).
		Set("upload_mbps", p.UploadMbps).
		Set("contention", p.Contention).
		Set("price", p.Price).
		Set("description", p.Description).
		Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(plansTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) selectPlans() squirrel.SelectBuilder {
	return builder.Select(planColumns...).From(plansTable).OrderBy("id")
}
