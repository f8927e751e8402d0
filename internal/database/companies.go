package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
)

const companiesTable = "companies"

var companyColumns = []string{"id", "name", "national_id", "contact_email"}

// Company is a provider that sells plans.
type Company struct {
	ID           int64
	Name         string
	NationalID   string
	ContactEmail string
}

type companyRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	NationalID   string `db:"national_id"`
	ContactEmail string `db:"contact_email"`
}

func (r *companyRow) toModel() (*Company, error) {
	return &Company{
		ID:           r.ID,
		Name:         r.Name,
		NationalID:   r.NationalID,
		ContactEmail: r.ContactEmail,
	}, nil
}

// CompanyRepository persists companies.
type CompanyRepository struct {
	m *Manager
}

var _ Repository[Company] = (*CompanyRepository)(nil)

func NewCompanyRepository(m *Manager) *CompanyRepository {
	return &CompanyRepository{m: m}
}

func (r *CompanyRepository) Create(ctx context.Context, c *Company) (*Company, error) {
	id, err := insert(ctx, r.m, builder.Insert(companiesTable).
		Columns("name", "national_id", "contact_email").
		Values(c.Name, c.NationalID, c.ContactEmail))
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*Company, error) {
	c, err := getOne(ctx, r.m, r.selectCompanies().Where(squirrel.Eq{"id": id}), (*companyRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]*Company, error) {
	companies, err := selectAll(ctx, r.m, r.selectCompanies(), (*companyRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *Company) (*Company, error) {
	if c.ID == 0 {
		return nil, missingID("a company")
	}

	err := exec(ctx, r.m, builder.Update(companiesTable).
		Set("name", c.Name).
		Set("national_id", c.NationalID).
		Set("contact_email", c.ContactEmail).
		Where(squirrel.Eq{"id": c.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return c, nil
}

// Delete removes a company. It fails with a foreign key violation while
// plans still reference it.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(companiesTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) selectCompanies() squirrel.SelectBuilder {
	return builder.Select(companyColumns...).From(companiesTable).OrderBy("id")
}
