package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

const (
	indicatorsTable       = "indicators"
	indicatorQueriesTable = "indicator_queries"
)

var (
	indicatorColumns      = []string{"id", "name", "value_date", "value"}
	indicatorQueryColumns = []string{"id", "indicator_id", "user_id", "queried_at", "source"}
)

// IndicatorValue is the value an economic indicator (USD, UF, ...) had on
// a given day. Names are stored upper-cased. ValueDate is read back as
// midnight UTC of the stored day.
type IndicatorValue struct {
	ID        int64
	Name      string
	ValueDate time.Time
	Value     decimal.Decimal
}

// IndicatorQuery records that a user looked up an indicator value and
// where the value came from.
type IndicatorQuery struct {
	ID          int64
	IndicatorID int64
	UserID      int64
	QueriedAt   time.Time
	Source      string
}

type indicatorRow struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	ValueDate string          `db:"value_date"`
	Value     decimal.Decimal `db:"value"`
}

func (r *indicatorRow) toModel() (*IndicatorValue, error) {
	valueDate, err := parseDate(r.ValueDate)
	if err != nil {
		return nil, fmt.Errorf("indicator %d value_date: %w", r.ID, err)
	}
	return &IndicatorValue{
		ID:        r.ID,
		Name:      r.Name,
		ValueDate: valueDate,
		Value:     r.Value,
	}, nil
}

type indicatorQueryRow struct {
	ID          int64  `db:"id"`
	IndicatorID int64  `db:"indicator_id"`
	UserID      int64  `db:"user_id"`
	QueriedAt   string `db:"queried_at"`
	Source      string `db:"source"`
}

func (r *indicatorQueryRow) toModel() (*IndicatorQuery, error) {
	queriedAt, err := parseTimestamp(r.QueriedAt)
	if err != nil {
		return nil, fmt.Errorf("indicator query %d queried_at: %w", r.ID, err)
	}
	return &IndicatorQuery{
		ID:          r.ID,
		IndicatorID: r.IndicatorID,
		UserID:      r.UserID,
		QueriedAt:   queriedAt,
		Source:      r.Source,
	}, nil
}

// normalizeIndicatorName is applied to names on every write and lookup.
func normalizeIndicatorName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IndicatorRepository persists indicator values and the queries made
// against them.
type IndicatorRepository struct {
	m *Manager
}

var _ Repository[IndicatorValue] = (*IndicatorRepository)(nil)

func NewIndicatorRepository(m *Manager) *IndicatorRepository {
	return &IndicatorRepository{m: m}
}

// Create inserts an indicator value. A second value for the same name and
// day fails with a unique violation. The entity's name is normalized only
// once the insert succeeds.
func (r *IndicatorRepository) Create(ctx context.Context, v *IndicatorValue) (*IndicatorValue, error) {
	name := normalizeIndicatorName(v.Name)

	id, err := insert(ctx, r.m, builder.Insert(indicatorsTable).
		Columns("name", "value_date", "value").
		Values(name, formatDate(v.ValueDate), v.Value))
	if err != nil {
		return nil, fmt.Errorf("failed to create indicator: %w", err)
	}
	v.ID = id
	v.Name = name
	return v, nil
}

func (r *IndicatorRepository) GetByID(ctx context.Context, id int64) (*IndicatorValue, error) {
	v, err := getOne(ctx, r.m, r.selectIndicators().Where(squirrel.Eq{"id": id}), (*indicatorRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator: %w", err)
	}
	return v, nil
}

func (r *IndicatorRepository) List(ctx context.Context) ([]*IndicatorValue, error) {
	values, err := selectAll(ctx, r.m, r.selectIndicators(), (*indicatorRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	return values, nil
}

// GetByNameAndDate looks up the value of name on the calendar day of date.
// The name is matched case-insensitively.
func (r *IndicatorRepository) GetByNameAndDate(ctx context.Context, name string, date time.Time) (*IndicatorValue, error) {
	q := r.selectIndicators().Where(squirrel.Eq{
		"name":       normalizeIndicatorName(name),
		"value_date": formatDate(date),
	})

	v, err := getOne(ctx, r.m, q, (*indicatorRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator %s: %w", name, err)
	}
	return v, nil
}

func (r *IndicatorRepository) Update(ctx context.Context, v *IndicatorValue) (*IndicatorValue, error) {
	if v.ID == 0 {
		return nil, missingID("an indicator")
	}
	name := normalizeIndicatorName(v.Name)

	err := exec(ctx, r.m, builder.Update(indicatorsTable).
		Set("name", name).
		Set("value_date", formatDate(v.ValueDate)).
		Set("value", v.Value).
		Where(squirrel.Eq{"id": v.ID}))
	if err != nil {
		return nil, fmt.Errorf("failed to update indicator: %w", err)
	}
	v.Name = name
	return v, nil
}

// Delete removes an indicator value. It fails with a foreign key violation
// while queries still reference it.
func (r *IndicatorRepository) Delete(ctx context.Context, id int64) error {
	if err := exec(ctx, r.m, builder.Delete(indicatorsTable).Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("failed to delete indicator: %w", err)
	}
	return nil
}

// RegisterQuery records an indicator lookup and assigns its id. A zero
// QueriedAt is stamped with the current time.
func (r *IndicatorRepository) RegisterQuery(ctx context.Context, q *IndicatorQuery) (*IndicatorQuery, error) {
	if q.QueriedAt.IsZero() {
		q.QueriedAt = time.Now().UTC()
	}

	id, err := insert(ctx, r.m, builder.Insert(indicatorQueriesTable).
		Columns("indicator_id", "user_id", "queried_at", "source").
		Values(q.IndicatorID, q.UserID, formatTimestamp(q.QueriedAt), q.Source))
	if err != nil {
		return nil, fmt.Errorf("failed to register indicator query: %w", err)
	}
	q.ID = id
	return q, nil
}

// ListQueriesByUser returns the lookups a user has made, oldest first.
func (r *IndicatorRepository) ListQueriesByUser(ctx context.Context, userID int64) ([]*IndicatorQuery, error) {
	q := builder.Select(indicatorQueryColumns...).
		From(indicatorQueriesTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id")

	queries, err := selectAll(ctx, r.m, q, (*indicatorQueryRow).toModel)
	if err != nil {
		return nil, fmt.Errorf("failed to list indicator queries for user %d: %w", userID, err)
	}
	return queries, nil
}

func (r *IndicatorRepository) selectIndicators() squirrel.SelectBuilder {
	return builder.Select(indicatorColumns...).From(indicatorsTable).OrderBy("id")
}
