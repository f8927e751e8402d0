package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedIndicator(t *testing.T, m *Manager, name string, valueDate time.Time, value string) *IndicatorValue {
	t.Helper()
	v, err := NewIndicatorRepository(m).Create(context.Background(), &IndicatorValue{
		Name:      name,
		ValueDate: valueDate,
		Value:     decimal.RequireFromString(value),
	})
	require.NoError(t, err)
	return v
}

func assertIndicatorEqual(t *testing.T, want, got *IndicatorValue) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.ValueDate.Equal(got.ValueDate), "value date: want %s, got %s", want.ValueDate, got.ValueDate)
	assert.True(t, want.Value.Equal(got.Value), "value: want %s, got %s", want.Value, got.Value)
}

func TestIndicatorRepository_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	repo := NewIndicatorRepository(m)
	ctx := context.Background()

	created := seedIndicator(t, m, "UF", day(2026, time.April, 2), "39512.34")
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assertIndicatorEqual(t, created, got)

	missing, err := repo.GetByID(ctx, created.ID+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIndicatorRepository_NamesAreUpperCased(t *testing.T) {
	m := newTestManager(t)

	v := seedIndicator(t, m, " usd ", day(2026, time.April, 2), "936.45")
	assert.Equal(t, "USD", v.Name)

	got, err := NewIndicatorRepository(m).GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Name)
}

func TestIndicatorRepository_GetByNameAndDate(t *testing.T) {
	m := newTestManager(t)
	repo := NewIndicatorRepository(m)
	ctx := context.Background()

	usd := seedIndicator(t, m, "USD", day(2026, time.April, 2), "936.45")
	seedIndicator(t, m, "USD", day(2026, time.April, 3), "940.10")
	seedIndicator(t, m, "EUR", day(2026, time.April, 2), "1020.00")

	tests := []struct {
		name  string
		query string
		date  time.Time
	}{
		{name: "exact", query: "USD", date: day(2026, time.April, 2)},
		{name: "lower case", query: "usd", date: day(2026, time.April, 2)},
		{name: "mixed case", query: "UsD", date: day(2026, time.April, 2)},
		{name: "time of day ignored", query: "usd", date: time.Date(2026, time.April, 2, 18, 45, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetByNameAndDate(ctx, tt.query, tt.date)
			require.NoError(t, err)
			assertIndicatorEqual(t, usd, got)
		})
	}

	got, err := repo.GetByNameAndDate(ctx, "usd", day(2026, time.April, 4))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIndicatorRepository_DuplicateNameAndDate(t *testing.T) {
	m := newTestManager(t)
	seedIndicator(t, m, "USD", day(2026, time.April, 2), "936.45")

	_, err := NewIndicatorRepository(m).Create(context.Background(), &IndicatorValue{
		Name:      "usd",
		ValueDate: day(2026, time.April, 2),
		Value:     decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)
}

func TestIndicatorRepository_UpdateListDelete(t *testing.T) {
	m := newTestManager(t)
	repo := NewIndicatorRepository(m)
	ctx := context.Background()

	v := seedIndicator(t, m, "UTM", day(2026, time.May, 1), "68923")
	seedIndicator(t, m, "UF", day(2026, time.May, 1), "39600.01")

	_, err := repo.Update(ctx, &IndicatorValue{Name: "UTM", ValueDate: v.ValueDate, Value: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrInvalidArgument)

	v.Value = decimal.RequireFromString("69000.5")
	v.Name = "utm"
	_, err = repo.Update(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, "UTM", v.Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assertIndicatorEqual(t, v, all[0])

	require.NoError(t, repo.Delete(ctx, 999))
	assert.Equal(t, 2, countRows(t, m, indicatorsTable))

	require.NoError(t, repo.Delete(ctx, v.ID))
	assert.Equal(t, 1, countRows(t, m, indicatorsTable))
}

func TestIndicatorRepository_Queries(t *testing.T) {
	m := newTestManager(t)
	repo := NewIndicatorRepository(m)
	ctx := context.Background()

	usd := seedIndicator(t, m, "USD", day(2026, time.April, 2), "936.45")
	uf := seedIndicator(t, m, "UF", day(2026, time.April, 2), "39512.34")
	ana := seedUser(t, m, "ana")
	beto := seedUser(t, m, "beto")

	first, err := repo.RegisterQuery(ctx, &IndicatorQuery{
		IndicatorID: usd.ID,
		UserID:      ana.ID,
		QueriedAt:   time.Date(2026, time.April, 2, 10, 30, 15, 123000000, time.UTC),
		Source:      "mindicador.cl",
	})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	_, err = repo.RegisterQuery(ctx, &IndicatorQuery{
		IndicatorID: usd.ID,
		UserID:      beto.ID,
		QueriedAt:   time.Date(2026, time.April, 2, 11, 0, 0, 0, time.UTC),
		Source:      "cache",
	})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	second, err := repo.RegisterQuery(ctx, &IndicatorQuery{
		IndicatorID: uf.ID,
		UserID:      ana.ID,
		Source:      "mindicador.cl",
	})
	require.NoError(t, err)
	assert.False(t, second.QueriedAt.Before(before), "zero QueriedAt should be stamped with now")

	queries, err := repo.ListQueriesByUser(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	for i, want := range []*IndicatorQuery{first, second} {
		got := queries[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.IndicatorID, got.IndicatorID)
		assert.Equal(t, ana.ID, got.UserID)
		assert.Equal(t, want.Source, got.Source)
		assert.True(t, want.QueriedAt.Equal(got.QueriedAt), "queried_at: want %s, got %s", want.QueriedAt, got.QueriedAt)
	}

	none, err := repo.ListQueriesByUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)

	// Indicators with recorded queries cannot be deleted.
	err = repo.Delete(ctx, usd.ID)
	assert.True(t, IsForeignKeyViolation(err), "expected foreign key violation, got %v", err)
}

func TestIndicatorRepository_RegisterQueryRequiresUser(t *testing.T) {
	m := newTestManager(t)
	usd := seedIndicator(t, m, "USD", day(2026, time.April, 2), "936.45")

	_, err := NewIndicatorRepository(m).RegisterQuery(context.Background(), &IndicatorQuery{
		IndicatorID: usd.ID,
		UserID:      31337,
		QueriedAt:   time.Now(),
		Source:      "api",
	})
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "expected foreign key violation, got %v", err)
	assert.Equal(t, 0, countRows(t, m, indicatorQueriesTable))
}

func TestIndicatorRepository_ValuePrecision(t *testing.T) {
	m := newTestManager(t)
	repo := NewIndicatorRepository(m)
	ctx := context.Background()

	for _, value := range []string{"39512.123456789012345678", "0.000000000000000000001", "123456789012345678901234567890"} {
		t.Run(value, func(t *testing.T) {
			v := seedIndicator(t, m, "PRECISE"+value, day(2026, time.April, 2), value)

			got, err := repo.GetByID(ctx, v.ID)
			require.NoError(t, err)
			assertIndicatorEqual(t, v, got)
			assert.Equal(t, value, got.Value.String())
		})
	}
}

func TestIndicatorRepository_FailedCreateKeepsName(t *testing.T) {
	m := newTestManager(t)
	seedIndicator(t, m, "USD", day(2026, time.April, 2), "936.45")

	dup := &IndicatorValue{Name: " usd ", ValueDate: day(2026, time.April, 2), Value: decimal.NewFromInt(1)}
	_, err := NewIndicatorRepository(m).Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, " usd ", dup.Name)
	assert.Zero(t, dup.ID)
}

func TestIndicatorRepository_ValueDateReadAsUTC(t *testing.T) {
	m := newTestManager(t)
	local := time.Date(2026, time.April, 2, 0, 0, 0, 0, time.FixedZone("UTC-4", -4*3600))

	v := seedIndicator(t, m, "UF", local, "39512.34")

	got, err := NewIndicatorRepository(m).GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, day(2026, time.April, 2), got.ValueDate)
}
