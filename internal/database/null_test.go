package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateHelpers(t *testing.T) {
	d := time.Date(2026, time.October, 14, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "2026-10-14", formatDate(d))

	parsed, err := parseDate("2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC), parsed)

	_, err = parseDate("14/10/2026")
	assert.Error(t, err)
}

func TestTimestampHelpers(t *testing.T) {
	ts := time.Date(2026, time.October, 14, 9, 30, 0, 500000000, time.FixedZone("CLT", -3*3600))

	formatted := formatTimestamp(ts)
	assert.Equal(t, "2026-10-14T12:30:00.5Z", formatted)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "rfc3339", input: formatted, want: ts},
		{name: "naive iso", input: "2026-10-14T12:30:00.5", want: ts},
		{name: "space separated", input: "2026-10-14 12:30:00", want: time.Date(2026, time.October, 14, 12, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestNullableDateHelpers(t *testing.T) {
	assert.Equal(t, sql.NullString{}, datePtrToNull(nil))

	d := time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sql.NullString{String: "2027-01-31", Valid: true}, datePtrToNull(&d))

	got, err := nullToDatePtr(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = nullToDatePtr(sql.NullString{String: "2027-01-31", Valid: true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d, *got)

	_, err = nullToDatePtr(sql.NullString{String: "bad", Valid: true})
	assert.Error(t, err)

	assert.Equal(t, "x", nullStringValue(sql.NullString{String: "x", Valid: true}))
	assert.Equal(t, "", nullStringValue(sql.NullString{String: "x"}))
}
