package analytics

import (
	"testing"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveQuickFilter(t *testing.T) {
	// Wednesday
	today := models.NewDate(2025, time.March, 5)

	tests := []struct {
		name     string
		filter   string
		from, to string
	}{
		{"today", FilterToday, "2025-03-05", "2025-03-05"},
		{"week starts sunday", FilterThisWeek, "2025-03-02", "2025-03-08"},
		{"month", FilterThisMonth, "2025-03-01", "2025-03-31"},
		{"year", FilterThisYear, "2025-01-01", "2025-12-31"},
		{"last 7 days includes today", FilterLast7Days, "2025-02-27", "2025-03-05"},
		{"last 30 days", FilterLast30Days, "2025-02-04", "2025-03-05"},
		{"last 90 days", FilterLast90Days, "2024-12-06", "2025-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveQuickFilter(tt.filter, today)
			require.NoError(t, err)
			assert.Equal(t, tt.from, r.From.String())
			assert.Equal(t, tt.to, r.To.String())
			assert.False(t, r.All)
		})
	}
}

func TestResolveQuickFilter_WeekOnSunday(t *testing.T) {
	r, err := ResolveQuickFilter(FilterThisWeek, models.NewDate(2025, time.March, 2))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", r.From.String())
}

func TestResolveQuickFilter_All(t *testing.T) {
	r, err := ResolveQuickFilter(FilterAll, models.NewDate(2025, time.March, 5))
	require.NoError(t, err)
	assert.True(t, r.All)
	assert.True(t, r.Contains(models.NewDate(1999, time.January, 1)))

	from, to := r.Days()
	assert.Nil(t, from)
	assert.Nil(t, to)
	start, end := r.Bounds(time.UTC)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestResolveQuickFilter_Unknown(t *testing.T) {
	_, err := ResolveQuickFilter("fortnight", models.NewDate(2025, time.March, 5))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestResolveRange(t *testing.T) {
	today := models.NewDate(2025, time.March, 5)

	r, err := ResolveRange("", "", "", today)
	require.NoError(t, err)
	assert.Equal(t, FilterThisMonth, r.Filter)

	r, err = ResolveRange(FilterToday, "2025-01-01", "2025-01-31", today)
	require.NoError(t, err)
	assert.Equal(t, FilterCustom, r.Filter)
	assert.Equal(t, "2025-01-01", r.From.String())

	_, err = ResolveRange("", "2025-01-31", "2025-01-01", today)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = ResolveRange("", "2025-01-01", "", today)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = ResolveRange("", "01/01/2025", "2025-01-31", today)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRange_BoundsUseLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	r := Range{Filter: FilterCustom, From: models.NewDate(2025, time.March, 1), To: models.NewDate(2025, time.March, 1)}

	start, end := r.Bounds(loc)
	require.NotNil(t, start)
	assert.Equal(t, time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC), end.UTC())
	assert.True(t, r.SingleDay())

	// 01:00 UTC on the 2nd is still the 1st in BRT
	assert.True(t, r.ContainsTime(time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC), loc))
	assert.False(t, r.ContainsTime(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC), loc))
}
