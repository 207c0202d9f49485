package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prayerics/internal/model"
)

func TestMonths_Basic(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		horizon int
		want    []model.MonthToken
	}{
		{"zero horizon", 0, []model.MonthToken{{Year: 2026, Month: time.October}}},
		{"end of month", 12, []model.MonthToken{{Year: 2026, Month: time.October}}},
		{"crosses into next month", 13, []model.MonthToken{
			{Year: 2026, Month: time.October},
			{Year: 2026, Month: time.November},
		}},
		{"crosses year", 80, []model.MonthToken{
			{Year: 2026, Month: time.October},
			{Year: 2026, Month: time.November},
			{Year: 2026, Month: time.December},
			{Year: 2027, Month: time.January},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Months(now, tt.horizon))
		})
	}
}

func TestMonths_FullYear(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	got := Months(now, 365)

	require.Len(t, got, 13)
	assert.Equal(t, model.MonthToken{Year: 2026, Month: time.October}, got[0])
	assert.Equal(t, model.MonthToken{Year: 2027, Month: time.October}, got[12])
}

func TestMonths_InclusiveEnd(t *testing.T) {
	// now + 31 days lands exactly on the first instant of November.
	now := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	got := Months(now, 31)

	assert.Equal(t, []model.MonthToken{
		{Year: 2026, Month: time.October},
		{Year: 2026, Month: time.November},
	}, got)
}

func TestMonths_Properties(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	starts := []time.Time{
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2028, time.February, 29, 8, 30, 0, 0, time.UTC),
		time.Date(2026, time.March, 29, 2, 30, 0, 0, paris),
		time.Date(2026, time.December, 31, 18, 0, 0, 0, paris),
	}

	for _, now := range starts {
		for horizon := 0; horizon <= 400; horizon++ {
			got := Months(now, horizon)
			end := now.AddDate(0, 0, horizon)

			require.NotEmpty(t, got, "now=%s horizon=%d", now, horizon)
			// A 29-day span starting Jan 31 touches three months, so the bound
			// uses the shortest month length.
			assert.LessOrEqual(t, len(got), horizon/28+2, "now=%s horizon=%d", now, horizon)

			first := got[0]
			assert.Equal(t, now.Year(), first.Year)
			assert.Equal(t, now.Month(), first.Month)

			last := got[len(got)-1]
			assert.Equal(t, end.Year(), last.Year, "now=%s horizon=%d", now, horizon)
			assert.Equal(t, end.Month(), last.Month, "now=%s horizon=%d", now, horizon)

			for i := 1; i < len(got); i++ {
				prev := time.Date(got[i-1].Year, got[i-1].Month, 1, 0, 0, 0, 0, time.UTC)
				next := prev.AddDate(0, 1, 0)
				assert.Equal(t, next.Year(), got[i].Year, "gap or duplicate at %d", i)
				assert.Equal(t, next.Month(), got[i].Month, "gap or duplicate at %d", i)
			}
		}
	}
}

func TestStepMonthsMatchesRRule(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	first := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	for _, horizon := range []int{0, 13, 31, 200, 400} {
		assert.Equal(t, stepMonths(first, now.AddDate(0, 0, horizon)), Months(now, horizon), "horizon=%d", horizon)
	}
}
