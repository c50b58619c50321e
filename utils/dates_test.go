package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain month", d(2020, time.March, 15), 1, d(2020, time.April, 15)},
		{"backward", d(2020, time.March, 15), -6, d(2019, time.September, 15)},
		{"end of month clamps", d(2020, time.January, 31), 1, d(2020, time.February, 29)},
		{"non leap clamps to 28", d(2021, time.January, 31), 1, d(2021, time.February, 28)},
		{"clamped day does not stick", d(2020, time.January, 30), 3, d(2020, time.April, 30)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tc.want.Equal(AddMonth(tc.start, tc.months)),
				"got %s", AddMonth(tc.start, tc.months).Format("2006-01-02"))
		})
	}
}

func TestAdjacentDates(t *testing.T) {
	t.Parallel()

	dates := []time.Time{
		d(2025, time.January, 1),
		d(2026, time.January, 1),
		d(2027, time.January, 1),
	}

	t.Run("between nodes", func(t *testing.T) {
		t.Parallel()
		lo, hi := AdjacentDates(d(2026, time.June, 1), dates)
		assert.True(t, lo.Equal(dates[1]))
		assert.True(t, hi.Equal(dates[2]))
	})
	t.Run("before first", func(t *testing.T) {
		t.Parallel()
		lo, hi := AdjacentDates(d(2024, time.June, 1), dates)
		assert.True(t, lo.Equal(dates[0]))
		assert.True(t, hi.Equal(dates[1]))
	})
	t.Run("after last", func(t *testing.T) {
		t.Parallel()
		lo, hi := AdjacentDates(d(2030, time.June, 1), dates)
		assert.True(t, lo.Equal(dates[1]))
		assert.True(t, hi.Equal(dates[2]))
	})
	t.Run("exact node", func(t *testing.T) {
		t.Parallel()
		lo, hi := AdjacentDates(dates[1], dates)
		assert.True(t, lo.Equal(dates[0]))
		assert.True(t, hi.Equal(dates[1]))
	})
}

func TestSortDates(t *testing.T) {
	t.Parallel()
	dates := []time.Time{d(2027, time.May, 1), d(2025, time.May, 1), d(2026, time.May, 1)}
	SortDates(dates)
	require.Len(t, dates, 3)
	assert.True(t, dates[0].Before(dates[1]))
	assert.True(t, dates[1].Before(dates[2]))
}

func TestDays(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 31, Days(d(2025, time.January, 1), d(2025, time.February, 1)), 1e-12)
	assert.InDelta(t, -31, Days(d(2025, time.February, 1), d(2025, time.January, 1)), 1e-12)
}
