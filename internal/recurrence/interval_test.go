package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	for _, in := range []string{"DAILY", "weekly", " Monthly ", "YEARLY"} {
		i, err := ParseInterval(in)
		assert.NoError(t, err, in)
		assert.True(t, i.Valid())
	}

	_, err := ParseInterval("FORTNIGHTLY")
	assert.True(t, errors.Is(err, ErrUnknownInterval))
}

func TestAdvance_EachInterval(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		interval Interval
		want     time.Time
	}{
		{IntervalDaily, time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)},
		{IntervalWeekly, time.Date(2025, 3, 21, 9, 30, 0, 0, time.UTC)},
		{IntervalMonthly, time.Date(2025, 4, 14, 9, 30, 0, 0, time.UTC)},
		{IntervalYearly, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := c.interval.Advance(base)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.interval.String())
	}
}

// Month and year steps overflow into the next month when the day does not exist.
func TestAdvance_CalendarOverflow(t *testing.T) {
	cases := []struct {
		name     string
		interval Interval
		from     time.Time
		want     time.Time
	}{
		{"jan 31 monthly", IntervalMonthly, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"jan 31 monthly leap year", IntervalMonthly, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"jan 29 monthly non leap", IntervalMonthly, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"mar 31 monthly", IntervalMonthly, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"dec 31 monthly", IntervalMonthly, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"feb 29 yearly", IntervalYearly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"dec 31 daily", IntervalDaily, time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.interval.Advance(c.from)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestAdvance_UnknownInterval(t *testing.T) {
	_, err := Interval("HOURLY").Advance(time.Now())
	assert.True(t, errors.Is(err, ErrUnknownInterval))
}
