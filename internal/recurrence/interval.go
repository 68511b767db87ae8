package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Interval is the period between two firings of a recurring transaction.
type Interval string

const (
	IntervalDaily   Interval = "DAILY"
	IntervalWeekly  Interval = "WEEKLY"
	IntervalMonthly Interval = "MONTHLY"
	IntervalYearly  Interval = "YEARLY"
)

var ErrUnknownInterval = errors.New("unknown recurring interval")

// ParseInterval accepts the interval names case-insensitively.
func ParseInterval(s string) (Interval, error) {
	i := Interval(strings.ToUpper(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownInterval, s)
	}
	return i, nil
}

func (i Interval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

func (i Interval) String() string {
	return string(i)
}

// Advance moves t forward by one unit of the interval.
//
// Month and year steps use time.AddDate, so a day that does not exist in the
// target month overflows into the following month: Jan 31 + 1 month is Mar 3
// (Mar 2 in a leap year) and Feb 29 + 1 year is Mar 1. Wall clock time and
// location are preserved.
func (i Interval) Advance(t time.Time) (time.Time, error) {
	switch i {
	case IntervalDaily:
		return t.AddDate(0, 0, 1), nil
	case IntervalWeekly:
		return t.AddDate(0, 0, 7), nil
	case IntervalMonthly:
		return t.AddDate(0, 1, 0), nil
	case IntervalYearly:
		return t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownInterval, string(i))
}
