package recurrence

import (
	"time"
)

// Schedule is the firing state of a recurring transaction. It is a value:
// firing produces a new Schedule instead of mutating the current one, and the
// storage layer persists the transition with a compare-and-swap on
// LastProcessed.
type Schedule struct {
	Interval          Interval
	LastProcessed     *time.Time
	NextRecurringDate *time.Time
}

// Initial returns the schedule of a recurring transaction created on date. It
// has never fired, so it is due on the next scan regardless of the next date.
func Initial(interval Interval, date time.Time) (Schedule, error) {
	next, err := interval.Advance(date)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{
		Interval:          interval,
		NextRecurringDate: &next,
	}, nil
}

// IsDue reports whether the schedule should fire at now: it never fired, or its
// next date has been reached.
func (s Schedule) IsDue(now time.Time) bool {
	if s.LastProcessed == nil {
		return true
	}
	return s.NextRecurringDate != nil && !s.NextRecurringDate.After(now)
}

// Fire returns the schedule after a firing at now. The next date is derived from
// the firing time, not from the previous next date, so a late firing does not
// trigger a catch-up burst.
func (s Schedule) Fire(now time.Time) (Schedule, error) {
	next, err := s.Interval.Advance(now)
	if err != nil {
		return Schedule{}, err
	}
	fired := now
	return Schedule{
		Interval:          s.Interval,
		LastProcessed:     &fired,
		NextRecurringDate: &next,
	}, nil
}
