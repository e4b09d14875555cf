package valueobject

import (
	"fmt"
	"time"
)

// Period is a closed-open date range [Start, End).
// Settlements, earnings and costs are all scoped by a Period.
type Period struct {
	start time.Time
	end   time.Time
}

// NewPeriod creates a Period, rejecting ranges where end is not after start
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, fmt.Errorf("period bounds cannot be zero")
	}
	if !end.After(start) {
		return Period{}, fmt.Errorf("period end %s must be after start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return Period{start: start, end: end}, nil
}

// MustPeriod creates a Period, panicking on invalid bounds.
// Intended for tests.
func MustPeriod(start, end time.Time) Period {
	p, err := NewPeriod(start, end)
	if err != nil {
		panic(err)
	}
	return p
}

// WeekOf returns the weekly period containing t, starting on Monday.
func WeekOf(t time.Time) Period {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	start := t.AddDate(0, 0, -(weekday - 1))
	return Period{start: start, end: start.AddDate(0, 0, 7)}
}

// Start returns the inclusive start of the period
func (p Period) Start() time.Time {
	return p.start
}

// End returns the exclusive end of the period
func (p Period) End() time.Time {
	return p.end
}

// Contains returns true if t falls within [start, end)
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.start) && t.Before(p.end)
}

// Overlaps returns true if the two periods share any instant
func (p Period) Overlaps(other Period) bool {
	return p.start.Before(other.end) && other.start.Before(p.end)
}

// Equals returns true if both periods have identical bounds
func (p Period) Equals(other Period) bool {
	return p.start.Equal(other.start) && p.end.Equal(other.end)
}

// Days returns the number of whole days the period spans
func (p Period) Days() int {
	return int(p.end.Sub(p.start).Hours() / 24)
}

// Key returns a stable string form used for lock keys and uniqueness checks
func (p Period) Key() string {
	return p.start.UTC().Format(time.DateOnly) + ".." + p.end.UTC().Format(time.DateOnly)
}

// String returns a human-readable representation
func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.start.Format(time.DateOnly), p.end.Format(time.DateOnly))
}
