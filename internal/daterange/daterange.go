// Package daterange provides an inclusive calendar-day iterator.
//
// Materialization and coverage checking both walk date ranges one day at a
// time. Expressing the walk as a restartable iterator keeps resume-after-
// partial-failure logic trivial: continue from the day the previous walk
// stopped at.
package daterange

import "time"

// Normalize truncates t to midnight UTC, the granularity all date columns use.
func Normalize(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Key formats a day as the YYYY-MM-DD string used for map keys and storage.
func Key(t time.Time) string {
	return t.Format("2006-01-02")
}

// Iterator walks calendar days from start to end, inclusive.
type Iterator struct {
	next time.Time
	end  time.Time
}

// New returns an iterator over every calendar day in [start, end].
// Both bounds are normalized to midnight UTC. If start is after end the
// iterator is immediately exhausted.
func New(start, end time.Time) *Iterator {
	return &Iterator{next: Normalize(start), end: Normalize(end)}
}

// Next returns the next day in the range, or ok=false when exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.next.After(it.end) {
		return time.Time{}, false
	}
	day := it.next
	it.next = it.next.AddDate(0, 0, 1)
	return day, true
}

// Days returns the number of days the full range contains.
func Days(start, end time.Time) int {
	start, end = Normalize(start), Normalize(end)
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
