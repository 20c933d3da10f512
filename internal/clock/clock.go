// Package clock abstracts "today" so that window computations in the store
// are deterministic under test.
package clock

import "time"

// Clock supplies the current calendar day.
type Clock interface {
	Today() time.Time
}

// System is the wall-clock implementation used in production.
type System struct{}

// Today returns the current local time. Callers derive the calendar day
// from it; the time-of-day component is ignored.
func (System) Today() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. Intended for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Today() time.Time {
	return f.T
}

// Date is a convenience constructor for a Fixed clock at midnight UTC.
func Date(year int, month time.Month, day int) Fixed {
	return Fixed{T: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}
