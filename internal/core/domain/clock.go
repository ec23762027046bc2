package domain

import "time"

// Clock returns the current naive wall-clock instant.
type Clock func() time.Time

// Naive drops the zone of t, keeping its wall-clock fields. The result is
// labelled UTC so arithmetic and storage never shift it. Precision is cut to
// microseconds, the finest resolution every storage backend keeps.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).
		Truncate(time.Microsecond)
}

// WallClock reads the system clock in loc and returns naive instants.
func WallClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time {
		return Naive(time.Now().In(loc))
	}
}

// DateOf returns midnight of t's calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
