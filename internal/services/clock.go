package services

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now is UTC and truncated to microseconds so values round-trip through
// Postgres timestamps unchanged.
func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func SystemClock() Clock { return systemClock{} }
