package workflow

import "time"

// Clock supplies timestamps for spec mutations. The engine takes it by
// injection so tests can pin UpdatedAt/CompletedAt to known values.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
