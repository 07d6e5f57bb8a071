package monitor

import "time"

// Clock supplies current time to the engine. Injecting it keeps due
// calculations and alert timestamps deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
