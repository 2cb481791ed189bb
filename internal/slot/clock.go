package slot

import "time"

// Clock supplies the current instant. Cancel's future-vs-past branch depends
// on it, so tests inject a fixed clock instead of reading the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock reads the real wall clock in UTC.
func SystemClock() Clock { return systemClock{} }
