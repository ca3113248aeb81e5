package collector

import "time"

// Clock abstracts wall time and the inter-cycle sleep so tests can
// drive many cycles without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
