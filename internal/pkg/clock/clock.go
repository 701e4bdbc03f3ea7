package clock

import "time"

// Clock supplies the current time. The auth service takes one as a dependency
// so expiry and rate-window invariants can be tested against a fixed instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed struct{ T time.Time }

func (f Fixed) Now() time.Time { return f.T }
