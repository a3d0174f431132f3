// internal/clock/clock.go
package clock

import "time"

// Clock supplies the current instant. It is injected everywhere the
// engine needs time so that window evaluation and rate limiting stay
// deterministic under test.
type Clock interface {
    Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant, for tests.
type Fixed struct {
    Instant time.Time
}

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
