package sample

import "time"

// Pacer gates fresh sensor readings to at most one emission per interval.
// Readings arriving slower than the interval are all let through.
type Pacer struct {
	interval time.Duration
	last     time.Time
	primed   bool
}

// NewPacer creates a pacer with the given minimum spacing between emissions.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Ready reports whether a fresh reading at now should be emitted and, if so,
// records now as the last emission time.
func (p *Pacer) Ready(now time.Time) bool {
	if p.primed && now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	p.primed = true
	return true
}

// Reset makes the next reading eligible immediately.
func (p *Pacer) Reset() {
	p.primed = false
	p.last = time.Time{}
}

// Interval returns the configured spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
