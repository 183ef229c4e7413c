package scheduler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hazz-dev/sitewatch/internal/timeunit"
)

// Policy controls what is polled and how often.
type Policy struct {
	URL            string
	MinDelay       int64
	MaxDelay       int64
	DelayUnit      timeunit.Unit
	RandomnessUnit timeunit.Unit
	// Periodic re-arms the timer after every non-positive poll.
	Periodic bool
}

// Validate checks the invariants the scheduler relies on.
func (p Policy) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("url is required")
	}
	if p.MinDelay < 0 {
		return fmt.Errorf("min delay must not be negative, got %d", p.MinDelay)
	}
	if p.MinDelay > p.MaxDelay {
		return fmt.Errorf("min delay %d is larger than max delay %d", p.MinDelay, p.MaxDelay)
	}
	if !timeunit.Fits(p.MaxDelay, p.DelayUnit) {
		return fmt.Errorf("max delay %d %s is longer than the longest supported delay", p.MaxDelay, p.DelayUnit)
	}
	if !timeunit.Compatible(p.DelayUnit, p.RandomnessUnit) {
		return fmt.Errorf("randomness unit %s is less precise than delay unit %s", p.RandomnessUnit, p.DelayUnit)
	}
	return nil
}

// DelayRange returns the inclusive bounds of the delay in randomness units.
func (p Policy) DelayRange() (lo, hi int64) {
	return timeunit.Convert(p.MinDelay, p.DelayUnit, p.RandomnessUnit),
		timeunit.Convert(p.MaxDelay, p.DelayUnit, p.RandomnessUnit)
}

// RandomDelay picks a delay uniformly from DelayRange. intn must return a
// value in [0, n); nil uses math/rand/v2.
func (p Policy) RandomDelay(intn func(n int64) int64) (amount int64, d time.Duration) {
	if intn == nil {
		intn = rand.Int64N
	}
	lo, hi := p.DelayRange()
	amount = lo
	if hi > lo {
		amount += intn(hi - lo + 1)
	}
	return amount, time.Duration(amount) * p.RandomnessUnit.Duration()
}
