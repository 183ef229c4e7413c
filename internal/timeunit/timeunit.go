// Package timeunit resolves configured unit names into time granularities
// and converts integer amounts between them.
package timeunit

import (
	"math"
	"strings"
	"time"
)

// Unit is a time granularity, ordered from finest to coarsest.
type Unit int

const (
	Nanoseconds Unit = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

var units = []struct {
	name string
	size time.Duration
}{
	Nanoseconds:  {"nanoseconds", time.Nanosecond},
	Microseconds: {"microseconds", time.Microsecond},
	Milliseconds: {"milliseconds", time.Millisecond},
	Seconds:      {"seconds", time.Second},
	Minutes:      {"minutes", time.Minute},
	Hours:        {"hours", time.Hour},
	Days:         {"days", 24 * time.Hour},
}

// Resolve looks up a unit by name, ignoring case. ok is false when nothing matches.
func Resolve(name string) (u Unit, ok bool) {
	name = strings.TrimSpace(name)
	for i, entry := range units {
		if strings.EqualFold(entry.name, name) {
			return Unit(i), true
		}
	}
	return 0, false
}

// Names returns every supported unit name in order of granularity.
func Names() []string {
	names := make([]string, len(units))
	for i, entry := range units {
		names[i] = entry.name
	}
	return names
}

func (u Unit) valid() bool {
	return u >= Nanoseconds && u <= Days
}

func (u Unit) String() string {
	if !u.valid() {
		return "unknown"
	}
	return units[u].name
}

// Duration returns the length of one u.
func (u Unit) Duration() time.Duration {
	if !u.valid() {
		return 0
	}
	return units[u].size
}

// Convert expresses amount of from in to.
//
// Converting to a finer unit is exact and saturates at the int64 bounds.
// Converting to a coarser unit truncates toward zero.
func Convert(amount int64, from, to Unit) int64 {
	if from == to {
		return amount
	}
	f, t := int64(from.Duration()), int64(to.Duration())
	if f == 0 || t == 0 {
		return 0
	}
	if f > t {
		ratio := f / t
		switch {
		case amount > math.MaxInt64/ratio:
			return math.MaxInt64
		case amount < math.MinInt64/ratio:
			return math.MinInt64
		}
		return amount * ratio
	}
	return amount / (t / f)
}

// Compatible reports whether randomness is equal to or finer than delay,
// meaning one delay unit converts to a nonzero amount of randomness units.
func Compatible(delay, randomness Unit) bool {
	return Convert(1, delay, randomness) != 0
}

// Fits reports whether amount of u is representable as a time.Duration.
func Fits(amount int64, u Unit) bool {
	ns := Convert(amount, u, Nanoseconds)
	return ns > math.MinInt64 && ns < math.MaxInt64
}
