package timeunit_test

import (
	"math"
	"testing"

	"github.com/hazz-dev/sitewatch/internal/timeunit"
)

func TestResolve(t *testing.T) {
	cases := map[string]timeunit.Unit{
		"seconds":      timeunit.Seconds,
		"SECONDS":      timeunit.Seconds,
		"Minutes":      timeunit.Minutes,
		" hours ":      timeunit.Hours,
		"days":         timeunit.Days,
		"milliseconds": timeunit.Milliseconds,
	}
	for name, want := range cases {
		got, ok := timeunit.Resolve(name)
		if !ok {
			t.Errorf("expected %q to resolve", name)
			continue
		}
		if got != want {
			t.Errorf("resolving %q: got %v, want %v", name, got, want)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	for _, name := range []string{"", "fortnights", "sec", "minute"} {
		if _, ok := timeunit.Resolve(name); ok {
			t.Errorf("expected %q not to resolve", name)
		}
	}
}

func TestNames_RoundTrip(t *testing.T) {
	for _, name := range timeunit.Names() {
		u, ok := timeunit.Resolve(name)
		if !ok {
			t.Fatalf("expected %q to resolve", name)
		}
		if u.String() != name {
			t.Errorf("expected %q, got %q", name, u.String())
		}
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		from, to timeunit.Unit
		want     int64
	}{
		{"minutes to seconds", 3, timeunit.Minutes, timeunit.Seconds, 180},
		{"minutes to seconds upper", 5, timeunit.Minutes, timeunit.Seconds, 300},
		{"days to milliseconds", 1, timeunit.Days, timeunit.Milliseconds, 86400000},
		{"same unit", 7, timeunit.Hours, timeunit.Hours, 7},
		{"fine to coarse truncates", 1, timeunit.Minutes, timeunit.Hours, 0},
		{"truncates down", 119, timeunit.Seconds, timeunit.Minutes, 1},
		{"truncates toward zero", -119, timeunit.Seconds, timeunit.Minutes, -1},
		{"saturates high", math.MaxInt64 / 2, timeunit.Days, timeunit.Nanoseconds, math.MaxInt64},
		{"saturates low", math.MinInt64 / 2, timeunit.Days, timeunit.Nanoseconds, math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeunit.Convert(tt.amount, tt.from, tt.to); got != tt.want {
				t.Errorf("Convert(%d, %v, %v) = %d, want %d", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		delay, randomness timeunit.Unit
		want              bool
	}{
		{timeunit.Minutes, timeunit.Seconds, true},
		{timeunit.Seconds, timeunit.Seconds, true},
		{timeunit.Seconds, timeunit.Minutes, false},
		{timeunit.Hours, timeunit.Days, false},
	}
	for _, tt := range tests {
		if got := timeunit.Compatible(tt.delay, tt.randomness); got != tt.want {
			t.Errorf("Compatible(%v, %v) = %v, want %v", tt.delay, tt.randomness, got, tt.want)
		}
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		amount int64
		unit   timeunit.Unit
		want   bool
	}{
		{5, timeunit.Minutes, true},
		{106751, timeunit.Days, true},
		{106752, timeunit.Days, false},
		{110000, timeunit.Days, false},
		{1 << 60, timeunit.Days, false},
		{math.MaxInt64 - 1, timeunit.Nanoseconds, true},
		{math.MaxInt64, timeunit.Nanoseconds, false},
	}
	for _, tt := range tests {
		if got := timeunit.Fits(tt.amount, tt.unit); got != tt.want {
			t.Errorf("Fits(%d, %v) = %v, want %v", tt.amount, tt.unit, got, tt.want)
		}
	}
}

func TestUnit_Duration(t *testing.T) {
	if got := timeunit.Minutes.String(); got != "minutes" {
		t.Errorf("expected 'minutes', got %q", got)
	}
	if got := timeunit.Minutes.Duration().Seconds(); got != 60 {
		t.Errorf("expected 60s, got %v", got)
	}
	if got := timeunit.Unit(42).String(); got != "unknown" {
		t.Errorf("expected 'unknown', got %q", got)
	}
}
