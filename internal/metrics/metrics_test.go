package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazz-dev/sitewatch/internal/metrics"
	"github.com/hazz-dev/sitewatch/internal/outcome"
)

func TestObserve_CountsByOutcome(t *testing.T) {
	m := metrics.New()
	m.Observe(outcome.Result{Outcome: outcome.Negative, Duration: 10 * time.Millisecond})
	m.Observe(outcome.Result{Outcome: outcome.Negative, Duration: 20 * time.Millisecond})
	m.Observe(outcome.Result{Outcome: outcome.Positive, Duration: 30 * time.Millisecond})

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "sitewatch_polls_total" && len(f.GetMetric()) != 3 {
			t.Errorf("expected one series per outcome, got %d", len(f.GetMetric()))
		}
	}

	body := scrape(t, m)
	for _, want := range []string{
		`sitewatch_polls_total{outcome="negative"} 2`,
		`sitewatch_polls_total{outcome="positive"} 1`,
		`sitewatch_polls_total{outcome="failed"} 0`,
		"sitewatch_poll_duration_seconds_count 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected scrape to contain %q", want)
		}
	}
}

func TestTrackScheduling(t *testing.T) {
	m := metrics.New()
	enabled := true
	m.TrackScheduling(func() bool { return enabled })

	if body := scrape(t, m); !strings.Contains(body, "sitewatch_scheduling_enabled 1") {
		t.Error("expected scheduling gauge 1 while enabled")
	}
	enabled = false
	if body := scrape(t, m); !strings.Contains(body, "sitewatch_scheduling_enabled 0") {
		t.Error("expected scheduling gauge 0 while suspended")
	}
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read scrape: %v", err)
	}
	return string(body)
}
