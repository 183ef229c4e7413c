package outcome

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a single poll.
type Outcome string

const (
	// Positive means the fetch succeeded and the checker reported the watched condition.
	Positive Outcome = "positive"
	// Negative means the fetch succeeded but the condition was not met.
	Negative Outcome = "negative"
	// Failed means the fetch failed, returned a non-2xx status, or the checker errored.
	Failed Outcome = "failed"
)

// Result is what a poll produces and what listeners receive.
type Result struct {
	ID         uuid.UUID
	URL        string
	Outcome    Outcome
	StatusCode int
	Error      string
	Duration   time.Duration
	PolledAt   time.Time
}
