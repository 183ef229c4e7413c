package checker

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

// ChangedName is the registered name of the changed checker.
const ChangedName = "changed"

func init() {
	Register(ChangedName, func() Checker { return &ChangedChecker{} })
}

// ChangedChecker is positive when the body differs from the last body it saw.
// The first response, and the first one after a failed poll, only records a
// baseline.
type ChangedChecker struct {
	mu        sync.Mutex
	last      [sha256.Size]byte
	seen      bool
	changedAt time.Time
}

func (c *ChangedChecker) Check(_ context.Context, resp *Response, _ Config) (bool, error) {
	sum := sha256.Sum256(resp.Body)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seen {
		c.last, c.seen = sum, true
		return false, nil
	}
	changed := sum != c.last
	c.last = sum
	if changed {
		c.changedAt = time.Now()
	}
	return changed, nil
}

// Listeners drops the baseline after a failed poll so a page served
// differently during an outage is not reported as a change.
func (c *ChangedChecker) Listeners() []outcome.Listener {
	return []outcome.Listener{func(r outcome.Result) {
		if r.Outcome != outcome.Failed {
			return
		}
		c.mu.Lock()
		c.seen = false
		c.mu.Unlock()
	}}
}

// EditMailContent appends when the change was detected.
func (c *ChangedChecker) EditMailContent(m MailContent) MailContent {
	c.mu.Lock()
	at := c.changedAt
	c.mu.Unlock()
	if at.IsZero() {
		return m
	}
	m.Text += "\n\nChange detected at " + at.Format(time.RFC1123) + "."
	return m
}
