// Package scheduler polls a single URL on a randomized delay and suspends
// automatic polling after a positive result until it is confirmed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/outcome"
	"github.com/hazz-dev/sitewatch/internal/timeunit"
)

var (
	// ErrAlreadyEnabled is returned by Confirm when scheduling was not suspended.
	ErrAlreadyEnabled = errors.New("automatic scheduling is already enabled")
	// ErrConfirmUnsupported is returned by Confirm when periodic scheduling is off.
	ErrConfirmUnsupported = errors.New("periodic scheduling is disabled in the configuration")
)

// Fetcher performs the HTTP GET for a poll.
type Fetcher interface {
	Get(ctx context.Context, url string) (*checker.Response, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRand replaces the random source used to pick delays. intn must return
// a value in [0, n).
func WithRand(intn func(n int64) int64) Option {
	return func(s *Scheduler) { s.intn = intn }
}

// Scheduler owns the poll timer and the suspend/confirm gate.
//
// At most one timer is armed and at most one poll runs at a time. The
// enabled flag is the only state written from outside the poll goroutine.
type Scheduler struct {
	policy  Policy
	handle  *checker.Handle
	fetcher Fetcher
	bus     *outcome.Bus
	logger  *slog.Logger
	intn    func(n int64) int64

	enabled atomic.Bool

	pollMu sync.Mutex // held for the duration of a poll and its fan-out

	mu      sync.Mutex
	ctx     context.Context
	timer   *time.Timer
	nextAt  time.Time
	started bool
	stopped bool
}

// New creates a Scheduler. When the policy is periodic, the gate listener is
// subscribed to bus immediately so that it runs before any listener added
// later. Pass nil logger to use the default logger.
func New(policy Policy, handle *checker.Handle, fetcher Fetcher, bus *outcome.Bus, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		policy:  policy,
		handle:  handle,
		fetcher: fetcher,
		bus:     bus,
		logger:  logger,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enabled.Store(true)

	if policy.Periodic {
		bus.Subscribe("gate", s.gate)
	}
	return s
}

// Policy returns the scheduler's policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Enabled reports whether automatic scheduling is currently allowed.
func (s *Scheduler) Enabled() bool { return s.enabled.Load() }

// NextPollAt returns when the armed timer fires. ok is false when no timer is armed.
func (s *Scheduler) NextPollAt() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAt, !s.nextAt.IsZero()
}

// Start registers the re-arm listener (last, so it sees the gate's decision)
// and schedules the first poll. ctx is passed to every fetch. Start only has
// an effect the first time it is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.ctx = ctx
	s.mu.Unlock()

	if s.policy.Periodic {
		s.bus.Subscribe("reschedule", s.rearm)
		s.logger.Info("periodic scheduling enabled")
	} else {
		s.bus.Subscribe("reschedule", func(outcome.Result) {
			s.logger.Info("periodic scheduling is disabled, no further polls will be scheduled")
		})
	}

	lo, hi := s.policy.DelayRange()
	s.logger.Info("scheduler started",
		"url", s.policy.URL,
		"min_delay", s.policy.MinDelay,
		"max_delay", s.policy.MaxDelay,
		"delay_unit", s.policy.DelayUnit,
		"range", fmt.Sprintf("%d..%d %s", lo, hi, s.policy.RandomnessUnit),
	)
	s.Schedule()
}

// Stop disarms the timer and waits for an in-flight poll to finish.
// No poll is scheduled after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextAt = time.Time{}
	s.mu.Unlock()

	s.pollMu.Lock()
	s.pollMu.Unlock()
}

// Schedule arms a one-shot timer with a random delay from the policy range.
// It does nothing and returns false when scheduling is suspended or the
// scheduler is stopped. Callers must not arm a second timer while one is pending.
func (s *Scheduler) Schedule() bool {
	if !s.enabled.Load() {
		s.logger.Warn("scheduling prevented, automatic scheduling is suspended")
		return false
	}

	amount, delay := s.policy.RandomDelay(s.intn)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		at := s.nextAt
		s.mu.Unlock()
		s.logger.Debug("poll already scheduled", "at", at)
		return false
	}
	s.nextAt = time.Now().Add(delay)
	s.timer = time.AfterFunc(delay, s.fire)
	s.mu.Unlock()

	inDelayUnit := timeunit.Convert(amount, s.policy.RandomnessUnit, s.policy.DelayUnit)
	if s.policy.DelayUnit == s.policy.RandomnessUnit {
		s.logger.Info("poll scheduled", "in", fmt.Sprintf("%d %s", amount, s.policy.DelayUnit))
	} else {
		s.logger.Info("poll scheduled",
			"in", fmt.Sprintf("~%d %s", inDelayUnit, s.policy.DelayUnit),
			"exact", fmt.Sprintf("%d %s", amount, s.policy.RandomnessUnit),
		)
	}
	return true
}

// Confirm re-enables automatic scheduling after a positive result and
// immediately schedules the next poll.
func (s *Scheduler) Confirm() error {
	if !s.policy.Periodic {
		s.logger.Info("confirm not supported, periodic scheduling is disabled")
		return ErrConfirmUnsupported
	}
	if !s.enabled.CompareAndSwap(false, true) {
		s.logger.Info("automatic scheduling is already enabled, nothing to confirm")
		return ErrAlreadyEnabled
	}
	s.logger.Info("positive result confirmed, automatic scheduling enabled again")
	s.Schedule()
	return nil
}

func (s *Scheduler) fire() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.nextAt = time.Time{}
	ctx := s.ctx
	s.mu.Unlock()

	result := s.Poll(ctx)
	s.bus.Publish(result)
}

// Poll fetches the URL and runs the checker once. It does not publish the
// result or touch scheduling state.
func (s *Scheduler) Poll(ctx context.Context) (result outcome.Result) {
	start := time.Now()
	result = outcome.Result{
		ID:       uuid.New(),
		URL:      s.policy.URL,
		Outcome:  outcome.Failed,
		PolledAt: start,
	}
	log := s.logger.With("poll_id", result.ID)
	log.Info("performing poll", "url", s.policy.URL)

	defer func() {
		result.Duration = time.Since(start)
		if result.Outcome == outcome.Failed {
			log.Info("poll unsuccessful", "outcome", result.Outcome, "error", result.Error)
		}
	}()

	resp, err := s.fetcher.Get(ctx, s.policy.URL)
	if err != nil {
		log.Error("fetching page", "url", s.policy.URL, "error", err)
		result.Error = err.Error()
		return result
	}
	result.StatusCode = resp.StatusCode
	if !resp.OK() {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}

	positive, err := s.check(ctx, resp)
	if err != nil {
		var ce *checker.CheckError
		if errors.As(err, &ce) {
			log.Error("checker error", "checker", s.handle.Name, "error", ce)
		} else {
			log.Error("running checker", "checker", s.handle.Name, "error", err)
		}
		result.Error = err.Error()
		return result
	}

	if positive {
		result.Outcome = outcome.Positive
	} else {
		result.Outcome = outcome.Negative
	}
	log.Info("poll successful", "outcome", result.Outcome, "status", resp.StatusCode)
	return result
}

func (s *Scheduler) check(ctx context.Context, resp *checker.Response) (positive bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("checker panicked: %v", rec)
		}
	}()
	return s.handle.Check(ctx, resp)
}
