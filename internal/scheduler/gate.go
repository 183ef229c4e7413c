package scheduler

import "github.com/hazz-dev/sitewatch/internal/outcome"

// gate suspends automatic scheduling on a positive result.
func (s *Scheduler) gate(r outcome.Result) {
	if r.Outcome != outcome.Positive {
		return
	}
	s.enabled.Store(false)
	s.logger.Info("automatic scheduling suspended after positive result, confirm to resume", "poll_id", r.ID)
}

// rearm schedules the next poll unless the gate has suspended scheduling.
func (s *Scheduler) rearm(r outcome.Result) {
	if !s.enabled.Load() {
		s.logger.Info("automatic scheduling prevented, waiting for confirmation", "poll_id", r.ID)
		return
	}
	s.Schedule()
}
