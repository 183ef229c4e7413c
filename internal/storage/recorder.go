package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

// Inserter persists poll results.
type Inserter interface {
	InsertPoll(ctx context.Context, r outcome.Result) error
}

// Recorder returns a listener that stores every result. Storage errors are
// logged and never reach the scheduler.
func Recorder(store Inserter, logger *slog.Logger) outcome.Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(r outcome.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.InsertPoll(ctx, r); err != nil {
			logger.Error("storing poll result", "poll_id", r.ID, "error", err)
		}
	}
}
