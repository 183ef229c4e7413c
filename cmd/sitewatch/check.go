package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/hazz-dev/sitewatch/internal/config"
	"github.com/hazz-dev/sitewatch/internal/fetch"
	"github.com/hazz-dev/sitewatch/internal/outcome"
	"github.com/hazz-dev/sitewatch/internal/scheduler"
)

// executeCheck runs a single poll without arming the scheduler or notifying
// anyone. It returns an error when the poll failed.
func executeCheck(ctx context.Context, out io.Writer, cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handle, err := config.LoadChecker(cfg, cfgPath, nil, logger)
	if err != nil {
		return err
	}

	fetcher := fetch.New(cfg.Request.Timeout.Duration, cfg.Request.Headers, cfg.Request.Verbose, logger)
	sched := scheduler.New(cfg.Policy(), handle, fetcher, outcome.NewBus(logger), logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.Request.Timeout.Duration+5*time.Second)
	defer cancel()
	r := sched.Poll(ctx)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tCHECKER\tOUTCOME\tSTATUS\tRESPONSE\tERROR")
	status := "-"
	if r.StatusCode > 0 {
		status = strconv.Itoa(r.StatusCode)
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		r.URL,
		handle.Name,
		r.Outcome,
		status,
		r.Duration.Round(time.Millisecond),
		r.Error,
	)
	w.Flush()

	if r.Outcome == outcome.Failed {
		return fmt.Errorf("poll of %s failed: %s", r.URL, r.Error)
	}
	return nil
}
