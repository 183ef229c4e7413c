package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/sitewatch/internal/outcome"
	"github.com/hazz-dev/sitewatch/internal/storage"
)

type statusStore interface {
	History(ctx context.Context, limit, offset int) ([]storage.Poll, int, error)
	Counts(ctx context.Context) (map[outcome.Outcome]int, error)
}

func executeStatus(cmd *cobra.Command, db statusStore, limit int) error {
	out := cmd.OutOrStdout()
	polls, total, err := db.History(context.Background(), limit, 0)
	if err != nil {
		return fmt.Errorf("querying history: %w", err)
	}

	if total == 0 {
		fmt.Fprintln(out, "No poll history. Run 'sitewatch serve' first.")
		return nil
	}

	counts, err := db.Counts(context.Background())
	if err != nil {
		return fmt.Errorf("querying outcome counts: %w", err)
	}
	fmt.Fprintf(out, "%d polls: %d positive, %d negative, %d failed\n\n",
		total, counts[outcome.Positive], counts[outcome.Negative], counts[outcome.Failed])

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLLED AT\tOUTCOME\tSTATUS\tRESPONSE\tERROR")
	for _, p := range polls {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			p.PolledAt.Local().Format("2006-01-02 15:04:05"),
			p.Outcome,
			p.StatusCode,
			time.Duration(p.DurationMs*int64(time.Millisecond)).Round(time.Millisecond),
			p.Error,
		)
	}
	w.Flush()
	return nil
}
