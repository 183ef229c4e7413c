package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/config"
	"github.com/hazz-dev/sitewatch/internal/storage"
	"github.com/hazz-dev/sitewatch/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sitewatch",
		Short:        "Poll a web page on a randomized schedule and alert when it matches",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(initCmd())
	root.AddCommand(checkersCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// newLogger installs a text logger on stderr as the default logger.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Poll the configured URL once and print the outcome",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg.Request.Verbose)
	return executeCheck(cmd.Context(), cmd.OutOrStdout(), cfg, cfgFile, logger)
}

func statusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print recent poll results from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			db, err := storage.Open(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			return executeStatus(cmd, db, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent polls to show")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteDefault(cfgFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example config written to %s\n", cfgFile)
			return nil
		},
	}
}

func checkersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkers",
		Short: "List available checkers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listCheckers(cmd, checker.Names(), checker.Lookup)
		},
	}
}

func listCheckers(cmd *cobra.Command, names []string, lookup func(string) (checker.Checker, error)) error {
	sort.Strings(names)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCONFIG FILE\tCOMMANDS")
	for _, name := range names {
		c, err := lookup(name)
		if err != nil {
			return err
		}
		file := "-"
		if cp, ok := c.(checker.ConfigProvider); ok {
			file = cp.ConfigInfo().FileName
		}
		cmds := 0
		if cp, ok := c.(checker.CommandProvider); ok {
			cmds = len(cp.Commands())
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", name, file, cmds)
	}
	return w.Flush()
}
