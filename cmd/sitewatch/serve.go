package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/sitewatch/internal/alert"
	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/config"
	"github.com/hazz-dev/sitewatch/internal/console"
	"github.com/hazz-dev/sitewatch/internal/fetch"
	"github.com/hazz-dev/sitewatch/internal/metrics"
	"github.com/hazz-dev/sitewatch/internal/outcome"
	"github.com/hazz-dev/sitewatch/internal/scheduler"
	"github.com/hazz-dev/sitewatch/internal/server"
	"github.com/hazz-dev/sitewatch/internal/storage"
)

func serveCmd() *cobra.Command {
	var noConsole bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start polling the configured URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(!noConsole, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "do not read commands from stdin")
	return cmd
}

func runServe(withConsole bool, out io.Writer) error {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteDefault(cfgFile); err != nil {
			return err
		}
		slog.Info("example config written, edit it and start again", "path", cfgFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(cfg.Request.Verbose)

	a, err := newApp(cfg, cfgFile, out, logger)
	if errors.Is(err, config.ErrGenerated) {
		logger.Info("checker config generated, edit it and start again", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	defer a.close()

	var in console.LineReader
	if withConsole {
		in = console.Lines(os.Stdin)
		if console.IsTerminal(int(os.Stdin.Fd())) {
			term, err := a.console.Terminal()
			if err != nil {
				return fmt.Errorf("opening terminal: %w", err)
			}
			defer term.Close()
			in = term
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	return a.run(ctx, in)
}

// app is the fully wired poller.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.DB
	bus     *outcome.Bus
	sched   *scheduler.Scheduler
	metrics *metrics.Metrics
	mailer  *alert.Mailer
	webhook *alert.Webhook
	console *console.Console
	http    *http.Server
}

// newApp builds every component and subscribes the outcome listeners in
// delivery order: gate, checker listeners, recorder, metrics, mail, webhook,
// reschedule.
func newApp(cfg *config.Config, cfgPath string, out io.Writer, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}
	handle, err := config.LoadChecker(cfg, cfgPath, nil, logger)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db, metrics: metrics.New()}
	a.bus = outcome.NewBus(logger)
	fetcher := fetch.New(cfg.Request.Timeout.Duration, cfg.Request.Headers, cfg.Request.Verbose, logger)
	a.sched = scheduler.New(cfg.Policy(), handle, fetcher, a.bus, logger)
	a.metrics.TrackScheduling(a.sched.Enabled)

	if lp, ok := handle.Checker.(checker.ListenerProvider); ok {
		for _, l := range lp.Listeners() {
			a.bus.Subscribe(handle.Name, l)
		}
	}
	a.bus.Subscribe("recorder", storage.Recorder(db, logger))
	a.bus.Subscribe("metrics", a.metrics.Observe)

	if cfg.Alerts.Mail.Enabled {
		editor, _ := handle.Checker.(checker.ContentEditor)
		a.mailer = alert.NewMailer(cfg.Alerts.Mail, editor, logger)
		a.bus.Subscribe("mail", a.mailer.Notify)
	}
	if cfg.Alerts.Webhook.URL != "" {
		a.webhook = alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Cooldown.Duration, logger)
		a.bus.Subscribe("webhook", a.webhook.Notify)
	}

	a.console = console.New(out, logger)
	a.console.Register("sitewatch", a.confirmCommand(), a.statusCommand(out))
	if a.mailer != nil {
		a.console.Register("mail", a.mailer.TestCommand())
	}
	if cp, ok := handle.Checker.(checker.CommandProvider); ok {
		a.console.Register(handle.Name, cp.Commands()...)
	}

	if !cfg.Server.Disabled {
		api := server.New(db, a.sched, a.metrics.Handler(), logger)
		a.http = &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return a, nil
}

// run starts polling and blocks until ctx is done, the console exits, or the
// HTTP server fails. in may be nil to run without a console.
func (a *app) run(ctx context.Context, in console.LineReader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	if a.http != nil {
		go func() {
			a.logger.Info("listening", "address", a.http.Addr)
			if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()
	}

	consoleExit := make(chan struct{})
	if in != nil {
		go func() {
			err := a.console.Loop(in)
			switch {
			case err == nil:
				close(consoleExit)
			case errors.Is(err, io.EOF):
				a.logger.Debug("console input closed")
			default:
				a.logger.Error("console", "error", err)
			}
		}()
	}

	a.sched.Start(ctx)
	a.logger.Debug("outcome listeners", "order", a.bus.Names())

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case <-consoleExit:
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server: %w", err)
	}

	cancel()
	a.sched.Stop()
	if a.mailer != nil {
		a.mailer.Wait()
	}
	if a.webhook != nil {
		a.webhook.Wait()
	}

	if a.http != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown", "error", err)
		}
	}

	a.logger.Info("shutdown complete")
	return runErr
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
}

func (a *app) confirmCommand() checker.Command {
	return checker.Command{
		Names:       []string{"confirm"},
		Description: "Resumes automatic polling after a positive result",
		Run: func() {
			// The scheduler logs why a confirm was rejected.
			err := a.sched.Confirm()
			if err != nil && !errors.Is(err, scheduler.ErrAlreadyEnabled) && !errors.Is(err, scheduler.ErrConfirmUnsupported) {
				a.logger.Error("confirming", "error", err)
			}
		},
	}
}

func (a *app) statusCommand(out io.Writer) checker.Command {
	return checker.Command{
		Names:       []string{"status"},
		Description: "Shows whether automatic polling is active",
		Run: func() {
			next := "none"
			if at, ok := a.sched.NextPollAt(); ok {
				next = at.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "url: %s\nautomatic polling: %t\nnext poll: %s\n",
				a.cfg.Request.URL, a.sched.Enabled(), next)
		},
	}
}
