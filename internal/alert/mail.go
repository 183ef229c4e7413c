// Package alert delivers notifications for poll outcomes.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/config"
	"github.com/hazz-dev/sitewatch/internal/outcome"
)

const (
	smtpTimeout = 30 * time.Second
	sendTimeout = 2 * time.Minute
)

// Sender transmits a composed message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// Mailer sends the configured mail to every recipient (as BCC) on positive results.
type Mailer struct {
	cfg    config.MailConfig
	editor checker.ContentEditor
	sender Sender
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewMailer creates a Mailer that delivers over SMTP. editor may be nil.
// Pass nil logger to use the default logger.
func NewMailer(cfg config.MailConfig, editor checker.ContentEditor, logger *slog.Logger) *Mailer {
	return NewMailerWithSender(cfg, editor, &smtpSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
	}, logger)
}

// NewMailerWithSender creates a Mailer with a custom Sender (for testing).
func NewMailerWithSender(cfg config.MailConfig, editor checker.ContentEditor, sender Sender, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{cfg: cfg, editor: editor, sender: sender, logger: logger}
}

// Notify is an outcome listener. The mail is sent in the background so a slow
// SMTP server does not hold up later listeners; delivery errors are logged.
func (m *Mailer) Notify(r outcome.Result) {
	if r.Outcome != outcome.Positive {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := m.Send(ctx); err != nil {
			m.logger.Error("sending mail", "poll_id", r.ID, "error", err)
		}
	}()
}

// Wait blocks until every mail started by Notify has been handed off or failed.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

// Send delivers the mail now.
func (m *Mailer) Send(ctx context.Context) error {
	content := m.cfg.Content
	if m.editor != nil {
		content = m.editor.EditMailContent(content)
	}

	msg, err := m.message(content, time.Now())
	if err != nil {
		return err
	}
	m.logger.Info("sending mail", "recipients", len(m.cfg.To))
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("delivering mail: %w", err)
	}
	m.logger.Info("mail sent")
	return nil
}

// TestCommand returns the console command that sends the regular mail on demand.
func (m *Mailer) TestCommand() checker.Command {
	return checker.Command{
		Names:       []string{"testmail"},
		Description: "Sends a test mail with exactly the same data as regular mails",
		Run: func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			if err := m.Send(ctx); err != nil {
				m.logger.Error("sending test mail", "error", err)
			}
		},
	}
}

func (m *Mailer) message(content checker.MailContent, now time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("setting sender %q: %w", m.cfg.From, err)
	}
	if err := msg.Bcc(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("setting recipients: %w", err)
	}
	msg.Subject(content.Subject)
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextPlain, content.Text)
	return msg, nil
}

// smtpSender uses implicit TLS on port 465 and STARTTLS elsewhere when offered.
type smtpSender struct {
	host     string
	port     int
	username string
	password string
}

func (s *smtpSender) Send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTimeout(smtpTimeout),
	}
	if s.port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client for %s: %w", s.host, err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
