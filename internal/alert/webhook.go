package alert

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

// Webhook posts a JSON notification for positive results.
type Webhook struct {
	url       string
	cooldown  time.Duration
	client    *http.Client
	lastAlert time.Time
	mu        sync.Mutex
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// NewWebhook creates a Webhook. Pass nil logger to use the default logger.
func NewWebhook(url string, cooldown time.Duration, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:      url,
		cooldown: cooldown,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type webhookPayload struct {
	PollID     string `json:"poll_id"`
	URL        string `json:"url"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	PolledAt   string `json:"polled_at"`
	Source     string `json:"source"`
}

// Notify is an outcome listener. It sends on positive results unless the
// previous alert was sent less than the cooldown ago.
func (w *Webhook) Notify(r outcome.Result) {
	if r.Outcome != outcome.Positive {
		return
	}

	w.mu.Lock()
	if !w.lastAlert.IsZero() && time.Since(w.lastAlert) < w.cooldown {
		w.mu.Unlock()
		w.logger.Info("webhook suppressed by cooldown", "poll_id", r.ID)
		return
	}
	w.lastAlert = time.Now()
	w.mu.Unlock()

	// Send asynchronously so Notify doesn't block the poll fan-out.
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.send(r)
	}()
}

// Wait blocks until in-flight webhook requests have finished.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

func (w *Webhook) send(r outcome.Result) {
	payload := webhookPayload{
		PollID:     r.ID.String(),
		URL:        r.URL,
		Outcome:    string(r.Outcome),
		StatusCode: r.StatusCode,
		DurationMs: r.Duration.Milliseconds(),
		PolledAt:   r.PolledAt.UTC().Format(time.RFC3339),
		Source:     "sitewatch",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("marshaling webhook payload", "poll_id", r.ID, "error", err)
		return
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		w.logger.Error("sending webhook", "poll_id", r.ID, "url", w.url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn("webhook returned non-2xx status",
			"poll_id", r.ID,
			"status", resp.StatusCode,
		)
		return
	}
	w.logger.Info("webhook sent", "poll_id", r.ID)
}
