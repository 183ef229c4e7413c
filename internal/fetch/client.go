// Package fetch issues the HTTP GET behind every poll.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazz-dev/sitewatch/internal/checker"
)

// MaxBodySize caps how much of a response body is read.
const MaxBodySize = 10 << 20

// Client fetches pages without following redirects.
type Client struct {
	client  *http.Client
	headers map[string]string
	verbose bool
	logger  *slog.Logger
}

// New creates a Client. A zero timeout means no timeout; a hung request then
// stalls every later poll. Pass nil logger to use the default logger.
func New(timeout time.Duration, headers map[string]string, verbose bool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers: headers,
		verbose: verbose,
		logger:  logger,
	}
}

// Get fetches url. Any status code is returned as a Response; only transport
// failures produce an error.
func (c *Client) Get(ctx context.Context, url string) (*checker.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	if c.verbose {
		c.logger.Debug("http request", "method", req.Method, "url", url, "headers", req.Header)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}

	if c.verbose {
		c.logger.Debug("http response",
			"url", url,
			"status", resp.StatusCode,
			"bytes", len(body),
			"elapsed", time.Since(start),
			"headers", resp.Header,
		)
	}

	return &checker.Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
