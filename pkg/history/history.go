// Package history reads a user's past scans from the backend.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// DefaultURL is the backend base URL used when none is configured.
const DefaultURL = "http://127.0.0.1:8000"

// ErrNoUser is returned when List is called without a user id.
var ErrNoUser = errors.New("user id is required")

// Item is one past scan.
type Item struct {
	Suggestion *string `json:"suggestion,omitempty"`
	ID         string  `json:"id"`
	ImageURL   string  `json:"image_url"`
	Label      string  `json:"label"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

type listResponse struct {
	Items []Item `json:"items"`
}

// Client fetches scan history.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	attempts   uint
	delay      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRetry sets the attempt count and initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.delay = delay
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		attempts:   3,
		delay:      500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the user's scans, newest first as the backend orders them.
// A response without "items" yields an empty list.
func (c *Client) List(ctx context.Context, userID string) ([]Item, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	endpoint := c.baseURL + "/api/v1/history?user_id=" + url.QueryEscape(userID)

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()

			data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
				return fmt.Errorf("history %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("history %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying history fetch", "attempt", n+1, "user", userID, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	if parsed.Items == nil {
		return []Item{}, nil
	}
	return parsed.Items, nil
}
