package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRateLimit   = 1 * time.Second
	defaultMaxAttempts = 3
	defaultRetryAfter  = 60 * time.Second
	userAgent          = "regwatch/1.0 (+https://github.com/regwatch/regwatch)"
)

// Client is a rate-limited, retrying HTTP GET client. Each instance paces
// its own requests (lastRequest is per-client state, not process-global),
// so independent upstreams get independent pacing.
//
// Retry policy: 429 waits out the server's Retry-After (default 60s) and
// retries without consuming an attempt; 5xx, timeouts and connection
// failures back off 2^attempt seconds up to maxAttempts; other 4xx fail
// immediately.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	rateLimit   time.Duration
	maxAttempts int
	lastRequest time.Time
	logger      *log.Logger

	// now and sleep are injectable so retry behavior is testable without
	// real delays.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the X-Api-Key header on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// WithRateLimit sets the minimum interval between requests.
func WithRateLimit(d time.Duration) ClientOption {
	return func(c *Client) { c.rateLimit = d }
}

// WithMaxAttempts sets the retry budget for transient failures.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) { c.maxAttempts = n }
}

// WithClock replaces the wall clock and sleeper, for tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

// NewClient creates a Client with default pacing and retry policy.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimit:   defaultRateLimit,
		maxAttempts: defaultMaxAttempts,
		logger:      log.New(os.Stdout, "", log.LstdFlags),
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches rawURL (with optional query parameters) and decodes the
// response body into v. All transport and status failures come back as the
// typed errors in errors.go; nothing panics or escapes unclassified.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	body, err := c.get(ctx, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{URL: rawURL, Err: err}
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Timeouts and connection failures retry like 5xx.
			lastErr = err
			c.logger.Printf("request failed (attempt %d/%d): %v", attempt+1, c.maxAttempts, err)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := retryAfter(resp.Header)
			c.logger.Printf("rate limited (HTTP 429), waiting %s: %s", wait, rawURL)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			// The server told us when to come back; this is not a
			// failed attempt.
			attempt--
			continue

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
			c.logger.Printf("server error %d (attempt %d/%d): %s", resp.StatusCode, attempt+1, c.maxAttempts, rawURL)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode >= 400:
			return nil, &RequestRejectedError{
				URL:        rawURL,
				StatusCode: resp.StatusCode,
				Body:       truncate(string(body), 500),
			}
		}

		return body, nil
	}

	return nil, &TransientError{URL: rawURL, Attempts: c.maxAttempts, Err: lastErr}
}

// pace enforces the minimum interval between requests on this client.
func (c *Client) pace(ctx context.Context) error {
	if c.rateLimit > 0 && !c.lastRequest.IsZero() {
		if wait := c.rateLimit - c.now().Sub(c.lastRequest); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastRequest = c.now()
	return nil
}

// backoff sleeps 2^attempt seconds before the next retry.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	return c.sleep(ctx, time.Duration(1<<attempt)*time.Second)
}

// retryAfter reads the server's suggested wait from a 429 response,
// defaulting to 60s when absent or unparseable.
func retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
