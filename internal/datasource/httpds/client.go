// Package httpds reads JSON documents over HTTP.
//
// Every document is one GET. Transport errors, 429 and 5xx answers are
// retried with a doubling backoff, or after the server's Retry-After when it
// sends one. Any other non-2xx answer is final and reported as *StatusError.
package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultBackoff    = 200 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second

	// acceptJSON is sent unless the source sets its own Accept header.
	acceptJSON = "application/json, application/x-ndjson;q=0.9, */*;q=0.1"

	// snippetBytes of an error body are kept in StatusError.
	snippetBytes = 256
)

// Config tunes a Client. Zero values pick the defaults: 30s timeout, no
// retries, 200ms first backoff capped at 5s.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// StatusError is a final non-2xx answer.
type StatusError struct {
	URL      string
	Code     int
	Body     string
	Attempts int
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("httpds: GET %s: status %d after %d attempt(s)", e.URL, e.Code, e.Attempts)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client fetches documents. One Client is shared by every URL of a run.
type Client struct {
	http *http.Client
	cfg  Config

	// wait blocks for d or until ctx is done; tests replace it.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
		wait: waitContext,
	}
}

// Fetch GETs url and returns the body of the first 2xx answer. The caller
// closes it.
func (c *Client) Fetch(ctx context.Context, url string, headers http.Header) (io.ReadCloser, error) {
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		body, retryAfter, err := c.get(ctx, url, headers, attempt)
		if err == nil {
			return body, nil
		}
		if retryAfter < 0 || attempt >= attempts || ctx.Err() != nil {
			return nil, err
		}
		d := c.backoff(attempt)
		if retryAfter > 0 {
			d = min(retryAfter, c.cfg.MaxBackoff)
		}
		log.Printf("httpds: %s: attempt %d/%d: %v; retrying in %s", url, attempt, attempts, err, d)
		if err := c.wait(ctx, d); err != nil {
			return nil, err
		}
	}
}

// get makes one attempt. retryAfter is negative when the failure is final,
// positive when the server asked for a delay, and zero otherwise.
func (c *Client) get(ctx context.Context, url string, headers http.Header, attempt int) (body io.ReadCloser, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, -1, fmt.Errorf("httpds: %w", err)
	}
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", acceptJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpds: GET %s: %w", url, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp.Body, 0, nil
	}

	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetBytes))
	serr := &StatusError{URL: url, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet)), Attempts: attempt}
	if !retryable(resp.StatusCode) {
		return nil, -1, serr
	}
	return nil, parseRetryAfter(resp.Header.Get("Retry-After")), serr
}

// backoff is the wait after the given 1-based attempt.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.Backoff
	for i := 1; i < attempt && d < c.cfg.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, c.cfg.MaxBackoff)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseRetryAfter reads the delay-seconds form of Retry-After. HTTP dates
// and garbage yield 0, which falls back to the backoff.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// URL is a datasource.Source reading one document.
type URL struct {
	client  *Client
	url     string
	headers http.Header
}

// NewURL returns a source for url sending headers with every attempt.
func NewURL(c *Client, url string, headers http.Header) *URL {
	return &URL{client: c, url: url, headers: headers}
}

// Open fetches the document.
func (u *URL) Open(ctx context.Context) (io.ReadCloser, error) {
	if u.url == "" {
		return nil, errors.New("httpds: empty url")
	}
	return u.client.Fetch(ctx, u.url, u.headers)
}
