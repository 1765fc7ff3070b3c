// Package adminapi is the admin dashboard's client for the Fixoo JSON API.
//
// Every call goes through Do, which retries against a cold or sleeping
// backend: a 502/503 response or a transport failure (connection error or
// the per-attempt deadline) triggers a best-effort GET /health to wake the
// service, a short wait, and another attempt. After the last attempt the
// caller sees errs.ErrServerUnreachable; the underlying cause is only logged.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/errs"
)

// Defaults for the retry loop.
const (
	DefaultMaxAttempts     = 3
	DefaultTimeout         = 30 * time.Second
	DefaultUnavailableWait = 2 * time.Second
	DefaultNetworkWait     = 3 * time.Second
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent without Authorization.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client calls the API under <base>/api and probes <base>/health.
type Client struct {
	base            string
	http            *http.Client
	tokens          TokenSource
	session         *Session
	log             *zap.Logger
	maxAttempts     int
	timeout         time.Duration
	unavailableWait time.Duration
	networkWait     time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

// WithSession uses s both as token source and as the place Login stores credentials.
func WithSession(s *Session) Option {
	return func(c *Client) {
		c.session = s
		c.tokens = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithMaxAttempts bounds the number of attempts per call.
func WithMaxAttempts(n int) Option { return func(c *Client) { c.maxAttempts = n } }

// WithTimeout sets the per-attempt deadline.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithBackoff sets the waits after a 502/503 and after a transport failure.
func WithBackoff(unavailable, network time.Duration) Option {
	return func(c *Client) {
		c.unavailableWait = unavailable
		c.networkWait = network
	}
}

// WithSleep replaces the wait function, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// New constructs a client for the server rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:            strings.TrimRight(baseURL, "/"),
		http:            &http.Client{},
		log:             zap.NewNop(),
		maxAttempts:     DefaultMaxAttempts,
		timeout:         DefaultTimeout,
		unavailableWait: DefaultUnavailableWait,
		networkWait:     DefaultNetworkWait,
		sleep:           sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do sends method <base>/api<path> with body encoded as JSON and decodes the
// response into out. Any status other than 502/503 is decoded as is; callers
// check the application-level success flag. It returns the final HTTP status.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("adminapi: encode request: %w", err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		status, raw, err := c.attempt(ctx, method, path, payload)

		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
			wait = c.networkWait
		case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
			lastErr = fmt.Errorf("%w: status %d", errs.ErrUnavailable, status)
			wait = c.unavailableWait
		default:
			if out != nil && len(bytes.TrimSpace(raw)) > 0 {
				if err := json.Unmarshal(raw, out); err != nil {
					return status, fmt.Errorf("adminapi: %s %s: status %d: decode: %w", method, path, status, err)
				}
			}
			return status, nil
		}

		c.log.Warn("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == c.maxAttempts {
			break
		}
		c.wake(ctx)
		if err := c.sleep(ctx, wait); err != nil {
			return 0, err
		}
	}

	c.log.Error("api unreachable",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("attempts", c.maxAttempts),
		zap.Error(lastErr),
	)
	return 0, errs.ErrServerUnreachable
}

// attempt performs one request under the per-attempt deadline and reads the body.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api"+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// wake nudges the backend with GET /health. The outcome is ignored.
func (c *Client) wake(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("wake probe failed", zap.Error(err))
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	c.log.Debug("wake probe", zap.Int("status", resp.StatusCode))
}

// APIError is an application-level failure reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Unwrap maps the HTTP status onto a sentinel from internal/errs.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return errs.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return errs.ErrUnauthorized
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrAlreadyExists
	case http.StatusTooManyRequests:
		return errs.ErrRateLimited
	}
	return nil
}

// IsUnreachable reports whether err is the terminal retry failure.
func IsUnreachable(err error) bool { return errors.Is(err, errs.ErrServerUnreachable) }
