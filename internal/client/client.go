// Package client talks to the remote submission REST API. Every
// operation returns a uniform Envelope instead of a Go error: server
// rejections, transport failures, and timeouts all normalize into the
// same success/failure shape the wizard inspects.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	maxAttempts       = 3
	baseDelay         = time.Second
	maxDelay          = 10 * time.Second
	backoffMultiplier = 2

	requestTimeout = 30 * time.Second
	uploadTimeout  = 60 * time.Second

	timeoutMessage = "Request timed out. Please check your connection and try again."
	networkMessage = "Network error. Please check your connection and try again."
)

// Envelope is the uniform outcome of one API operation. On failure,
// Message carries a human-readable explanation and Errors an optional
// per-field error map from the server.
type Envelope[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Status  int                 `json:"status,omitempty"`
}

// Client is the HTTP client for the remote submission API plus the
// local upload endpoint. Safe for concurrent use.
type Client struct {
	baseURL    string
	uploadBase string
	http       *http.Client
	log        *zap.Logger

	// sleep and jitter are swapped out in tests.
	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithUploadBase sets the base URL of the local upload endpoint.
// Defaults to the API base URL.
func WithUploadBase(base string) Option {
	return func(c *Client) { c.uploadBase = base }
}

// New creates a Client against the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		uploadBase: baseURL,
		http:       &http.Client{},
		log:        zap.NewNop(),
		sleep:      sleepCtx,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(time.Second)))
		},
	}
	for _, opt := range opts {
		opt(c)
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

// raw is the undecoded outcome of one request cycle.
type raw struct {
	success bool
	data    []byte
	message string
	errors  map[string][]string
	status  int
}

// decode turns a raw outcome into a typed envelope.
func decode[T any](r raw) Envelope[T] {
	env := Envelope[T]{
		Success: r.success,
		Message: r.message,
		Errors:  r.errors,
		Status:  r.status,
	}
	if r.success && len(r.data) > 0 {
		if err := json.Unmarshal(r.data, &env.Data); err != nil {
			return Envelope[T]{
				Message: fmt.Sprintf("decode response: %v", err),
				Status:  r.status,
			}
		}
	}
	return env
}

// do runs one JSON request with the shared retry policy: up to
// maxAttempts attempts, exponential backoff with jitter, Retry-After
// honored on 429.
func (c *Client) do(ctx context.Context, method, path string, body any) raw {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return raw{message: fmt.Sprintf("encode request: %v", err)}
		}
		payload = b
	}

	var last raw
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, retryable, retryAfter := c.once(ctx, method, path, payload)
		if !retryable || attempt == maxAttempts {
			return res
		}
		last = res

		delay := c.backoff(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		c.log.Warn("request failed, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.status),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))
		if err := c.sleep(ctx, delay); err != nil {
			return last
		}
	}
	return last
}

// once performs a single attempt. It reports whether the failure is
// retryable and, for rate-limited responses, the server-requested delay.
func (c *Client) once(ctx context.Context, method, path string, payload []byte) (raw, bool, time.Duration) {
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(rctx, method, c.baseURL+path, body)
	if err != nil {
		return raw{message: fmt.Sprintf("build request: %v", err)}, false, 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Caller cancellation is not worth retrying.
			return raw{message: networkMessage}, false, 0
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return raw{message: timeoutMessage}, true, 0
		}
		return raw{message: networkMessage}, true, 0
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return raw{message: networkMessage, status: resp.StatusCode}, true, 0
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw{success: true, data: data, status: resp.StatusCode}, false, 0
	}

	var apiErr struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(data, &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = fmt.Sprintf("Server error (%d)", resp.StatusCode)
	}
	out := raw{message: msg, errors: apiErr.Errors, status: resp.StatusCode}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var after time.Duration
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				after = time.Duration(secs) * time.Second
			}
		}
		return out, true, after
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout:
		return out, true, 0
	default:
		return out, false, 0
	}
}

// backoff computes the delay before the attempt following attempt n.
func (c *Client) backoff(attempt int) time.Duration {
	d := baseDelay
	for i := 1; i < attempt; i++ {
		d *= backoffMultiplier
	}
	if d > maxDelay {
		d = maxDelay
	}
	return d + c.jitter()
}
