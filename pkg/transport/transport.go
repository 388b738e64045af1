// Package transport executes single upstream HTTP calls on behalf of the
// provider clients. A call is bounded by a per-call timeout and a small fixed
// retry budget; the decoded JSON payload is handed back untouched; payload
// semantics are left to the caller.
//
// Failures come back as one of three typed errors so callers can tell a
// network problem, a non-2xx status and a malformed body apart. A 401 response
// is never retried because it means the credential is stale, which the token
// owner repairs on the next call.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/vsoeiu/LegatumM/pkg/metrics"
)

const (
	userAgent = "Legatum/1.0"
	// maxBody caps how much of a response is read before decoding.
	maxBody = 2 << 20
)

// Options controls timeouts and the retry budget of a Client.
type Options struct {
	// Timeout bounds search and listing calls.
	Timeout time.Duration
	// QuickTimeout bounds single-item lookups.
	QuickTimeout time.Duration
	MaxRetries   uint64
	RetryDelay   time.Duration
	// BreakerThreshold consecutive failed calls open the provider's
	// circuit for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultOptions mirrors the production limits: 5s per call, 3s for quick
// lookups, two retries half a second apart and a breaker that opens for a
// minute after five failed calls.
func DefaultOptions() Options {
	return Options{
		Timeout:          5 * time.Second,
		QuickTimeout:     3 * time.Second,
		MaxRetries:       2,
		RetryDelay:       500 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerCooldown:  time.Minute,
	}
}

// Request describes one upstream call. Query is appended to URL; Form, when
// set, is sent as an urlencoded body.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Form   url.Values
	Header http.Header
	// Quick selects the short timeout for single-item lookups.
	Quick bool
}

// Client performs requests against one upstream provider.
type Client struct {
	provider string
	http     *http.Client
	opts     Options
	breaker  *breaker
	logger   logrus.FieldLogger
}

// New returns a Client labelled with provider for logs and metrics. A nil
// httpClient falls back to a fresh http.Client; timeouts are applied per call
// through the request context so the client itself carries none.
func New(provider string, httpClient *http.Client, opts Options, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.QuickTimeout <= 0 {
		opts.QuickTimeout = opts.Timeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Millisecond
	}
	return &Client{
		provider: provider,
		http:     httpClient,
		opts:     opts,
		breaker:  newBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		logger:   logger.WithField("provider", provider),
	}
}

// HTTP exposes the underlying http.Client so credential exchanges share the
// same connection pool.
func (c *Client) HTTP() *http.Client { return c.http }

// Provider returns the label the client was created with.
func (c *Client) Provider() string { return c.provider }

// Fetch executes req, retrying transient failures, and decodes the JSON body
// into dst. dst may be nil when only the status matters. While the
// provider's circuit is open Fetch fails fast with a NetworkError wrapping
// ErrCircuitOpen.
func (c *Client) Fetch(ctx context.Context, req Request, dst any) error {
	if !c.breaker.allow() {
		err := &NetworkError{Provider: c.provider, URL: req.URL, Err: ErrCircuitOpen}
		c.record(err)
		return err
	}
	err := c.fetch(ctx, req, dst)
	if state, changed := c.breaker.done(err); changed {
		metrics.BreakerTransitions.WithLabelValues(c.provider, state.String()).Inc()
		c.logger.WithField("state", state.String()).Warn("circuit breaker state changed")
	}
	return err
}

func (c *Client) fetch(ctx context.Context, req Request, dst any) error {
	backoff := retry.WithMaxRetries(c.opts.MaxRetries, retry.NewConstant(c.opts.RetryDelay))

	attempt := 0
	var body []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.UpstreamRetries.WithLabelValues(c.provider).Inc()
			c.logger.WithFields(logrus.Fields{"url": req.URL, "attempt": attempt}).Debug("retrying upstream call")
		}
		b, err := c.once(ctx, req)
		if err != nil {
			if !retryable(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		body = b
		return nil
	})
	if err != nil {
		c.record(err)
		c.logger.WithFields(logrus.Fields{"url": req.URL, "attempts": attempt, "error": err}).Warn("upstream call failed")
		return err
	}

	if dst != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			derr := &DecodeError{Provider: c.provider, URL: req.URL, Err: err}
			c.record(derr)
			return derr
		}
	}
	c.record(nil)
	return nil
}

// retryable reports whether another attempt could succeed. Client errors
// are final except request timeouts and rate limiting.
func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	if se.Code < 400 || se.Code >= 500 {
		return true
	}
	return se.Code == http.StatusRequestTimeout || se.Code == http.StatusTooManyRequests
}

func (c *Client) once(ctx context.Context, req Request) ([]byte, error) {
	timeout := c.opts.Timeout
	if req.Quick {
		timeout = c.opts.QuickTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}
	var payload io.Reader
	if req.Form != nil {
		payload = strings.NewReader(req.Form.Encode())
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("User-Agent", userAgent)
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	if req.Form != nil {
		hreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, &NetworkError{Provider: c.provider, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Provider: c.provider, URL: req.URL, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Provider: c.provider, URL: req.URL, Err: err}
	}
	return body, nil
}

func (c *Client) record(err error) {
	outcome := "ok"
	var (
		se *StatusError
		de *DecodeError
	)
	switch {
	case err == nil:
	case errors.As(err, &se):
		outcome = "status"
	case errors.As(err, &de):
		outcome = "decode"
	default:
		outcome = "network"
	}
	metrics.UpstreamRequests.WithLabelValues(c.provider, outcome).Inc()
}
