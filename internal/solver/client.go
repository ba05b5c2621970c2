// Package solver is the HTTP client for the external route solver.
package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vorp/internal/metrics"
	"vorp/internal/model"
	"vorp/internal/obs"
)

const DefaultURL = "http://localhost:5000/api/v1/calculate_routes"

// maxBody caps how much of a solver response is read.
const maxBody = 32 << 20

// TransportError is a solver call that did not produce a usable body: the
// request failed, or the solver answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return "solver request failed: " + e.Err.Error()
	}
	if e.Body != "" {
		return fmt.Sprintf("solver returned %s: %s", e.Status, e.Body)
	}
	return "solver returned " + e.Status
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client. Zero values mean no timeout and no rate limit.
type Options struct {
	URL     string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client posts route requests to the solver. Calls are never retried.
type Client struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

func New(opts Options) *Client {
	url := opts.URL
	if url == "" {
		url = DefaultURL
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &Client{url: url, http: &http.Client{Timeout: opts.Timeout}, limiter: lim}
}

func (c *Client) URL() string { return c.url }

// Calculate sends req and returns the raw response body for normalization.
func (c *Client) Calculate(ctx context.Context, req model.RouteRequest) (body []byte, err error) {
	defer obs.Time(ctx, "solver.calculate")(&err)
	start := time.Now()
	defer func() {
		metrics.SolverDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.SolverRequests.WithLabelValues("transport").Inc()
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("rate limit: %w", err)}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: resp.Status, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	return b, nil
}
