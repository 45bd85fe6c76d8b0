// Package httpclient is the outbound JSON GET client shared by the vendor
// adapters: client-side rate limit, retries with backoff on 429/5xx,
// Retry-After, and per-service metrics.
package httpclient

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/domain"
)

var (
	ErrNotFound     = fmt.Errorf("remote: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrForbidden    = errors.New("remote: forbidden")
)

// StatusError is a non-retryable response the client does not map.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("bad status %d: %s", e.Code, e.Body) }

type Options struct {
	Service string // metrics label
	BaseURL string
	Headers map[string]string
	RPS     int
	Retries int // extra attempts after the first; 0 means 3
	Timeout time.Duration
	HTTP    *http.Client
}

type Client struct {
	service string
	base    string
	headers map[string]string
	hc      *http.Client
	rl      *rate.Limiter
	retries int
}

func New(o Options) *Client {
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	hc := o.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		service: o.Service,
		base:    strings.TrimRight(o.BaseURL, "/"),
		headers: o.Headers,
		hc:      hc,
		rl:      rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		retries: o.Retries,
	}
}

// GetJSON fetches base+path?q and decodes the body into out. endpoint names
// the call in metrics and logs.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		wait, err := c.do(ctx, endpoint, u, out)
		if err == nil {
			return nil
		}
		if wait < 0 {
			return err
		}
		lastErr = err
		if attempt == c.retries {
			break
		}
		if wait == 0 {
			wait = backoff(attempt)
		}
		log.Debug().Str("provider", c.service).Str("endpoint", endpoint).Int("attempt", attempt+1).
			Dur("wait", wait).Err(err).Msg("retrying vendor call")
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
	return lastErr
}

// do runs one attempt. A negative wait means the error is final; otherwise
// the caller may retry after wait (0 picks the default backoff).
func (c *Client) do(ctx context.Context, endpoint, u string, out any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return -1, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "trip-planner/1.0")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}
		return 0, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

	switch code := resp.StatusCode; {
	case code == http.StatusNoContent:
		return -1, nil
	case code >= 200 && code < 300:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return -1, fmt.Errorf("%s %s: decode: %w", c.service, endpoint, err)
		}
		return -1, nil
	case code == http.StatusNotFound:
		return -1, ErrNotFound
	case code == http.StatusUnauthorized:
		return -1, ErrUnauthorized
	case code == http.StatusForbidden:
		return -1, ErrForbidden
	case code == http.StatusTooManyRequests || code >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return retryAfter(resp), fmt.Errorf("%s %s: remote %d", c.service, endpoint, code)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return -1, &StatusError{Code: code, Body: strings.TrimSpace(string(b))}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter reads Retry-After as seconds or an HTTP date; 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to 50% jitter.
func backoff(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(float64(base)*0.5*float64(b[0])/255)
}
