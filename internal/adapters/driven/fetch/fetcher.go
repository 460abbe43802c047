package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// ErrTooLarge is returned when a body exceeds the requested bound.
var ErrTooLarge = errors.New("response exceeds size limit")

// defaultBackoff applies when a 429 carries no usable Retry-After.
const defaultBackoff = 30 * time.Second

// Config holds the throttling configuration.
type Config struct {
	// RequestsPerSecond is the sustained fetch rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int

	// UserAgent is sent with every request.
	UserAgent string
}

// Fetcher is an HTTP implementation of driven.Fetcher. The caller's context
// bounds each fetch; the limiter bounds how often origins are hit.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string

	mu      sync.Mutex
	retryAt time.Time
}

// New creates a fetcher. A nil client uses a client without its own
// timeout, relying on the caller's context.
func New(client *http.Client, cfg Config) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "docforge"
	}
	return &Fetcher{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves rawURL, failing if the body exceeds maxBytes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxBytes int64) (*driven.Fetched, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.backoff(resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("fetch: %d bytes: %w", resp.ContentLength, ErrTooLarge)
	}

	body := io.Reader(resp.Body)
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("fetch: more than %d bytes: %w", maxBytes, ErrTooLarge)
	}

	return &driven.Fetched{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// wait blocks for any backoff window and then for a limiter token.
func (f *Fetcher) wait(ctx context.Context) error {
	f.mu.Lock()
	retryAt := f.retryAt
	f.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return f.limiter.Wait(ctx)
}

// backoff records a rate-limit response from an origin.
func (f *Fetcher) backoff(retryAfter string) {
	d := defaultBackoff
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		d = time.Duration(secs) * time.Second
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryAt = time.Now().Add(d)
}
