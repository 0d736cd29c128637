package sources

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the aggregator to directory operators.
const DefaultUserAgent = "Tunedex/1.0 (+https://github.com/tunedex/tunedex)"

// Byte ceilings for buffered response bodies. Reads abort once exceeded so a
// pathological or malicious response cannot exhaust memory.
const (
	MaxPageBytes     = 32 << 20 // bulk JSON/XML/playlist downloads
	MaxMetadataBytes = 2 << 20  // page scrapes and small lookups
)

// Transport is the shared HTTP policy for directory clients: custom
// User-Agent, per-attempt timeout, server-pool rotation, and exponential
// backoff. Total attempts are capped by min(retries × pool size, maxRetries).
type Transport struct {
	client     *http.Client
	userAgent  string
	retries    int // attempts per server in the pool
	maxRetries int // absolute attempt cap
	backoff    time.Duration
	sleep      func(context.Context, time.Duration) error // injectable for tests
}

// NewTransport builds a Transport with the given per-attempt timeout.
// retries and maxRetries fall back to 2 and 6 when non-positive.
func NewTransport(timeout time.Duration, userAgent string, retries, maxRetries int) *Transport {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if retries <= 0 {
		retries = 2
	}
	if maxRetries <= 0 {
		maxRetries = 6
	}
	return &Transport{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		retries:    retries,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
		sleep:      sleepCtx,
	}
}

// statusFatal reports whether a status code counts as a failed attempt,
// triggering rotation and retry.
func statusFatal(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	}
	return code >= 500 || code < 200 || code >= 300
}

// Get fetches a single URL once per retry budget (pool of one) and returns
// the body, capped at maxBytes.
func (t *Transport) Get(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	return t.GetRotating(ctx, []string{url}, "", maxBytes)
}

// GetRotating fetches servers[i]+path, starting at a random pool position and
// rotating to the next server after each failed attempt with exponential
// backoff in between. It returns the first successful body, capped at
// maxBytes, or the last error once the attempt cap is reached.
func (t *Transport) GetRotating(ctx context.Context, servers []string, path string, maxBytes int64) ([]byte, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers in pool")
	}
	attempts := t.retries * len(servers)
	if attempts > t.maxRetries {
		attempts = t.maxRetries
	}

	start := rand.Intn(len(servers))
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			// Exponential backoff: base, 2×base, 4×base, ...
			if err := t.sleep(ctx, t.backoff<<(i-1)); err != nil {
				return nil, err
			}
		}
		server := servers[(start+i)%len(servers)]
		body, err := t.getOnce(ctx, server+path, maxBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (t *Transport) getOnce(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do %s: %w", url, err)
	}
	defer resp.Body.Close()
	if statusFatal(resp.StatusCode) {
		return nil, fmt.Errorf("%s: HTTP %d", url, resp.StatusCode)
	}
	return readCapped(resp.Body, maxBytes)
}

// readCapped reads at most maxBytes and errors when the body exceeds it.
func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("response exceeds %d byte cap", maxBytes)
	}
	return body, nil
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
