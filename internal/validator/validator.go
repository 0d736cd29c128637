// Package validator probes stream endpoints for reachability. It is biased
// toward false positives: directory entries are frequently served by CDNs
// that reject HEAD, lie about content types, or are geo-restricted, and a
// single-probe design marks too many working streams dead.
package validator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tunedex/tunedex/internal/models"
	"github.com/tunedex/tunedex/internal/parser"
)

// sniffBudget bounds how much of a stream body the GET probe reads.
const sniffBudget = 4096

// blockedStatus is the status set that proves a stream is refusing us.
func blockedStatus(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusGone, http.StatusUnavailableForLegalReasons:
		return true
	}
	return code >= 500
}

// contentTypeHints mark a response as plausibly a media stream or playlist.
var contentTypeHints = []string{
	"audio/",
	"video/",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"application/ogg",
	"application/octet-stream",
}

// payloadMarkers are playlist-format magic prefixes checked in the sniffed
// first bytes.
var payloadMarkers = [][]byte{
	[]byte("#EXTM3U"),
	[]byte("[playlist]"),
	[]byte("ICY 200"),
}

// Prober checks a single endpoint URL. Independent of source.
type Prober struct {
	client    *http.Client
	userAgent string
}

// New builds a Prober with the given per-probe timeout.
func New(timeout time.Duration, userAgent string) *Prober {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Prober{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Probe decides reachability for one stream URL.
//
// Known-platform URLs are accepted without probing. Otherwise a HEAD probe
// runs first; if it is inconclusive a GET probe reads the first bytes and
// inspects content type and payload markers. DNS resolution failures are
// deliberately accepted as inconclusive rather than dead: imported
// directories frequently reference hosts unreachable from the validating
// network but valid for end users. This false-positive bias is intentional
// and downstream display behavior depends on it.
func (p *Prober) Probe(ctx context.Context, streamURL string) models.ProbeResult {
	if parser.PlatformHost(streamURL) != "" {
		return models.ProbeResult{Reachable: true, Method: models.ProbeKnownPlatform, Confidence: models.ConfidenceDefinite}
	}

	ok, blocked, err := p.head(ctx, streamURL)
	if ok {
		return models.ProbeResult{Reachable: true, Method: models.ProbeHead, Confidence: models.ConfidenceDefinite}
	}
	if blocked {
		return models.ProbeResult{Reachable: false, Method: models.ProbeHead, Confidence: models.ConfidenceDefinite}
	}
	if isDNSFailure(err) {
		return models.ProbeResult{Reachable: true, Method: models.ProbeHead, Confidence: models.ConfidenceInconclusive}
	}

	ok, err = p.getSniff(ctx, streamURL)
	if ok {
		return models.ProbeResult{Reachable: true, Method: models.ProbeGetSniff, Confidence: models.ConfidenceDefinite}
	}
	if isDNSFailure(err) {
		return models.ProbeResult{Reachable: true, Method: models.ProbeGetSniff, Confidence: models.ConfidenceInconclusive}
	}
	return models.ProbeResult{Reachable: false, Method: models.ProbeGetSniff, Confidence: models.ConfidenceDefinite}
}

// head returns ok when the endpoint answered with a non-blocked status,
// blocked when the status proves refusal, and err for transport failures.
func (p *Prober) head(ctx context.Context, streamURL string) (ok, blocked bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		return false, false, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, false, err
	}
	defer resp.Body.Close()
	if blockedStatus(resp.StatusCode) {
		return false, true, nil
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, false, nil
	}
	// 4xx outside the blocked set (e.g. 405 Method Not Allowed) is
	// inconclusive; fall through to the GET probe.
	return false, false, nil
}

// getSniff issues a GET, reads a bounded first chunk, and accepts on either a
// media-ish content type or a playlist-format payload marker.
func (p *Prober) getSniff(ctx context.Context, streamURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return false, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if blockedStatus(resp.StatusCode) || resp.StatusCode >= 400 {
		return false, nil
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	for _, hint := range contentTypeHints {
		if strings.HasPrefix(ct, hint) || strings.Contains(ct, hint) {
			return true, nil
		}
	}

	chunk := make([]byte, sniffBudget)
	n, _ := io.ReadFull(resp.Body, chunk) // short reads are fine, we only sniff
	head := chunk[:n]
	for _, marker := range payloadMarkers {
		if bytes.HasPrefix(bytes.TrimSpace(head), marker) {
			return true, nil
		}
	}
	return false, nil
}

// isDNSFailure reports whether err stems from name resolution (host not
// found or a temporary DNS failure).
func isDNSFailure(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTemporary
	}
	return false
}
