// Package logo resolves a usable logo image URL for every channel record.
// Strategies are tried in order; the final inline-SVG strategy needs no
// network and cannot fail, so resolution is total and bounded in time.
package logo

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tunedex/tunedex/internal/models"
)

// imageExtensions are accepted file suffixes for a URL-shape check.
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"}

// imagePathPatterns accept URLs that look like image endpoints without a
// file extension (CDN avatar routes and the like).
var imagePathPatterns = []string{"avatar", "favicon", "logo", "/image", "/img/"}

// candidate is one proposed logo URL. probe=false marks candidates that are
// accepted without an existence check (deterministic generators).
type candidate struct {
	url   string
	probe bool
}

// strategy produces a candidate for a record, or ok=false to pass to the
// next strategy in the chain.
type strategy struct {
	name string
	run  func(ctx context.Context, rec *models.ChannelRecord) (candidate, bool)
}

// Resolver runs the ordered fallback chain. Safe for concurrent use.
type Resolver struct {
	client     *http.Client
	userAgent  string
	directory  DirectoryLookup // optional cross-reference source
	strategies []strategy
	probeCheck bool // existence-check network candidates
}

// DirectoryLookup resolves an authoritative logo URL from a source-specific
// channel identifier (e.g. a station UUID against a secondary directory API).
type DirectoryLookup interface {
	LogoByID(ctx context.Context, id string) (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDirectoryLookup enables the cross-reference strategy.
func WithDirectoryLookup(d DirectoryLookup) Option {
	return func(r *Resolver) { r.directory = d }
}

// WithoutExistenceChecks disables the per-candidate HEAD probe (used in
// skip-online modes and tests).
func WithoutExistenceChecks() Option {
	return func(r *Resolver) { r.probeCheck = false }
}

// New builds a Resolver with the given per-probe timeout.
func New(timeout time.Duration, userAgent string, opts ...Option) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := &Resolver{
		client:     &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		probeCheck: true,
	}
	for _, o := range opts {
		o(r)
	}
	r.strategies = []strategy{
		{"existing", r.existingLogo},
		{"platform-page", r.platformPage},
		{"directory-lookup", r.directoryLookup},
		{"avatar-generator", avatarGenerator},
		{"inline-initials", inlineInitials},
	}
	return r
}

// Resolve returns a non-empty logo URL for rec. The last strategy is
// deterministic and local, so Resolve always succeeds even with every
// network probe timing out.
func (r *Resolver) Resolve(ctx context.Context, rec *models.ChannelRecord) string {
	for _, s := range r.strategies {
		cand, ok := s.run(ctx, rec)
		if !ok {
			continue
		}
		if cand.probe && r.probeCheck && !r.exists(ctx, cand.url) {
			continue
		}
		return cand.url
	}
	// Unreachable: inlineInitials always returns a candidate.
	c, _ := inlineInitials(ctx, rec)
	return c.url
}

// --- strategies, in chain order ---

// existingLogo accepts the record's current logo URL when it already looks
// like a valid image reference.
func (r *Resolver) existingLogo(ctx context.Context, rec *models.ChannelRecord) (candidate, bool) {
	if LooksLikeImageURL(rec.LogoURL) {
		return candidate{url: rec.LogoURL, probe: true}, true
	}
	return candidate{}, false
}

// platformPage scrapes the public platform page of platform-tagged records
// for an og:image (or twitter:image) tag.
func (r *Resolver) platformPage(ctx context.Context, rec *models.ChannelRecord) (candidate, bool) {
	if rec.Meta("platform") == "" {
		return candidate{}, false
	}
	img, err := r.scrapePageImage(ctx, rec.StreamURL)
	if err != nil || img == "" {
		return candidate{}, false
	}
	return candidate{url: img, probe: true}, true
}

// directoryLookup cross-references the record's source identifier against a
// secondary directory API.
func (r *Resolver) directoryLookup(ctx context.Context, rec *models.ChannelRecord) (candidate, bool) {
	if r.directory == nil {
		return candidate{}, false
	}
	id := rec.Meta("channelId")
	if id == "" {
		id = rec.Meta("tvgId")
	}
	if id == "" {
		return candidate{}, false
	}
	logoURL, err := r.directory.LogoByID(ctx, id)
	if err != nil || !LooksLikeImageURL(logoURL) {
		return candidate{}, false
	}
	return candidate{url: logoURL, probe: true}, true
}

// avatarGenerator builds a deterministic avatar URL from the channel name.
// Treated as always valid, so it is never existence-checked.
func avatarGenerator(_ context.Context, rec *models.ChannelRecord) (candidate, bool) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return candidate{}, false
	}
	u := "https://ui-avatars.com/api/?size=256&background=0D8ABC&color=fff&name=" + url.QueryEscape(name)
	return candidate{url: u, probe: false}, true
}

// inlineInitials synthesizes an SVG data URI carrying the channel's initial
// letters. Requires no network round-trip and therefore cannot fail.
func inlineInitials(_ context.Context, rec *models.ChannelRecord) (candidate, bool) {
	initials := Initials(rec.Name)
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="256" height="256"><rect width="256" height="256" fill="#0d8abc"/><text x="128" y="150" font-family="sans-serif" font-size="96" fill="#fff" text-anchor="middle">%s</text></svg>`,
		initials)
	uri := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
	return candidate{url: uri, probe: false}, true
}

// --- helpers ---

// LooksLikeImageURL applies the URL-shape check: known protocol plus a known
// image extension or image-endpoint pattern. Inline data URIs pass as well.
func LooksLikeImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "data:image/") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	lower := strings.ToLower(raw)
	for _, pat := range imagePathPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

// Initials derives up to two uppercase initials from a channel name; "?" for
// nameless records.
func Initials(name string) string {
	fields := strings.Fields(name)
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)[0]
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}

// exists issues a short HEAD existence probe.
func (r *Resolver) exists(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// scrapePageImage fetches a platform page (bounded read) and extracts the
// og:image meta tag, falling back to twitter:image.
func (r *Resolver) scrapePageImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page scrape: HTTP %d", resp.StatusCode)
	}

	buf := make([]byte, maxScrapeBytes)
	n, _ := readAtMost(resp.Body, buf)
	html := string(buf[:n])

	if img := metaContent(html, `property="og:image"`); img != "" {
		return img, nil
	}
	if img := metaContent(html, `name="twitter:image"`); img != "" {
		return img, nil
	}
	return "", nil
}
