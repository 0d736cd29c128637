package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tunedex/tunedex/internal/models"
	"github.com/tunedex/tunedex/internal/parser"
)

// maxPlaylistDepth caps nested "playlist of playlists" expansion.
const maxPlaylistDepth = 2

// IPTVCatalog fetches TV channels from a community playlist catalog that
// publishes one M3U per country and category plus a worldwide index.
type IPTVCatalog struct {
	transport *Transport
	baseURL   string
	priority  int
}

// NewIPTVCatalog builds the playlist catalog client.
func NewIPTVCatalog(t *Transport, baseURL string, priority int) *IPTVCatalog {
	if baseURL == "" {
		baseURL = "https://iptv-org.github.io/iptv"
	}
	return &IPTVCatalog{transport: t, baseURL: strings.TrimRight(baseURL, "/"), priority: priority}
}

// Descriptor implements Client.
func (c *IPTVCatalog) Descriptor() models.SourceDescriptor {
	return models.SourceDescriptor{
		Name:     models.SourceIPTVCatalog,
		BaseURL:  c.baseURL,
		Priority: c.priority,
	}
}

// Fetch downloads the playlist selected by the filters (country beats
// category; unset selects the worldwide index), parses it, and expands nested
// playlists up to maxPlaylistDepth. Entries whose expansion fails are kept as
// direct references and counted as soft failures.
func (c *IPTVCatalog) Fetch(ctx context.Context, filters models.Filters) (FetchResult, error) {
	path, label := c.playlistFor(filters)

	body, err := c.transport.Get(ctx, c.baseURL+path, MaxPageBytes)
	if err != nil {
		return FetchResult{}, fmt.Errorf("iptv catalog: %w", err)
	}
	records, err := parser.ParseM3U(bytes.NewReader(body), models.SourceIPTVCatalog, label)
	if err != nil {
		return FetchResult{}, fmt.Errorf("iptv catalog: %w", err)
	}

	var result FetchResult
	seen := make(map[string]struct{})
	visited := map[string]struct{}{strings.ToLower(c.baseURL + path): {}}
	c.expand(ctx, records, label, 0, visited, seen, filters.Limit, &result)
	return result, nil
}

// expand appends records to result, recursing into entries that look like
// nested playlist documents. visited guards against playlist cycles in
// addition to the depth cap.
func (c *IPTVCatalog) expand(ctx context.Context, records []models.ChannelRecord, label string,
	depth int, visited, seen map[string]struct{}, limit int, result *FetchResult) {

	for i := range records {
		if limit > 0 && len(result.Records) >= limit {
			return
		}
		rec := records[i]
		key := rec.CanonicalURL()

		if depth < maxPlaylistDepth && rec.Meta("platform") == "" && parser.LooksLikePlaylist(rec.StreamURL) {
			if _, cyc := visited[key]; !cyc {
				visited[key] = struct{}{}
				nested, err := c.fetchNested(ctx, rec.StreamURL, rec.Name)
				if err == nil {
					c.expand(ctx, nested, rec.Name, depth+1, visited, seen, limit, result)
					continue
				}
				// Keep the entry as a direct (possibly non-functional)
				// reference rather than dropping it.
				log.Printf("iptv catalog: expand %s: %v", rec.StreamURL, err)
				result.SoftFailures++
			}
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result.Records = append(result.Records, rec)
	}
}

func (c *IPTVCatalog) fetchNested(ctx context.Context, url, label string) ([]models.ChannelRecord, error) {
	body, err := c.transport.Get(ctx, url, MaxPageBytes)
	if err != nil {
		return nil, err
	}
	return parser.ParseM3U(bytes.NewReader(body), models.SourceIPTVCatalog, label)
}

// playlistFor maps filters onto the catalog's published playlist paths.
// Matching is case-insensitive against the catalog's own codes.
func (c *IPTVCatalog) playlistFor(filters models.Filters) (path, label string) {
	switch {
	case filters.Country != "":
		code := strings.ToLower(filters.Country)
		return "/countries/" + code + ".m3u", "country " + code
	case filters.Category != "":
		cat := strings.ToLower(filters.Category)
		return "/categories/" + cat + ".m3u", "category " + cat
	default:
		return "/index.m3u", "worldwide index"
	}
}
