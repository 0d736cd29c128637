package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/tunedex/tunedex/internal/models"
	"github.com/tunedex/tunedex/internal/parser"
)

// IcecastDirectory fetches audio streams from an icecast-style yellow-pages
// directory published as one XML document of <entry> blocks.
type IcecastDirectory struct {
	transport *Transport
	baseURL   string
	priority  int
}

// NewIcecastDirectory builds the XML directory client.
func NewIcecastDirectory(t *Transport, baseURL string, priority int) *IcecastDirectory {
	if baseURL == "" {
		baseURL = "https://dir.xiph.org/yp.xml"
	}
	return &IcecastDirectory{transport: t, baseURL: baseURL, priority: priority}
}

// Descriptor implements Client.
func (d *IcecastDirectory) Descriptor() models.SourceDescriptor {
	return models.SourceDescriptor{
		Name:     models.SourceIcecast,
		BaseURL:  d.baseURL,
		Priority: d.priority,
	}
}

// Fetch downloads the whole directory document and filters it client-side;
// the directory offers no server-side taxonomy queries. The genre filter is
// an exact, case-insensitive match.
func (d *IcecastDirectory) Fetch(ctx context.Context, filters models.Filters) (FetchResult, error) {
	body, err := d.transport.Get(ctx, d.baseURL, MaxPageBytes)
	if err != nil {
		return FetchResult{}, fmt.Errorf("icecast directory: %w", err)
	}
	records, err := parser.ParseDirectoryXML(body, models.SourceIcecast, "yellow pages")
	if err != nil {
		return FetchResult{}, fmt.Errorf("icecast directory: %w", err)
	}

	var result FetchResult
	seen := make(map[string]struct{})
	for i := range records {
		rec := records[i]
		if filters.Category != "" && !strings.EqualFold(rec.Category, filters.Category) {
			continue
		}
		key := rec.CanonicalURL()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result.Records = append(result.Records, rec)
		if filters.Limit > 0 && len(result.Records) >= filters.Limit {
			break
		}
	}
	return result, nil
}
