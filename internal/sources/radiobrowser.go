package sources

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/url"
	"sort"
	"strings"

	"github.com/tunedex/tunedex/internal/models"
	"github.com/tunedex/tunedex/internal/parser"
)

// fallbackRadioServers is used when SRV discovery fails and no cached pool is
// available.
var fallbackRadioServers = []string{
	"https://de1.api.radio-browser.info",
	"https://nl1.api.radio-browser.info",
	"https://at1.api.radio-browser.info",
}

const (
	radioPageSize = 500
	radioMaxPages = 20
)

// ServerPoolCache caches the discovered server pool across runs (e.g. in
// Redis with a TTL). Either method may fail without affecting correctness;
// discovery falls back to the hard-coded pool.
type ServerPoolCache interface {
	GetServers(ctx context.Context) ([]string, error)
	SetServers(ctx context.Context, servers []string) error
}

// RadioBrowser fetches internet-radio stations from a community directory
// with a rotating mirror pool discovered via DNS SRV records.
type RadioBrowser struct {
	transport *Transport
	pool      ServerPoolCache // optional
	priority  int
	srvLookup func(ctx context.Context) ([]string, error) // injectable for tests
	servers   []string                                    // fixed pool override for tests
}

// NewRadioBrowser builds the radio directory client. pool may be nil.
func NewRadioBrowser(t *Transport, pool ServerPoolCache, priority int) *RadioBrowser {
	return &RadioBrowser{
		transport: t,
		pool:      pool,
		priority:  priority,
		srvLookup: lookupRadioServers,
	}
}

// Descriptor implements Client.
func (r *RadioBrowser) Descriptor() models.SourceDescriptor {
	return models.SourceDescriptor{
		Name:     models.SourceRadioBrowser,
		BaseURL:  fallbackRadioServers[0],
		Priority: r.priority,
	}
}

// Fetch pages through the station search endpoint in offset order until a
// short page, the page cap, or the filter limit is reached. Duplicate stream
// URLs within the fetch are skipped first-seen-wins to bound memory.
func (r *RadioBrowser) Fetch(ctx context.Context, filters models.Filters) (FetchResult, error) {
	servers := r.discoverServers(ctx)

	query := url.Values{}
	query.Set("hidebroken", "true")
	query.Set("order", "clickcount")
	query.Set("reverse", "true")
	if filters.Country != "" {
		query.Set("country", filters.Country)
		query.Set("countryExact", "true")
	}
	if filters.Category != "" {
		query.Set("tag", filters.Category)
		query.Set("tagExact", "true")
	}
	if filters.Language != "" {
		query.Set("language", filters.Language)
		query.Set("languageExact", "true")
	}

	var result FetchResult
	seen := make(map[string]struct{})
	for page := 0; page < radioMaxPages; page++ {
		query.Set("limit", fmt.Sprintf("%d", radioPageSize))
		query.Set("offset", fmt.Sprintf("%d", page*radioPageSize))

		body, err := r.transport.GetRotating(ctx, servers, "/json/stations/search?"+query.Encode(), MaxPageBytes)
		if err != nil {
			if page == 0 {
				return FetchResult{}, fmt.Errorf("radiobrowser: %w", err)
			}
			// Later pages degrade to what we already have.
			log.Printf("radiobrowser: page %d failed, keeping %d records: %v", page, len(result.Records), err)
			result.SoftFailures++
			break
		}

		records, err := parser.ParseStationJSON(body, models.SourceRadioBrowser, "station search")
		if err != nil {
			if page == 0 {
				return FetchResult{}, fmt.Errorf("radiobrowser: %w", err)
			}
			result.SoftFailures++
			break
		}

		for i := range records {
			key := records[i].CanonicalURL()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Records = append(result.Records, records[i])
			if filters.Limit > 0 && len(result.Records) >= filters.Limit {
				return result, nil
			}
		}
		if len(records) < radioPageSize {
			break // short page: directory exhausted
		}
	}
	return result, nil
}

// ReportClick implements ClickReporter with the directory's usage endpoint.
// Best effort: callers swallow the error and only count it.
func (r *RadioBrowser) ReportClick(ctx context.Context, rec *models.ChannelRecord) error {
	id := rec.Meta("channelId")
	if id == "" {
		return fmt.Errorf("radiobrowser: record %q has no channel id", rec.Name)
	}
	servers := r.discoverServers(ctx)
	_, err := r.transport.GetRotating(ctx, servers, "/json/url/"+url.PathEscape(id), MaxMetadataBytes)
	return err
}

// LogoByID resolves a station's logo by its directory UUID. Used by the logo
// engine as a cross-reference lookup for records that carry a channel id.
func (r *RadioBrowser) LogoByID(ctx context.Context, id string) (string, error) {
	servers := r.discoverServers(ctx)
	body, err := r.transport.GetRotating(ctx, servers, "/json/stations/byuuid/"+url.PathEscape(id), MaxMetadataBytes)
	if err != nil {
		return "", err
	}
	stations, err := parser.ParseStationJSON(body, models.SourceRadioBrowser, "byuuid lookup")
	if err != nil {
		return "", err
	}
	if len(stations) == 0 {
		return "", fmt.Errorf("radiobrowser: no station for id %s", id)
	}
	return stations[0].LogoURL, nil
}

// discoverServers resolves the mirror pool: cached pool first, then DNS SRV
// discovery (caching the result), then the hard-coded fallback list. The
// returned pool is shuffled so load spreads across mirrors between runs.
func (r *RadioBrowser) discoverServers(ctx context.Context) []string {
	if len(r.servers) > 0 {
		return r.servers
	}
	if r.pool != nil {
		if servers, err := r.pool.GetServers(ctx); err == nil && len(servers) > 0 {
			return shuffled(servers)
		}
	}
	servers, err := r.srvLookup(ctx)
	if err != nil || len(servers) == 0 {
		log.Printf("radiobrowser: SRV discovery failed, using fallback pool: %v", err)
		return shuffled(fallbackRadioServers)
	}
	if r.pool != nil {
		if err := r.pool.SetServers(ctx, servers); err != nil {
			log.Printf("radiobrowser: cache server pool: %v", err)
		}
	}
	return shuffled(servers)
}

// lookupRadioServers queries the directory's SRV record for its mirror pool.
func lookupRadioServers(ctx context.Context) ([]string, error) {
	_, addrs, err := net.DefaultResolver.LookupSRV(ctx, "api", "tcp", "radio-browser.info")
	if err != nil {
		return nil, err
	}
	servers := make([]string, 0, len(addrs))
	for _, a := range addrs {
		host := strings.TrimSuffix(a.Target, ".")
		if host == "" {
			continue
		}
		servers = append(servers, "https://"+host)
	}
	sort.Strings(servers)
	return servers, nil
}

func shuffled(servers []string) []string {
	out := make([]string, len(servers))
	copy(out, servers)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
