package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tunedex/tunedex/internal/models"
)

// playlistServer serves a map of path → M3U body, 404 elsewhere.
func playlistServer(t *testing.T, playlists map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := playlists[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIPTVCatalogFetchWorldwide(t *testing.T) {
	srv := playlistServer(t, map[string]string{
		"/index.m3u": "#EXTM3U\n#EXTINF:-1 group-title=\"News\",BBC One\nhttp://stream.example/bbc\n",
	})
	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)

	result, err := c.Fetch(context.Background(), models.Filters{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].Name != "BBC One" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if result.Records[0].PlaylistSource != "worldwide index" {
		t.Errorf("PlaylistSource = %q", result.Records[0].PlaylistSource)
	}
}

func TestIPTVCatalogCountryPath(t *testing.T) {
	srv := playlistServer(t, map[string]string{
		"/countries/es.m3u": "#EXTM3U\n#EXTINF:-1,Canal Uno\nhttp://stream.example/uno\n",
	})
	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)

	result, err := c.Fetch(context.Background(), models.Filters{Country: "ES"})
	if err != nil {
		t.Fatalf("country filter should map case-insensitively onto the catalog path: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records", len(result.Records))
	}
}

func TestIPTVCatalogNestedExpansion(t *testing.T) {
	var srv *httptest.Server
	playlists := map[string]string{}
	srv = playlistServer(t, playlists)
	playlists["/index.m3u"] = "#EXTM3U\n#EXTINF:-1,Regional Bundle\n" + srv.URL + "/nested/region.m3u\n"
	playlists["/nested/region.m3u"] = "#EXTINF:-1,Regional One\nhttp://stream.example/r1\n#EXTINF:-1,Regional Two\nhttp://stream.example/r2\n"

	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)
	result, err := c.Fetch(context.Background(), models.Filters{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 flattened from the nested playlist: %+v", len(result.Records), result.Records)
	}
	if result.Records[0].PlaylistSource != "Regional Bundle" {
		t.Errorf("nested records should carry the bundle label, got %q", result.Records[0].PlaylistSource)
	}
}

func TestIPTVCatalogNestedExpansionFailureKeepsEntry(t *testing.T) {
	var srv *httptest.Server
	playlists := map[string]string{}
	srv = playlistServer(t, playlists)
	playlists["/index.m3u"] = "#EXTM3U\n#EXTINF:-1,Broken Bundle\n" + srv.URL + "/missing.m3u\n"

	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)
	result, err := c.Fetch(context.Background(), models.Filters{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("entry with failed expansion must be kept as a direct reference, got %d records", len(result.Records))
	}
	if result.SoftFailures != 1 {
		t.Errorf("SoftFailures = %d, want 1", result.SoftFailures)
	}
}

func TestIPTVCatalogCycleGuard(t *testing.T) {
	var srv *httptest.Server
	playlists := map[string]string{}
	srv = playlistServer(t, playlists)
	// A playlist referencing itself must terminate via the visited set.
	playlists["/index.m3u"] = "#EXTM3U\n#EXTINF:-1,Self Reference\n" + srv.URL + "/index.m3u\n#EXTINF:-1,Normal\nhttp://stream.example/ok\n"

	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)
	result, err := c.Fetch(context.Background(), models.Filters{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// The self-reference is kept as a direct entry; the normal one survives.
	if len(result.Records) != 2 {
		t.Fatalf("got %d records: %+v", len(result.Records), result.Records)
	}
}

func TestIPTVCatalogLimit(t *testing.T) {
	srv := playlistServer(t, map[string]string{
		"/index.m3u": "#EXTM3U\n" +
			"#EXTINF:-1,A\nhttp://s/1\n" +
			"#EXTINF:-1,B\nhttp://s/2\n" +
			"#EXTINF:-1,C\nhttp://s/3\n",
	})
	c := NewIPTVCatalog(newTestTransport(1, 1), srv.URL, 2)
	result, err := c.Fetch(context.Background(), models.Filters{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 2 {
		t.Errorf("got %d records, want limit 2", len(result.Records))
	}
}

func TestIPTVCatalogUnreachable(t *testing.T) {
	c := NewIPTVCatalog(newTestTransport(1, 1), "http://127.0.0.1:1", 2)
	if _, err := c.Fetch(context.Background(), models.Filters{}); err == nil {
		t.Error("expected error for unreachable catalog")
	}
}
