package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tunedex/tunedex/internal/models"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="bbc1" tvg-logo="http://x/l.png" group-title="News",BBC One
http://stream.example/bbc
#EXTINF:-1 group-title="Music",Dangling Entry Without URL
#EXTINF:-1,Plain FM
http://radio.example/plain.mp3

# a comment line
http://orphan.example/no-metadata
`

func TestParseM3U(t *testing.T) {
	records, err := ParseM3U(strings.NewReader(samplePlaylist), models.SourceIPTVCatalog, "test feed")
	if err != nil {
		t.Fatalf("ParseM3U: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(records), records)
	}

	bbc := records[0]
	if bbc.Name != "BBC One" {
		t.Errorf("Name = %q, want %q", bbc.Name, "BBC One")
	}
	if bbc.StreamURL != "http://stream.example/bbc" {
		t.Errorf("StreamURL = %q", bbc.StreamURL)
	}
	if bbc.Category != "News" {
		t.Errorf("Category = %q, want News", bbc.Category)
	}
	if bbc.LogoURL != "http://x/l.png" {
		t.Errorf("LogoURL = %q", bbc.LogoURL)
	}
	if bbc.Meta("tvgId") != "bbc1" {
		t.Errorf("tvgId = %q", bbc.Meta("tvgId"))
	}
	if bbc.PlaylistSource != "test feed" {
		t.Errorf("PlaylistSource = %q", bbc.PlaylistSource)
	}
	if !bbc.IsActive {
		t.Error("records default to active until the validator says otherwise")
	}

	if records[1].Name != "Plain FM" {
		t.Errorf("second record Name = %q", records[1].Name)
	}
}

func TestParseM3UNoEmptyURLs(t *testing.T) {
	records, err := ParseM3U(strings.NewReader(samplePlaylist), models.SourceIPTVCatalog, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if r.StreamURL == "" {
			t.Fatalf("record %q emitted with empty stream URL", r.Name)
		}
	}
}

func TestParseM3UIdempotent(t *testing.T) {
	first, err := ParseM3U(strings.NewReader(samplePlaylist), models.SourceIPTVCatalog, "feed")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseM3U(strings.NewReader(samplePlaylist), models.SourceIPTVCatalog, "feed")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("parsing the same text twice produced different records")
	}
}

func TestParseM3UPlatformTagging(t *testing.T) {
	playlist := "#EXTINF:-1,Live Show\nhttps://www.youtube.com/watch?v=abc123\n"
	records, err := ParseM3U(strings.NewReader(playlist), models.SourceIPTVCatalog, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if got := records[0].Meta("platform"); got != "youtube.com" {
		t.Errorf("platform = %q, want youtube.com", got)
	}
}

func TestParseM3UHeuristics(t *testing.T) {
	playlist := `#EXTINF:-1 group-title="Deportes Espanol",Canal 4K UHD
http://tv.example/canal
`
	records, err := ParseM3U(strings.NewReader(playlist), models.SourceIPTVCatalog, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Quality != "4K" {
		t.Errorf("Quality = %q, want 4K", records[0].Quality)
	}
	if records[0].Language != "Spanish" {
		t.Errorf("Language = %q, want Spanish", records[0].Language)
	}
}

func TestDetectResolution(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Channel 2160p feed", "4K"},
		{"Movies FHD", "1080p"},
		{"Sports [HD]", "720p"},
		{"plain channel", ""},
	}
	for _, c := range cases {
		if got := DetectResolution(c.text); got != c.want {
			t.Errorf("DetectResolution(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestClampBitrate(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"192", 192},
		{"garbage", DefaultBitrate},
		{"", DefaultBitrate},
		{"8", MinBitrate},
		{"9999", MaxBitrate},
		{"-5", DefaultBitrate},
	}
	for _, c := range cases {
		if got := ClampBitrate(c.raw); got != c.want {
			t.Errorf("ClampBitrate(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestLooksLikePlaylist(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"http://x/countries/es.m3u", true},
		{"http://x/index.m3u8", true},
		{"http://cdn.example/live/stream.m3u8", false},
		{"http://x/stream.mp3", false},
	}
	for _, c := range cases {
		if got := LooksLikePlaylist(c.url); got != c.want {
			t.Errorf("LooksLikePlaylist(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}
