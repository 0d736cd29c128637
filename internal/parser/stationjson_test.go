package parser

import (
	"testing"

	"github.com/tunedex/tunedex/internal/models"
)

func TestParseStationJSON(t *testing.T) {
	data := []byte(`[
		{"name": "Jazz 24", "url": "http://radio.example/jazz", "stationuuid": "uuid-1",
		 "country": "France", "language": "French", "tags": "jazz", "bitrate": 192,
		 "favicon": "http://radio.example/jazz.png"},
		{"title": "Rock FM", "stream_url": "http://radio.example/rock", "bitrate": "bad"},
		{"name": "No URL Station"},
		{"url": "http://radio.example/unnamed"}
	]`)

	records, err := ParseStationJSON(data, models.SourceRadioBrowser, "search page 1")
	if err != nil {
		t.Fatalf("ParseStationJSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	jazz := records[0]
	if jazz.Name != "Jazz 24" || jazz.StreamURL != "http://radio.example/jazz" {
		t.Errorf("unexpected first record: %+v", jazz)
	}
	if jazz.Meta("channelId") != "uuid-1" {
		t.Errorf("channelId = %q", jazz.Meta("channelId"))
	}
	if jazz.Quality != "192 kbps" {
		t.Errorf("Quality = %q", jazz.Quality)
	}
	if jazz.LogoURL != "http://radio.example/jazz.png" {
		t.Errorf("LogoURL = %q", jazz.LogoURL)
	}

	rock := records[1]
	if rock.Name != "Rock FM" {
		t.Errorf("second record Name = %q", rock.Name)
	}
	if rock.Quality != "128 kbps" {
		t.Errorf("malformed bitrate should clamp to default, got %q", rock.Quality)
	}
	if rock.Country != "Unknown" || rock.Category != "Mixed" {
		t.Errorf("free-text defaults not applied: %+v", rock)
	}
}

func TestParseStationJSONMalformed(t *testing.T) {
	if _, err := ParseStationJSON([]byte(`{"not":"an array"}`), models.SourceRadioBrowser, ""); err == nil {
		t.Error("expected error for non-array body")
	}
}

func TestParseDirectoryXML(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<directory>
  <entry>
    <server_name>Chill Station</server_name>
    <listen_url>http://ice.example/chill</listen_url>
    <server_type>audio/mpeg</server_type>
    <bitrate>256</bitrate>
    <genre>chillout</genre>
  </entry>
  <entry>
    <server_name></server_name>
    <listen_url>http://ice.example/anon</listen_url>
  </entry>
  <entry>
    <server_name>No URL</server_name>
  </entry>
</directory>`)

	records, err := ParseDirectoryXML(data, models.SourceIcecast, "directory")
	if err != nil {
		t.Fatalf("ParseDirectoryXML: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "Chill Station" || rec.StreamURL != "http://ice.example/chill" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Category != "chillout" {
		t.Errorf("Category = %q", rec.Category)
	}
	if rec.Quality != "256 kbps" {
		t.Errorf("Quality = %q", rec.Quality)
	}
	if rec.Meta("serverType") != "audio/mpeg" {
		t.Errorf("serverType = %q", rec.Meta("serverType"))
	}
}

func TestParseDirectoryXMLMalformed(t *testing.T) {
	if _, err := ParseDirectoryXML([]byte("<directory><entry>"), models.SourceIcecast, ""); err == nil {
		t.Error("expected error for truncated XML")
	}
}
