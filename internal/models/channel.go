package models

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds channel names before they reach the store.
const MaxNameLength = 120

// ChannelRecord represents one live-media channel listing as it moves through
// the aggregation pipeline: produced by a parser, mutated by the validator
// (IsActive) and the logo resolver (LogoURL), and consumed read-only by the
// deduplicator and the persistence sink.
type ChannelRecord struct {
	Name           string         `json:"name"`
	StreamURL      string         `json:"stream_url"`
	Description    string         `json:"description,omitempty"`
	Category       string         `json:"category,omitempty"`
	Country        string         `json:"country,omitempty"`
	Language       string         `json:"language,omitempty"`
	LogoURL        string         `json:"logo_url,omitempty"`
	Quality        string         `json:"quality,omitempty"` // resolution for video, bitrate for audio
	IsActive       bool           `json:"is_active"`
	Source         SourceName     `json:"source"`
	PlaylistSource string         `json:"playlist_source,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Meta returns the string value stored under key in Metadata, or "" when the
// key is absent or not a string.
func (c *ChannelRecord) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if s, ok := c.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// SetMeta stores a metadata value, allocating the map on first use.
func (c *ChannelRecord) SetMeta(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
}

// Normalize truncates the name, fills defaulted free-text fields, and trims
// the stream URL. Parsers call it on every record they emit.
func (c *ChannelRecord) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if len(c.Name) > MaxNameLength {
		// Cut on a rune boundary so a multi-byte character straddling the
		// limit cannot produce invalid UTF-8.
		cut := MaxNameLength
		for cut > 0 && !utf8.RuneStart(c.Name[cut]) {
			cut--
		}
		c.Name = c.Name[:cut]
	}
	c.StreamURL = strings.TrimSpace(c.StreamURL)
	if c.Description == "" {
		c.Description = "Unknown"
	}
	if c.Category == "" {
		c.Category = "Mixed"
	}
	if c.Country == "" {
		c.Country = "Unknown"
	}
	if c.Language == "" {
		c.Language = "Unknown"
	}
}

// CanonicalURL returns the trimmed, lowercased stream URL used as the
// deduplication and upsert key.
func (c *ChannelRecord) CanonicalURL() string {
	return strings.ToLower(strings.TrimSpace(c.StreamURL))
}
