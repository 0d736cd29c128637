package parser

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tunedex/tunedex/internal/models"
)

// stationEntry covers the field spellings seen across generic JSON station
// lists. Unknown fields are ignored.
type stationEntry struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Channel     string          `json:"channel"`
	URL         string          `json:"url"`
	URLResolved string          `json:"url_resolved"`
	StreamURL   string          `json:"stream_url"`
	Logo        string          `json:"logo"`
	Favicon     string          `json:"favicon"`
	Country     string          `json:"country"`
	Language    string          `json:"language"`
	Genre       string          `json:"genre"`
	Tags        string          `json:"tags"`
	Bitrate     json.RawMessage `json:"bitrate"`
	ID          json.RawMessage `json:"id"`
	UUID        string          `json:"stationuuid"`
}

// ParseStationJSON decodes a generic JSON array of station objects. Entries
// without a URL are dropped; quality hints are copied verbatim when textual
// and clamped when numeric; source identifiers are preserved under Metadata.
func ParseStationJSON(data []byte, source models.SourceName, playlistLabel string) ([]models.ChannelRecord, error) {
	var entries []stationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("station json: %w", err)
	}

	records := make([]models.ChannelRecord, 0, len(entries))
	for _, e := range entries {
		streamURL := firstNonEmpty(e.URLResolved, e.URL, e.StreamURL)
		if streamURL == "" {
			continue
		}
		name := firstNonEmpty(e.Name, e.Title, e.Channel)
		if name == "" {
			continue
		}
		rec := models.ChannelRecord{
			Name:           name,
			StreamURL:      streamURL,
			Category:       firstNonEmpty(e.Genre, e.Tags),
			Country:        e.Country,
			Language:       e.Language,
			LogoURL:        firstNonEmpty(e.Logo, e.Favicon),
			Quality:        bitrateLabel(e.Bitrate),
			IsActive:       true,
			Source:         source,
			PlaylistSource: playlistLabel,
		}
		if id := rawString(e.ID); id != "" {
			rec.SetMeta("channelId", id)
		}
		if e.UUID != "" {
			rec.SetMeta("channelId", e.UUID)
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}

// bitrateLabel renders a bitrate field that may arrive as a number or a
// string; malformed values fall back to the clamped default.
func bitrateLabel(raw json.RawMessage) string {
	s := rawString(raw)
	if s == "" {
		return ""
	}
	return strconv.Itoa(ClampBitrate(s)) + " kbps"
}

// rawString decodes a JSON value that may be a string or a number into its
// textual form.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
