package parser

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/tunedex/tunedex/internal/models"
)

// directoryFeed mirrors the XML shape served by icecast-style directories:
// a root element with repeated <entry> blocks.
type directoryFeed struct {
	XMLName xml.Name         `xml:"directory"`
	Entries []directoryEntry `xml:"entry"`
}

type directoryEntry struct {
	ServerName string `xml:"server_name"`
	ListenURL  string `xml:"listen_url"`
	ServerType string `xml:"server_type"`
	Bitrate    string `xml:"bitrate"`
	Genre      string `xml:"genre"`
}

// ParseDirectoryXML decodes a directory XML document of repeated <entry>
// blocks. Entries missing a name or listen URL are skipped.
func ParseDirectoryXML(data []byte, source models.SourceName, playlistLabel string) ([]models.ChannelRecord, error) {
	var feed directoryFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("directory xml: %w", err)
	}

	records := make([]models.ChannelRecord, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e.ServerName == "" || e.ListenURL == "" {
			continue
		}
		rec := models.ChannelRecord{
			Name:           e.ServerName,
			StreamURL:      e.ListenURL,
			Category:       e.Genre,
			Quality:        strconv.Itoa(ClampBitrate(e.Bitrate)) + " kbps",
			IsActive:       true,
			Source:         source,
			PlaylistSource: playlistLabel,
		}
		if e.ServerType != "" {
			rec.SetMeta("serverType", e.ServerType)
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}
