package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/tunedex/tunedex/internal/models"
)

var (
	reTvgID      = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reTvgName    = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgLogo    = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	reTvgCountry = regexp.MustCompile(`tvg-country="([^"]*)"`)
	reTvgLang    = regexp.MustCompile(`tvg-language="([^"]*)"`)
	reGroupTitle = regexp.MustCompile(`group-title="([^"]*)"`)
	reCommaName  = regexp.MustCompile(`,([^\n\r\t]*)$`)
)

// ParseM3U decodes a tag-delimited playlist. Each #EXTINF metadata line
// introduces the next entry; the first following non-comment, non-blank line
// is its stream URL. Metadata lines never followed by a URL are discarded.
// playlistLabel is the human label of the originating feed, recorded on every
// record as PlaylistSource.
func ParseM3U(r io.Reader, source models.SourceName, playlistLabel string) ([]models.ChannelRecord, error) {
	var records []models.ChannelRecord
	scanner := bufio.NewScanner(r)
	// Some playlists carry very long EXTINF lines.
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var extinf string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(strings.ToUpper(trimmed), "#EXTINF"):
			// A previous EXTINF without a URL is dropped here (malformed).
			extinf = trimmed
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			continue
		default:
			if extinf == "" {
				continue // bare URL with no metadata line
			}
			if rec, ok := recordFromEXTINF(extinf, trimmed, source, playlistLabel); ok {
				records = append(records, rec)
			}
			extinf = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// recordFromEXTINF builds a record from one metadata line plus its URL line.
// Returns ok=false when no usable name or URL can be extracted.
func recordFromEXTINF(extinf, streamURL string, source models.SourceName, playlistLabel string) (models.ChannelRecord, bool) {
	if streamURL == "" {
		return models.ChannelRecord{}, false
	}
	name := matchFirst(reTvgName, extinf)
	if name == "" {
		name = matchFirst(reCommaName, extinf)
	}
	if name == "" {
		name = matchFirst(reTvgID, extinf)
	}
	if name == "" {
		return models.ChannelRecord{}, false
	}

	group := matchFirst(reGroupTitle, extinf)
	combined := name + " " + group + " " + extinf

	rec := models.ChannelRecord{
		Name:           name,
		StreamURL:      streamURL,
		Category:       group,
		Country:        firstNonEmpty(matchFirst(reTvgCountry, extinf), DetectCountry(combined)),
		Language:       firstNonEmpty(matchFirst(reTvgLang, extinf), DetectLanguage(combined)),
		LogoURL:        matchFirst(reTvgLogo, extinf),
		Quality:        DetectResolution(combined),
		IsActive:       true,
		Source:         source,
		PlaylistSource: playlistLabel,
	}
	if id := matchFirst(reTvgID, extinf); id != "" {
		rec.SetMeta("tvgId", id)
	}
	// Platform pages (e.g. a live channel on a video site) are tagged so the
	// validator and logo resolver can treat them differently from raw media.
	if host := PlatformHost(streamURL); host != "" {
		rec.SetMeta("platform", host)
	}
	rec.Normalize()
	return rec, true
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
