package parser

import (
	"net/url"
	"strconv"
	"strings"
)

// Bitrate bounds applied to malformed or missing numeric quality fields.
const (
	DefaultBitrate = 128
	MinBitrate     = 32
	MaxBitrate     = 320
)

// resolutionKeywords maps text markers to a normalized resolution label.
// Checked in order so the highest resolution wins when several appear.
var resolutionKeywords = []struct {
	markers []string
	label   string
}{
	{[]string{"2160p", "4k", "uhd"}, "4K"},
	{[]string{"1080p", "fhd", "full hd"}, "1080p"},
	{[]string{"720p", " hd", "[hd]", "(hd)"}, "720p"},
	{[]string{"480p", " sd", "[sd]", "(sd)"}, "480p"},
}

// languageKeywords maps lowercase markers found in names, group titles, or
// playlist labels to a language. Deliberately small; directory taxonomies
// carry the authoritative value when they have one.
var languageKeywords = map[string]string{
	"english":    "English",
	"arabic":     "Arabic",
	"spanish":    "Spanish",
	"espanol":    "Spanish",
	"french":     "French",
	"francais":   "French",
	"german":     "German",
	"deutsch":    "German",
	"italian":    "Italian",
	"portuguese": "Portuguese",
	"russian":    "Russian",
	"hindi":      "Hindi",
	"turkish":    "Turkish",
	"chinese":    "Chinese",
}

// countryKeywords maps markers to a display country for feeds that encode the
// country only in free text.
var countryKeywords = map[string]string{
	"usa":            "United States",
	"united states":  "United States",
	"uk":             "United Kingdom",
	"united kingdom": "United Kingdom",
	"france":         "France",
	"germany":        "Germany",
	"spain":          "Spain",
	"italy":          "Italy",
	"india":          "India",
	"brazil":         "Brazil",
	"russia":         "Russia",
	"turkey":         "Turkey",
	"canada":         "Canada",
	"australia":      "Australia",
}

// videoPlatformHosts are domains whose URLs point at a platform page rather
// than a raw media stream. Such entries are tagged instead of probed.
var videoPlatformHosts = []string{
	"youtube.com",
	"youtu.be",
	"twitch.tv",
	"dailymotion.com",
}

// DetectResolution scans the combined entry text for resolution markers and
// returns a normalized label, or "" when nothing matches.
func DetectResolution(text string) string {
	lower := strings.ToLower(text)
	for _, rk := range resolutionKeywords {
		for _, m := range rk.markers {
			if strings.Contains(lower, m) {
				return rk.label
			}
		}
	}
	return ""
}

// DetectLanguage returns a language inferred from keyword markers, or "".
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	for marker, lang := range languageKeywords {
		if strings.Contains(lower, marker) {
			return lang
		}
	}
	return ""
}

// DetectCountry returns a country inferred from keyword markers, or "".
func DetectCountry(text string) string {
	lower := strings.ToLower(text)
	for marker, country := range countryKeywords {
		if strings.Contains(lower, marker) {
			return country
		}
	}
	return ""
}

// PlatformHost returns the matching video-platform domain when rawURL points
// at a platform page, or "" for a direct media URL.
func PlatformHost(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range videoPlatformHosts {
		if host == p || strings.HasSuffix(host, "."+p) {
			return p
		}
	}
	return ""
}

// LooksLikePlaylist reports whether a URL plausibly references another
// playlist document rather than a media stream, by extension or path shape.
func LooksLikePlaylist(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".m3u") {
		return true
	}
	// Live HLS manifests end in .m3u8 too but are streams, not directories.
	return strings.HasSuffix(path, ".m3u8") && !strings.Contains(path, "/live/")
}

// ClampBitrate parses a free-form bitrate field, falling back to
// DefaultBitrate on malformed input and clamping the result to
// [MinBitrate, MaxBitrate].
func ClampBitrate(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = DefaultBitrate
	}
	if n < MinBitrate {
		n = MinBitrate
	}
	if n > MaxBitrate {
		n = MaxBitrate
	}
	return n
}
