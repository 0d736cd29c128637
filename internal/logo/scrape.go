package logo

import (
	"io"
	"regexp"
	"strings"
)

// maxScrapeBytes caps how much of a platform page is buffered while looking
// for meta tags.
const maxScrapeBytes = 2 << 20

// Meta tags can order their attributes either way, so both shapes are tried.
var metaTagRe = regexp.MustCompile(`<meta[^>]+>`)
var contentRe = regexp.MustCompile(`content="([^"]*)"`)

// metaContent returns the content attribute of the first meta tag carrying
// the given attribute marker (e.g. `property="og:image"`).
func metaContent(html, marker string) string {
	for _, tag := range metaTagRe.FindAllString(html, -1) {
		if !strings.Contains(tag, marker) {
			continue
		}
		m := contentRe.FindStringSubmatch(tag)
		if len(m) == 2 && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// readAtMost fills buf from r, tolerating early EOF.
func readAtMost(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, nil
	}
	return n, err
}
