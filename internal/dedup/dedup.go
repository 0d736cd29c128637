// Package dedup collapses the unioned multi-source record list on a
// canonical stream-URL key.
package dedup

import "github.com/tunedex/tunedex/internal/models"

// Deduplicate returns records with duplicate canonical stream URLs removed.
// First-seen order is preserved. On a key collision the existing record is
// replaced only when the incoming one has a logo and the existing one does
// not; otherwise the incoming duplicate is discarded. Records with an empty
// canonical key are dropped as a safety net (parsers should never emit them).
// The function is idempotent: running it on its own output is a no-op.
func Deduplicate(records []models.ChannelRecord) []models.ChannelRecord {
	index := make(map[string]int, len(records))
	out := make([]models.ChannelRecord, 0, len(records))

	for i := range records {
		key := records[i].CanonicalURL()
		if key == "" {
			continue
		}
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, records[i])
			continue
		}
		if out[at].LogoURL == "" && records[i].LogoURL != "" {
			out[at] = records[i]
		}
	}
	return out
}
