package models

// SourceName identifies which directory client produced a record.
type SourceName string

// Known directory clients.
const (
	SourceRadioBrowser SourceName = "radio-browser"
	SourceIPTVCatalog  SourceName = "iptv-catalog"
	SourceIcecast      SourceName = "icecast-directory"
)

// SourceDescriptor is the static per-directory configuration for one run.
// Immutable once the run starts; Priority orders the union step (lower first).
type SourceDescriptor struct {
	Name     SourceName
	BaseURL  string
	Priority int
	Country  string // optional filter hint
	Category string // optional filter hint
	Language string // optional filter hint
}

// Filters narrows a directory fetch. Empty fields select everything
// (worldwide mode). Matching against the source taxonomy is exact and
// case-insensitive.
type Filters struct {
	Country  string
	Category string
	Language string
	Limit    int // per-source record cap, 0 = unlimited
}
