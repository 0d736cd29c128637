package aggregator

import (
	"sync"
	"time"

	"github.com/tunedex/tunedex/internal/models"
)

// Source fetch outcomes. Operators need to tell a network outage apart from a
// directory that genuinely returned nothing after filtering.
const (
	SourceOK          = "ok"
	SourceEmpty       = "empty"
	SourceUnreachable = "unreachable"
)

// SourceReport summarizes one directory's fetch.
type SourceReport struct {
	Name         models.SourceName `json:"name"`
	Status       string            `json:"status"`
	Records      int               `json:"records"`
	SoftFailures int               `json:"soft_failures"`
	Error        string            `json:"error,omitempty"`
}

// Report is the end-of-run summary. Every non-fatal sub-failure in the run is
// counted here rather than silently swallowed, so tests and operators can
// assert on failure counts instead of only final record counts.
type Report struct {
	RunID      string         `json:"run_id"`
	Mode       string         `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceReport `json:"sources"`

	Fetched           int `json:"fetched"`
	Validated         int `json:"validated"`
	MarkedInactive    int `json:"marked_inactive"`
	Enriched          int `json:"enriched"`
	ClickReports      int `json:"click_reports"`
	ClickFailures     int `json:"click_failures"`
	DuplicatesDropped int `json:"duplicates_dropped"`
	Persisted         int `json:"persisted"`
	PersistFailures   int `json:"persist_failures"`

	mu sync.Mutex
}

// add runs fn under the report lock; used by concurrent probe/enrich workers.
func (r *Report) add(fn func(*Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}
