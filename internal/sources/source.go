// Package sources contains one client per external channel directory. Each
// client owns its directory's discovery, transport policy, and pagination,
// and decodes responses with the matching format parser.
package sources

import (
	"context"

	"github.com/tunedex/tunedex/internal/models"
)

// FetchResult is the outcome of one directory fetch. SoftFailures counts
// non-fatal sub-failures (e.g. nested playlists that could not be expanded)
// so the orchestrator's end-of-run report can surface them.
type FetchResult struct {
	Records      []models.ChannelRecord
	SoftFailures int
}

// Client is one directory source. Fetch applies the given filters against the
// source's own taxonomy; unset filter fields select everything. Unrecoverable
// failures return an error, and the orchestrator degrades to an empty list
// for that source rather than aborting the run.
type Client interface {
	Descriptor() models.SourceDescriptor
	Fetch(ctx context.Context, filters models.Filters) (FetchResult, error)
}

// ClickReporter is implemented by clients whose directory supports
// best-effort usage reporting per record. Failures are swallowed by callers
// and only counted, never surfaced.
type ClickReporter interface {
	ReportClick(ctx context.Context, rec *models.ChannelRecord) error
}
