package store

import (
	"context"

	"github.com/tunedex/tunedex/internal/models"
)

// Sink receives the final channel set. The pipeline treats it as an external
// collaborator: a bulk upsert keyed by the canonical stream URL, plus a
// run-report row for operators.
type Sink interface {
	// UpsertChannels inserts or updates a batch of records keyed by
	// canonical stream URL and returns how many rows were written.
	UpsertChannels(ctx context.Context, records []models.ChannelRecord) (int64, error)
	// RecordRun persists an end-of-run report. report must be JSON-marshalable.
	RecordRun(ctx context.Context, runID string, report any) error
}
