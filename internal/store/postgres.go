package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tunedex/tunedex/internal/models"
)

// Postgres implements Sink using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres sink from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// UpsertChannels writes one batch of records in a single pgx batch, keyed by
// the canonical stream URL. Existing rows keep their identity; metadata,
// logo, and reachability refresh on every run.
func (p *Postgres) UpsertChannels(ctx context.Context, records []models.ChannelRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for i := range records {
		rec := &records[i]
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata for %q: %w", rec.Name, err)
		}
		batch.Queue(
			`INSERT INTO channels
			   (canonical_url, stream_url, name, description, category, country,
			    language, logo_url, quality, is_active, source, playlist_source, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (canonical_url) DO UPDATE SET
			   stream_url = EXCLUDED.stream_url,
			   name = EXCLUDED.name,
			   description = EXCLUDED.description,
			   category = EXCLUDED.category,
			   country = EXCLUDED.country,
			   language = EXCLUDED.language,
			   logo_url = EXCLUDED.logo_url,
			   quality = EXCLUDED.quality,
			   is_active = EXCLUDED.is_active,
			   source = EXCLUDED.source,
			   playlist_source = EXCLUDED.playlist_source,
			   metadata = EXCLUDED.metadata,
			   updated_at = NOW()`,
			rec.CanonicalURL(), rec.StreamURL, rec.Name, rec.Description, rec.Category,
			rec.Country, rec.Language, rec.LogoURL, rec.Quality, rec.IsActive,
			string(rec.Source), rec.PlaylistSource, meta,
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	var written int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("UpsertChannels: %w", err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// RecordRun persists the end-of-run report as a JSON row so operators can
// tell network outages from genuinely empty directories after the fact.
func (p *Postgres) RecordRun(ctx context.Context, runID string, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO aggregation_runs (run_id, report) VALUES ($1, $2)`,
		runID, data,
	)
	if err != nil {
		return fmt.Errorf("RecordRun: %w", err)
	}
	return nil
}
