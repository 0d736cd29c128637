// Package aggregator composes the directory clients, the reachability
// prober, the logo resolver, and the deduplicator into one end-to-end run
// that feeds the persistence sink.
package aggregator

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tunedex/tunedex/internal/dedup"
	"github.com/tunedex/tunedex/internal/logo"
	"github.com/tunedex/tunedex/internal/models"
	"github.com/tunedex/tunedex/internal/sources"
	"github.com/tunedex/tunedex/internal/store"
)

// Prober decides reachability for one stream URL.
type Prober interface {
	Probe(ctx context.Context, streamURL string) models.ProbeResult
}

// LogoResolver returns a non-empty logo URL for a record.
type LogoResolver interface {
	Resolve(ctx context.Context, rec *models.ChannelRecord) string
}

// RunConfig holds the per-run toggles. The three optional passes (online
// fetch, validation, enrichment) are independently switchable.
type RunConfig struct {
	Mode           string // "full", "minimal", or "skip" (no online fetch)
	SkipValidation bool
	SkipEnrichment bool
	ReportUsage    bool // best-effort click reporting on supporting sources
	MinimalLimit   int  // per-source record cap in minimal mode
	BatchSize      int  // persistence batch size
	Concurrency    int  // probe/enrich fan-out
	Filters        models.Filters
}

// Aggregator runs the pipeline. Construct with New; one instance may serve
// many runs.
type Aggregator struct {
	sources  []sources.Client
	prober   Prober
	resolver LogoResolver
	sink     store.Sink
}

// New builds an Aggregator. Sources are sorted by descriptor priority (lower
// first); that order decides first-seen-wins ties at the union step.
func New(srcs []sources.Client, prober Prober, resolver LogoResolver, sink store.Sink) *Aggregator {
	sorted := make([]sources.Client, len(srcs))
	copy(sorted, srcs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Descriptor().Priority < sorted[j].Descriptor().Priority
	})
	return &Aggregator{sources: sorted, prober: prober, resolver: resolver, sink: sink}
}

// Run executes one aggregation. It never fails out of the top level for
// per-source or per-record problems; the returned Report carries all counts.
// The only returned errors are context cancellation and a nil sink.
func (a *Aggregator) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Mode:      cfg.Mode,
		StartedAt: time.Now().UTC(),
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}

	union := a.fetchAll(ctx, cfg, report)
	report.Fetched = len(union)
	log.Printf("aggregate: run %s fetched %d records from %d sources", report.RunID, len(union), len(a.sources))

	if !cfg.SkipValidation && cfg.Mode != "skip" {
		a.validateAll(ctx, cfg, union, report)
	}
	if !cfg.SkipEnrichment && cfg.Mode != "skip" {
		a.enrichAll(ctx, cfg, union, report)
	}
	if cfg.ReportUsage && cfg.Mode != "skip" {
		a.reportUsage(ctx, cfg, union, report)
	}

	deduped := dedup.Deduplicate(union)
	report.DuplicatesDropped = len(union) - len(deduped)

	a.persist(ctx, cfg, deduped, report)

	report.FinishedAt = time.Now().UTC()
	if a.sink != nil {
		if err := a.sink.RecordRun(ctx, report.RunID, report); err != nil {
			log.Printf("aggregate: record run report: %v", err)
		}
	}
	log.Printf("aggregate: run %s done: %d persisted, %d duplicates, %d inactive, %d persist failures",
		report.RunID, report.Persisted, report.DuplicatesDropped, report.MarkedInactive, report.PersistFailures)
	return report, ctx.Err()
}

// fetchAll runs every source fetch concurrently, then unions the results
// sequentially in priority order so dedup tie-breaks stay deterministic.
func (a *Aggregator) fetchAll(ctx context.Context, cfg RunConfig, report *Report) []models.ChannelRecord {
	if cfg.Mode == "skip" {
		return nil
	}
	filters := cfg.Filters
	if cfg.Mode == "minimal" && cfg.MinimalLimit > 0 {
		filters.Limit = cfg.MinimalLimit
	}

	results := make([]sources.FetchResult, len(a.sources))
	errs := make([]error, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			results[i], errs[i] = src.Fetch(ctx, filters)
			return nil // per-source failures degrade, never abort the run
		})
	}
	_ = g.Wait()

	var union []models.ChannelRecord
	for i, src := range a.sources {
		sr := SourceReport{
			Name:         src.Descriptor().Name,
			Records:      len(results[i].Records),
			SoftFailures: results[i].SoftFailures,
		}
		switch {
		case errs[i] != nil:
			sr.Status = SourceUnreachable
			sr.Error = errs[i].Error()
			log.Printf("aggregate: source %s failed: %v", sr.Name, errs[i])
		case len(results[i].Records) == 0:
			sr.Status = SourceEmpty
		default:
			sr.Status = SourceOK
		}
		report.Sources = append(report.Sources, sr)
		union = append(union, results[i].Records...)
	}
	return union
}

// validateAll probes every record with bounded fan-out and folds the result
// into IsActive. A probe that fails without a confirmed blocked status leaves
// the record's prior value untouched.
func (a *Aggregator) validateAll(ctx context.Context, cfg RunConfig, records []models.ChannelRecord, report *Report) {
	if a.prober == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range records {
		i := i
		g.Go(func() error {
			res := a.prober.Probe(gctx, records[i].StreamURL)
			report.add(func(r *Report) {
				r.Validated++
				if !res.Reachable && res.Confidence == models.ConfidenceDefinite {
					records[i].IsActive = false
					r.MarkedInactive++
				}
			})
			return nil
		})
	}
	_ = g.Wait()
}

// enrichAll resolves a logo for every record that lacks a usable one. The
// resolver is total, so enrichment never fails a record outright.
func (a *Aggregator) enrichAll(ctx context.Context, cfg RunConfig, records []models.ChannelRecord, report *Report) {
	if a.resolver == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range records {
		if logo.LooksLikeImageURL(records[i].LogoURL) {
			continue
		}
		i := i
		g.Go(func() error {
			records[i].LogoURL = a.resolver.Resolve(gctx, &records[i])
			report.add(func(r *Report) { r.Enriched++ })
			return nil
		})
	}
	_ = g.Wait()
}

// reportUsage makes the best-effort click call on sources that support it.
// Failures are counted, never surfaced.
func (a *Aggregator) reportUsage(ctx context.Context, cfg RunConfig, records []models.ChannelRecord, report *Report) {
	reporters := make(map[models.SourceName]sources.ClickReporter)
	for _, src := range a.sources {
		if cr, ok := src.(sources.ClickReporter); ok {
			reporters[src.Descriptor().Name] = cr
		}
	}
	if len(reporters) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range records {
		cr, ok := reporters[records[i].Source]
		if !ok {
			continue
		}
		i := i
		g.Go(func() error {
			err := cr.ReportClick(gctx, &records[i])
			report.add(func(r *Report) {
				if err != nil {
					r.ClickFailures++
				} else {
					r.ClickReports++
				}
			})
			return nil
		})
	}
	_ = g.Wait()
}

// persist hands the final set to the sink in fixed-size batches. A failed
// batch is counted and skipped; later batches still run.
func (a *Aggregator) persist(ctx context.Context, cfg RunConfig, records []models.ChannelRecord, report *Report) {
	if a.sink == nil || len(records) == 0 {
		return
	}
	for start := 0; start < len(records); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		written, err := a.sink.UpsertChannels(ctx, records[start:end])
		if err != nil {
			log.Printf("aggregate: persist batch [%d:%d]: %v", start, end, err)
			report.PersistFailures += end - start - int(written)
			continue
		}
		report.Persisted += int(written)
	}
}
