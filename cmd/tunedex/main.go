package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tunedex/tunedex/internal/aggregator"
	"github.com/tunedex/tunedex/internal/cache"
	"github.com/tunedex/tunedex/internal/config"
	"github.com/tunedex/tunedex/internal/logo"
	"github.com/tunedex/tunedex/internal/sources"
	"github.com/tunedex/tunedex/internal/store"
	"github.com/tunedex/tunedex/internal/validator"
)

const runLockKey = "tunedex:lock:aggregate"

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	worker := flag.Bool("worker", false, "Consume refresh jobs from the Redis queue instead of running once")
	enqueue := flag.Bool("enqueue", false, "Queue a refresh job for a worker instead of running locally")
	mode := flag.String("mode", "", "Override run mode: full, minimal, or skip")
	country := flag.String("country", "", "Restrict the run (or queued job) to one country")
	category := flag.String("category", "", "Restrict the run (or queued job) to one category")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The enqueue action only talks to Redis; no database setup needed.
	if *enqueue {
		if cfg.RedisURL == "" {
			fmt.Fprintln(os.Stderr, "-enqueue requires REDIS_URL")
			os.Exit(1)
		}
		rds, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()
		if err := enqueueRefresh(ctx, rds, refreshJob(cfg.Mode, *country, *category)); err != nil {
			fmt.Fprintf(os.Stderr, "enqueue: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := store.WaitForDatabase(ctx, cfg.DatabaseURL, 30*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Redis is optional: without it there is no cross-run server-pool cache,
	// no run lock, and no worker mode.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()
		log.Println("redis connected")
	} else {
		log.Println("redis disabled (REDIS_URL not set)")
	}

	agg := buildAggregator(cfg, rds, pg)

	if *worker {
		if rds == nil {
			fmt.Fprintln(os.Stderr, "worker mode requires REDIS_URL")
			os.Exit(1)
		}
		runWorker(ctx, rds, agg, cfg)
		return
	}

	rc := runConfig(cfg)
	rc.Filters.Country = *country
	rc.Filters.Category = *category
	if _, err := runOnce(ctx, rds, agg, rc); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
}

// buildAggregator wires the directory clients, prober, and logo resolver.
func buildAggregator(cfg *config.Config, rds *cache.Redis, sink store.Sink) *aggregator.Aggregator {
	transport := sources.NewTransport(cfg.Timeout, cfg.UserAgent, 2, 6)

	var pool sources.ServerPoolCache
	if rds != nil {
		pool = cache.NewServerPool(rds)
	}
	radio := sources.NewRadioBrowser(transport, pool, 1)
	iptv := sources.NewIPTVCatalog(transport, "", 2)
	icecast := sources.NewIcecastDirectory(transport, "", 3)

	prober := validator.New(cfg.ProbeTimeout, cfg.UserAgent)
	resolver := logo.New(cfg.ProbeTimeout, cfg.UserAgent, logo.WithDirectoryLookup(radio))

	return aggregator.New([]sources.Client{radio, iptv, icecast}, prober, resolver, sink)
}

// runOnce executes a single aggregation, guarded by the distributed run lock
// when Redis is available.
func runOnce(ctx context.Context, rds *cache.Redis, agg *aggregator.Aggregator, rc aggregator.RunConfig) (*aggregator.Report, error) {
	if rds != nil {
		unlock, err := cache.TryLock(ctx, rds, runLockKey, fmt.Sprintf("pid-%d", os.Getpid()), time.Hour)
		if err == cache.ErrLocked {
			return nil, fmt.Errorf("an aggregation run is already in progress")
		}
		if err != nil {
			log.Printf("run lock unavailable, continuing without it: %v", err)
		} else {
			defer unlock()
		}
	}
	return agg.Run(ctx, rc)
}

// runWorker blocks on the refresh-job queue and executes each job as one
// aggregation run. It stops when ctx is cancelled (graceful shutdown).
func runWorker(ctx context.Context, rds *cache.Redis, agg *aggregator.Aggregator, cfg *config.Config) {
	log.Println("refresh worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("refresh worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Printf("refresh worker: dequeue error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		rc := runConfig(cfg)
		if job.Mode != "" {
			rc.Mode = job.Mode
		}
		rc.Filters.Country = job.Country
		rc.Filters.Category = job.Category

		log.Printf("refresh worker: job mode=%s country=%q category=%q", rc.Mode, job.Country, job.Category)
		if _, err := runOnce(ctx, rds, agg, rc); err != nil {
			log.Printf("refresh worker: run error: %v", err)
		}
	}
}

func runConfig(cfg *config.Config) aggregator.RunConfig {
	return aggregator.RunConfig{
		Mode:           cfg.Mode,
		SkipValidation: cfg.SkipValidation,
		SkipEnrichment: cfg.SkipEnrichment,
		ReportUsage:    cfg.ReportUsage,
		MinimalLimit:   cfg.MinimalLimit,
		BatchSize:      cfg.BatchSize,
		Concurrency:    cfg.Concurrency,
	}
}

// refreshJob builds the queued job for the enqueue action.
func refreshJob(mode, country, category string) cache.RefreshJob {
	return cache.RefreshJob{Mode: mode, Country: country, Category: category}
}

// enqueueRefresh pushes job onto the worker queue and notes when a run is
// already holding the lock, so operators know the job will not start at once.
func enqueueRefresh(ctx context.Context, rds *cache.Redis, job cache.RefreshJob) error {
	if err := cache.Enqueue(ctx, rds, cache.DefaultQueue, job); err != nil {
		return err
	}
	if cache.IsLocked(ctx, rds, runLockKey) {
		log.Println("a run is in progress; the queued job starts after it finishes")
	}
	log.Printf("queued refresh job mode=%s country=%q category=%q", job.Mode, job.Country, job.Category)
	return nil
}

// migrationsDir locates the migrations directory next to the working
// directory or the executable.
func migrationsDir() string {
	abs, err := filepath.Abs("migrations")
	if err != nil {
		abs = "migrations"
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return abs
}
