package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listing-lab/internal/config"
	"listing-lab/internal/domain"
	"listing-lab/internal/ingestion"
	"listing-lab/internal/observability"
	"listing-lab/internal/storage"
	"listing-lab/internal/storage/memory"
	"listing-lab/internal/storage/migrations"
	pgstore "listing-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	input := flag.String("input", "", "JSONL batch file of listing records")
	collectorWS := flag.String("collector-ws", "", "Collector WebSocket endpoint for live records (overrides config)")
	dateStr := flag.String("date", "", "Snapshot date YYYY-MM-DD (default: today UTC)")
	workers := flag.Int("workers", 0, "Batch worker count (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config, empty uses config)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *collectorWS != "" {
		cfg.CollectorWS = *collectorWS
	}
	if *workers > 0 {
		cfg.Ingest.Workers = *workers
	}
	if *metricsAddr != "" {
		cfg.Ingest.MetricsAddr = *metricsAddr
	}

	date := domain.Day(time.Now().UTC())
	if *dateStr != "" {
		date, err = time.Parse(domain.DateFormat, *dateStr)
		if err != nil {
			logger.Fatalf("Parse --date: %v", err)
		}
	}

	if *input == "" && cfg.CollectorWS == "" {
		logger.Fatal("No record source. Use --input for a JSONL batch or --collector-ws for the live feed")
	}

	// Metrics server
	if cfg.Ingest.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Ingest.MetricsAddr)
			if err := http.ListenAndServe(cfg.Ingest.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Two-signal shutdown: first signal cancels, second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg, *useMemory, *input, date)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, useMemory bool, input string, date time.Time) error {
	if !useMemory && cfg.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is required (use --use-memory for in-memory storage)")
	}

	var snapshotStore storage.SnapshotStore
	var ingestStore storage.Ingestor

	if useMemory {
		snapshots := memory.NewSnapshotStore()
		transitions := memory.NewTransitionStore()
		snapshotStore = snapshots
		ingestStore = memory.NewIngestStore(snapshots, transitions)
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		snapshotStore = pgstore.NewSnapshotStore(pool)
		ingestStore = pgstore.NewIngestStore(pool)
	}

	metrics := observability.NewMetrics("")
	upserter := ingestion.NewUpserter(snapshotStore, ingestStore)
	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Upserter: upserter,
		Workers:  cfg.Ingest.Workers,
		Metrics:  metrics,
		Logger:   logger,
	})

	var records []*ingestion.Record
	if input != "" {
		var err error
		records, err = ingestion.ReadRecordsFile(input)
		if err != nil {
			return err
		}
		logger.Printf("Loaded %d records from %s", len(records), input)
	} else {
		var err error
		records, err = collectFromFeed(ctx, logger, cfg.CollectorWS)
		if err != nil {
			return err
		}
	}

	summary, err := runner.RunBatch(ctx, date, records)
	if err != nil {
		return err
	}
	metrics.LastSuccessfulBatch.SetToCurrentTime()
	metrics.BatchDuration.Observe(summary.Duration.Seconds())

	if stats, err := snapshotStore.InventoryStats(ctx, date); err != nil {
		logger.Printf("Inventory gauge update failed: %v", err)
	} else {
		metrics.ActiveInventory.Set(float64(stats.ActiveCount))
		metrics.TrackedProperties.Set(float64(stats.TotalTracked))
	}

	printSummary(ctx, logger, summary, snapshotStore, date)
	return nil
}

// collectFromFeed drains the collector feed until the stream ends or the
// context is cancelled, then returns everything received as one batch.
func collectFromFeed(ctx context.Context, logger *log.Logger, wsURL string) ([]*ingestion.Record, error) {
	source := ingestion.NewFeedSource(wsURL, logger)
	ch, err := source.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe to collector feed: %w", err)
	}

	var records []*ingestion.Record
	for rec := range ch {
		records = append(records, rec)
	}
	logger.Printf("Collected %d records from feed", len(records))
	return records, nil
}

func printSummary(ctx context.Context, logger *log.Logger, summary *ingestion.BatchSummary, snapshots storage.SnapshotStore, date time.Time) {
	logger.Printf("Batch %s: %d records, %d new, %d updated, %d failed, %d price cuts",
		summary.Date.Format(domain.DateFormat), summary.Total, summary.New, summary.Updated,
		summary.Failed, summary.PriceCuts)

	for _, pair := range summary.TransitionKeys() {
		logger.Printf("  transition %-24s %d", pair, summary.Transitions[pair])
	}

	// Properties seen yesterday but absent today often signal an off-market
	// exit the feed never reported.
	missing, err := snapshots.GetMissingSince(ctx, date.AddDate(0, 0, -1), date)
	if err != nil {
		logger.Printf("Missing-property check failed: %v", err)
		return
	}
	if len(missing) > 0 {
		logger.Printf("%d properties FOR_SALE yesterday have no snapshot today:", len(missing))
		for _, snap := range missing {
			logger.Printf("  %s %s (%s)", snap.PropertyID, snap.Address, snap.Market)
		}
	}
}
