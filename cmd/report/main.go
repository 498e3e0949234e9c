package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"listing-lab/internal/config"
	"listing-lab/internal/domain"
	"listing-lab/internal/liquidity"
	"listing-lab/internal/reporting"
	chstore "listing-lab/internal/storage/clickhouse"
	"listing-lab/internal/storage/migrations"
	pgstore "listing-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for archiving (overrides config)")
	lookback := flag.Int("lookback", 0, "Transition lookback window in days (overrides config)")
	market := flag.String("market", "", "Restrict analysis to one market")
	asOfStr := flag.String("as-of", "", "Analysis date YYYY-MM-DD (default: today UTC)")
	format := flag.String("format", "markdown", "Output format: markdown, json, or csv")
	archive := flag.Bool("archive", false, "Archive the result to ClickHouse")
	trendDays := flag.Int("trend-days", 0, "Append a trend section comparing against the archive N days back (markdown only)")
	output := flag.String("output", "", "Output file (default: stdout)")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	if *lookback > 0 {
		cfg.Analysis.LookbackDays = *lookback
	}

	asOf := domain.Day(time.Now().UTC())
	if *asOfStr != "" {
		asOf, err = time.Parse(domain.DateFormat, *asOfStr)
		if err != nil {
			logger.Fatalf("Parse --as-of: %v", err)
		}
	}

	ctx := context.Background()

	out, err := run(ctx, logger, cfg, *market, asOf, *format, *archive, *trendDays)
	if err != nil {
		logger.Fatalf("Error: %v", err)
	}

	if *output == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(*output, []byte(out), 0o644); err != nil {
		logger.Fatalf("Write output: %v", err)
	}
	logger.Printf("Report written to %s", *output)
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, market string, asOf time.Time, format string, archive bool, trendDays int) (string, error) {
	if cfg.PostgresDSN == "" {
		return "", fmt.Errorf("postgres DSN is required")
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return "", fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return "", fmt.Errorf("run migrations: %w", err)
	}

	eraStart, err := cfg.EraStart()
	if err != nil {
		return "", err
	}

	analyzer := liquidity.NewAnalyzer(pgstore.NewSnapshotStore(pool), pgstore.NewTransitionStore(pool), logger)
	ls, err := analyzer.Compute(ctx, liquidity.Params{
		LookbackDays:        cfg.Analysis.LookbackDays,
		SurvivalHorizonDays: cfg.Analysis.SurvivalHorizonDays,
		Market:              market,
		AsOf:                asOf,
		Thresholds:          cfg.Analysis.Thresholds,
		EraStart:            eraStart,
	})
	if err != nil {
		return "", fmt.Errorf("compute liquidity: %w", err)
	}

	if archive {
		if err := archiveSnapshot(ctx, logger, cfg.ClickhouseDSN, ls); err != nil {
			// The report is still useful without the archive copy.
			logger.Printf("Archive failed: %v", err)
		}
	}

	report := reporting.NewGenerator(cfg.Analysis.Thresholds).Generate(ls, cfg.Analysis.LookbackDays)

	switch format {
	case "markdown":
		out := reporting.RenderMarkdown(report)
		if trendDays > 0 {
			section, err := trendSection(ctx, cfg.ClickhouseDSN, market, asOf, trendDays)
			if err != nil {
				// The report stands on its own without the trend.
				logger.Printf("Trend unavailable: %v", err)
			} else {
				out += section
			}
		}
		return out, nil
	case "json":
		return reporting.RenderJSON(report)
	case "csv":
		return reporting.RenderMarketCSV(report.ByMarket), nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown, json, or csv)", format)
	}
}

// trendSection reads the archived rows around asOf and renders the movement
// between asOf and trendDays earlier.
func trendSection(ctx context.Context, dsn, market string, asOf time.Time, trendDays int) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("clickhouse DSN is required for --trend-days")
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	rows, err := chstore.NewLiquidityArchiveStore(conn).GetRange(ctx, market, asOf.AddDate(0, 0, -trendDays), asOf)
	if err != nil {
		return "", fmt.Errorf("read archive range: %w", err)
	}

	trend, err := liquidity.ComputeTrend(rows, asOf, trendDays)
	if err != nil {
		return "", err
	}
	return reporting.RenderTrendMarkdown(trend), nil
}

func archiveSnapshot(ctx context.Context, logger *log.Logger, dsn string, ls *domain.LiquiditySnapshot) error {
	if dsn == "" {
		return fmt.Errorf("clickhouse DSN is required for --archive")
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	defer conn.Close()

	if err := chstore.NewLiquidityArchiveStore(conn).InsertDaily(ctx, ls); err != nil {
		return err
	}
	logger.Printf("Archived liquidity snapshot for %s", ls.AsOf.Format(domain.DateFormat))
	return nil
}
