// Command rebuild recomputes the bucketed market statistics from the
// historical listing corpus and publishes a new snapshot file.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/infrastructure/config"
	"github.com/listingguard/risk-engine/internal/infrastructure/database"
	"github.com/listingguard/risk-engine/internal/infrastructure/telemetry"
	"github.com/listingguard/risk-engine/internal/metrics"
	"github.com/listingguard/risk-engine/internal/service/classification"
	"github.com/listingguard/risk-engine/internal/service/extraction"
	"github.com/listingguard/risk-engine/internal/service/marketstats"
)

var (
	configPath  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	outPath     = flag.String("output", "", "Snapshot destination (overrides configuration)")
	windowDays  = flag.Int("window-days", 180, "Corpus window: listings newer than this many days")
	dryRun      = flag.Bool("dry-run", false, "Build and report without writing the snapshot")
	metricsFile = flag.String("metrics-file", "", "Dump Prometheus metrics to this file when the rebuild finishes")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.ConnMaxLifetime, logger)
	if err != nil {
		logger.Fatal("failed to connect to corpus database", zap.Error(err))
	}
	defer pool.Close()

	cutoff := time.Now().AddDate(0, 0, -*windowDays)
	records, err := database.NewCorpusRepository(pool, logger).FetchSince(ctx, cutoff)
	if err != nil {
		logger.Fatal("failed to fetch corpus", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	start := time.Now()
	builder := marketstats.NewBuilder(
		extraction.NewExtractor(),
		classification.NewClassifier(),
		cfg.MarketStats.MinSampleCount,
		logger,
	)
	snap, stats := builder.Build(records)

	m.CorpusRowsUsed.Add(float64(stats.UsedRows))
	m.CorpusRowsSkipped.Add(float64(stats.SkippedRows + stats.JunkPrice))
	m.SnapshotBuckets.Set(float64(stats.Buckets))
	m.BatchDuration.Observe(time.Since(start).Seconds())

	if *metricsFile != "" {
		if err := metrics.WriteTextfile(registry, *metricsFile); err != nil {
			logger.Warn("failed to write metrics file",
				zap.String("path", *metricsFile),
				zap.Error(err))
		}
	}

	if stats.Buckets == 0 {
		logger.Fatal("rebuild produced no buckets, keeping previous snapshot",
			zap.Int("total_rows", stats.TotalRows))
	}

	if *dryRun {
		logger.Info("dry run, snapshot not written",
			zap.Int("buckets", stats.Buckets))
		return
	}

	path := cfg.MarketStats.SnapshotPath
	if *outPath != "" {
		path = *outPath
	}
	if err := marketstats.SaveFile(snap, path); err != nil {
		logger.Fatal("failed to write snapshot",
			zap.String("path", path),
			zap.Error(err))
	}

	logger.Info("snapshot published",
		zap.String("path", path),
		zap.Int("buckets", stats.Buckets),
		zap.Int("used_rows", stats.UsedRows))
}
