// Command scorer runs the risk-scoring batch: listing NDJSON on stdin (or
// a file), scored NDJSON on stdout (or a file).
package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/infrastructure/config"
	"github.com/listingguard/risk-engine/internal/infrastructure/telemetry"
	"github.com/listingguard/risk-engine/internal/metrics"
	"github.com/listingguard/risk-engine/internal/service/classification"
	"github.com/listingguard/risk-engine/internal/service/extraction"
	"github.com/listingguard/risk-engine/internal/service/marketstats"
	"github.com/listingguard/risk-engine/internal/service/pipeline"
	"github.com/listingguard/risk-engine/internal/service/scoring"
)

var (
	configPath  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	inputPath   = flag.String("input", "-", "Listings NDJSON file, - for stdin")
	outputPath  = flag.String("output", "-", "Scored NDJSON destination, - for stdout")
	snapshot    = flag.String("snapshot", "", "Market snapshot file (overrides configuration)")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address for the batch lifetime")
	metricsFile = flag.String("metrics-file", "", "Dump Prometheus metrics to this file when the batch finishes")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// no logger yet
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	snapshotPath := cfg.MarketStats.SnapshotPath
	if *snapshot != "" {
		snapshotPath = *snapshot
	}
	snap, err := marketstats.LoadFile(snapshotPath)
	if err != nil {
		logger.Fatal("failed to load market snapshot",
			zap.String("path", snapshotPath),
			zap.Error(err))
	}
	store := marketstats.NewStoreWith(snap, cfg.MarketStats.MinSampleCount)
	logger.Info("market snapshot loaded",
		zap.String("path", snapshotPath),
		zap.Int("buckets", snap.Len()),
		zap.Time("built_at", snap.BuiltAt))

	in, err := openInput(*inputPath)
	if err != nil {
		logger.Fatal("failed to open input", zap.Error(err))
	}
	defer in.Close()

	out, err := openOutput(*outputPath)
	if err != nil {
		logger.Fatal("failed to open output", zap.Error(err))
	}
	defer out.Close()

	registry := prometheus.NewRegistry()
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, registry, logger)
	}

	processor := pipeline.NewProcessor(
		extraction.NewExtractor(),
		classification.NewClassifier(),
		scoring.NewRiskScorer(store, cfg.Scoring),
		cfg.Pipeline,
		metrics.New(registry),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	stats, err := processor.Run(ctx, in, out)

	if *metricsFile != "" {
		if werr := metrics.WriteTextfile(registry, *metricsFile); werr != nil {
			logger.Warn("failed to write metrics file",
				zap.String("path", *metricsFile),
				zap.Error(werr))
		}
	}

	if err != nil {
		logger.Fatal("batch failed",
			zap.Int("scored", stats.Scored),
			zap.Error(err))
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
