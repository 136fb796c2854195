// Package metrics exposes the engine's Prometheus instrumentation. The
// batch binaries are short-lived, so the collectors are exported two ways:
// scraped from an optional HTTP listener held open for the run, or dumped
// in text exposition format on completion for a textfile collector.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "risk_engine"

// Metrics bundles the collectors the pipeline and rebuild report into.
type Metrics struct {
	ListingsProcessed prometheus.Counter
	ListingsSkipped   *prometheus.CounterVec
	ListingsFlagged   prometheus.Counter
	PricesCorrected   prometheus.Counter
	ScoreDistribution prometheus.Histogram
	BatchDuration     prometheus.Histogram

	CorpusRowsUsed    prometheus.Counter
	CorpusRowsSkipped prometheus.Counter
	SnapshotBuckets   prometheus.Gauge
}

// New registers the engine collectors on reg. Pass a fresh registry in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ListingsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_processed_total",
			Help:      "Listings scored successfully.",
		}),
		ListingsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_skipped_total",
			Help:      "Listings dropped before scoring, by reason.",
		}, []string{"reason"}),
		ListingsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_flagged_total",
			Help:      "Listings whose score reached the flag threshold.",
		}),
		PricesCorrected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prices_corrected_total",
			Help:      "Symbolic prices replaced with a price found in the text.",
		}),
		ScoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of emitted risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one batch run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		CorpusRowsUsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_rows_used_total",
			Help:      "Corpus rows that contributed to the snapshot rebuild.",
		}),
		CorpusRowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_rows_skipped_total",
			Help:      "Corpus rows dropped during rebuild (invalid or junk price).",
		}),
		SnapshotBuckets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_buckets",
			Help:      "Buckets in the last built market snapshot.",
		}),
	}
}

// WriteTextfile dumps every metric registered on g to path in Prometheus
// text exposition format, through a temp file and rename so a collector
// never reads a half-written dump.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".metrics-*.prom")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
