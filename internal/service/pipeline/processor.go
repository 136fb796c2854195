// Package pipeline wires extraction, classification and scoring into the
// batch NDJSON flow: listings in, scored listings out.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/domain/errors"
	"github.com/listingguard/risk-engine/internal/domain/listing"
	"github.com/listingguard/risk-engine/internal/metrics"
	"github.com/listingguard/risk-engine/internal/service/extraction"
)

const (
	// maxLineBytes bounds one NDJSON record; anything longer is corrupt
	// collector output.
	maxLineBytes = 1 << 20

	symbolicPriceCeiling = 5.0
)

// Config tunes the batch runner.
type Config struct {
	Workers       int `koanf:"workers" validate:"gte=1"`
	FlagThreshold int `koanf:"flag_threshold" validate:"gte=0,lte=100"`
}

// DefaultConfig returns the production pipeline defaults.
func DefaultConfig() Config {
	return Config{Workers: 4, FlagThreshold: 60}
}

// Classifier is the classification step of the pipeline.
type Classifier interface {
	ClassifyListing(spec listing.ExtractedSpec, rec *listing.ListingRecord) listing.Classification
}

// Scorer is the assessment step of the pipeline.
type Scorer interface {
	Assess(rec *listing.ListingRecord, spec listing.ExtractedSpec, cls listing.Classification) listing.RiskAssessment
}

// Stats summarizes one batch run.
type Stats struct {
	Read      int
	Scored    int
	Skipped   int
	Flagged   int
	Corrected int
	Elapsed   time.Duration
}

// Processor runs the scoring flow over an NDJSON stream. A malformed or
// incomplete record is skipped and logged; it never aborts the batch.
type Processor struct {
	extractor  *extraction.Extractor
	classifier Classifier
	scorer     Scorer
	cfg        Config
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewProcessor(extractor *extraction.Extractor, classifier Classifier, scorer Scorer, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Processor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		extractor:  extractor,
		classifier: classifier,
		scorer:     scorer,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// Score runs the full per-listing flow: hidden-price correction, spec
// extraction, classification, category constraints, assessment.
func (p *Processor) Score(rec *listing.ListingRecord) listing.ScoredListing {
	corrected := p.correctSymbolicPrice(rec)

	spec := p.extractor.ExtractListing(rec.Title, rec.Description)
	cls := p.classifier.ClassifyListing(spec, rec)
	spec = p.extractor.ApplyCategoryConstraints(spec, cls.Category, rec.FullText())

	assessment := p.scorer.Assess(rec, spec, cls)

	return listing.ScoredListing{
		ListingRecord:  *rec,
		ExtractedSpec:  spec,
		Classification: cls,
		RiskAssessment: assessment,
		PriceCorrected: corrected,
	}
}

// correctSymbolicPrice replaces a placeholder ask ("1€, ask me") with a
// real price found in the listing text. Mutates the record's price.
func (p *Processor) correctSymbolicPrice(rec *listing.ListingRecord) bool {
	if rec.Price == nil {
		return false
	}
	if rec.PriceFloat() >= symbolicPriceCeiling {
		return false
	}
	hidden := extraction.ExtractHiddenPrice(rec.Title, rec.Description)
	if hidden == nil {
		return false
	}
	rec.Price = hidden
	p.logger.Debug("symbolic price corrected",
		zap.String("listing_id", rec.ID),
		zap.String("price", hidden.String()))
	return true
}

// Run streams NDJSON listings from r, scores them across the worker pool,
// and writes ScoredListing NDJSON to w. Output order follows completion,
// not input order.
func (p *Processor) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	jobs := make(chan *listing.ListingRecord, p.cfg.Workers)
	results := make(chan listing.ScoredListing, p.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				results <- p.Score(rec)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		writerErr  error
		writerDone = make(chan struct{})
		mu         sync.Mutex
	)
	go func() {
		defer close(writerDone)
		out := bufio.NewWriter(w)
		enc := json.NewEncoder(out)
		for scored := range results {
			if err := enc.Encode(scored); err != nil {
				writerErr = errors.Wrap(err, "encode scored listing")
				continue
			}
			mu.Lock()
			stats.Scored++
			if scored.PriceCorrected {
				stats.Corrected++
			}
			if scored.RiskAssessment.TotalScore >= p.cfg.FlagThreshold {
				stats.Flagged++
				p.observeFlagged()
			}
			mu.Unlock()
			p.observeScored(scored)
		}
		if err := out.Flush(); err != nil && writerErr == nil {
			writerErr = errors.Wrap(err, "flush output")
		}
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var readErr error
scan:
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			readErr = ctx.Err()
			break scan
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		mu.Lock()
		stats.Read++
		mu.Unlock()

		rec := &listing.ListingRecord{}
		if err := json.Unmarshal([]byte(line), rec); err != nil {
			p.skip(&stats, &mu, rec.ID, "malformed_json", err)
			continue
		}
		if err := rec.Validate(); err != nil {
			p.skip(&stats, &mu, rec.ID, skipReasonOf(err), err)
			continue
		}
		jobs <- rec
	}
	if err := scanner.Err(); err != nil && readErr == nil {
		readErr = errors.Wrap(err, "read input")
	}

	close(jobs)
	<-writerDone

	stats.Elapsed = time.Since(start)
	if p.metrics != nil {
		p.metrics.BatchDuration.Observe(stats.Elapsed.Seconds())
	}
	p.logger.Info("batch finished",
		zap.Int("read", stats.Read),
		zap.Int("scored", stats.Scored),
		zap.Int("skipped", stats.Skipped),
		zap.Int("flagged", stats.Flagged),
		zap.Int("corrected", stats.Corrected),
		zap.Duration("elapsed", stats.Elapsed))

	if readErr != nil {
		return stats, readErr
	}
	return stats, writerErr
}

func (p *Processor) skip(stats *Stats, mu *sync.Mutex, id, reason string, err error) {
	mu.Lock()
	stats.Skipped++
	mu.Unlock()
	if p.metrics != nil {
		p.metrics.ListingsSkipped.WithLabelValues(reason).Inc()
	}
	p.logger.Warn("listing skipped",
		zap.String("listing_id", id),
		zap.String("reason", reason),
		zap.Error(err))
}

func (p *Processor) observeScored(scored listing.ScoredListing) {
	if p.metrics == nil {
		return
	}
	p.metrics.ListingsProcessed.Inc()
	p.metrics.ScoreDistribution.Observe(float64(scored.RiskAssessment.TotalScore))
	if scored.PriceCorrected {
		p.metrics.PricesCorrected.Inc()
	}
}

func (p *Processor) observeFlagged() {
	if p.metrics != nil {
		p.metrics.ListingsFlagged.Inc()
	}
}

// skipReasonOf maps validation sentinels onto metric labels.
func skipReasonOf(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrMissingID):
		return "missing_id"
	case stderrors.Is(err, errors.ErrMissingPrice):
		return "missing_price"
	case stderrors.Is(err, errors.ErrNegativePrice):
		return "negative_price"
	case stderrors.Is(err, errors.ErrUnsupportedCurrency):
		return "unsupported_currency"
	}
	if reason := errors.SkipReason(err); reason != "" {
		return reason
	}
	return "invalid"
}
