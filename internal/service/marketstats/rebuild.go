package marketstats

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// Price segment filters for corpus rows. Listings outside the band are
// junk (typos, rentals, "1€ ask me" placeholders) and would poison the
// distributions.
const (
	junkPriceCeiling   = 10000.0
	symbolicPriceFloor = 5.0

	// DefaultMinSampleCount is the smallest bucket worth publishing.
	DefaultMinSampleCount = 5
)

// SpecExtractor is the extraction dependency of the builder.
type SpecExtractor interface {
	ExtractListing(title, description string) listing.ExtractedSpec
	ApplyCategoryConstraints(spec listing.ExtractedSpec, category listing.Category, fullText string) listing.ExtractedSpec
}

// ListingClassifier is the classification dependency of the builder.
type ListingClassifier interface {
	ClassifyListing(spec listing.ExtractedSpec, rec *listing.ListingRecord) listing.Classification
}

// BuildStats summarizes one rebuild pass.
type BuildStats struct {
	TotalRows    int
	UsedRows     int
	SkippedRows  int
	JunkPrice    int
	Buckets      int
	ThinDiscards int
}

// Builder recomputes the bucketed market statistics from a historical
// listing corpus. It is a pure batch transform: feed rows in, get an
// immutable Snapshot out.
type Builder struct {
	extractor      SpecExtractor
	classifier     ListingClassifier
	minSampleCount int
	logger         *zap.Logger
}

func NewBuilder(extractor SpecExtractor, classifier ListingClassifier, minSampleCount int, logger *zap.Logger) *Builder {
	if minSampleCount < 1 {
		minSampleCount = DefaultMinSampleCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		extractor:      extractor,
		classifier:     classifier,
		minSampleCount: minSampleCount,
		logger:         logger,
	}
}

// Build runs extraction and classification over every corpus row and
// aggregates prices per bucket at all fallback levels. Buckets thinner than
// the minimum sample count are discarded.
func (b *Builder) Build(records []listing.ListingRecord) (*Snapshot, BuildStats) {
	stats := BuildStats{TotalRows: len(records)}
	samples := make(map[BucketKey][]float64)

	for i := range records {
		rec := &records[i]
		if err := rec.Validate(); err != nil {
			stats.SkippedRows++
			b.logger.Debug("corpus row skipped",
				zap.String("listing_id", rec.ID),
				zap.Error(err))
			continue
		}

		price := rec.PriceFloat()
		if price < symbolicPriceFloor || price > junkPriceCeiling {
			stats.JunkPrice++
			continue
		}

		spec := b.extractor.ExtractListing(rec.Title, rec.Description)
		cls := b.classifier.ClassifyListing(spec, rec)
		spec = b.extractor.ApplyCategoryConstraints(spec, cls.Category, rec.FullText())

		for _, key := range bucketKeysFor(cls, spec) {
			samples[key] = append(samples[key], price)
		}
		stats.UsedRows++
	}

	entries := make(map[BucketKey]StatsEntry, len(samples))
	for key, prices := range samples {
		if len(prices) < b.minSampleCount {
			stats.ThinDiscards++
			continue
		}
		mean, stdDev := meanStdDev(prices)
		entries[key] = StatsEntry{Mean: mean, StdDev: stdDev, SampleCount: len(prices)}
	}
	stats.Buckets = len(entries)

	b.logger.Info("market snapshot built",
		zap.Int("total_rows", stats.TotalRows),
		zap.Int("used_rows", stats.UsedRows),
		zap.Int("junk_price_rows", stats.JunkPrice),
		zap.Int("buckets", stats.Buckets),
		zap.Int("thin_discards", stats.ThinDiscards))

	return &Snapshot{
		BuiltAt:     time.Now().UTC(),
		SourceCount: stats.UsedRows,
		Entries:     entries,
	}, stats
}

// bucketKeysFor expands one classified listing into every bucket its price
// contributes to: the exact and condition-collapsed buckets for each present
// component, the category base buckets, and the global base bucket.
// Broken devices stay out of the collapsed and global aggregates; their
// prices only describe the for-parts market.
func bucketKeysFor(cls listing.Classification, spec listing.ExtractedSpec) []BucketKey {
	components := []string{ComponentCategory}
	if spec.CPUTier != nil {
		components = append(components, ComponentCPU(*spec.CPUTier))
	}
	if spec.GPUTier != nil {
		components = append(components, ComponentGPU(*spec.GPUTier))
	}
	if spec.RAMGB != nil {
		components = append(components, ComponentRAM(*spec.RAMGB))
	}

	forParts := cls.Condition == listing.ConditionForParts

	keys := make([]BucketKey, 0, 2*len(components)+1)
	for _, comp := range components {
		keys = append(keys, BucketKey{string(cls.Category), string(cls.Condition), comp})
		if !forParts {
			keys = append(keys, BucketKey{string(cls.Category), string(listing.ConditionAny), comp})
		}
	}
	if !forParts {
		keys = append(keys, BucketKey{CategoryAll, string(listing.ConditionAny), ComponentCategory})
	}
	return keys
}

// meanStdDev computes the mean and the sample standard deviation (n-1).
// A single-sample bucket gets a zero deviation; lookups on it still work
// because the z-score path treats zero deviation as an unusable spread.
func meanStdDev(values []float64) (float64, float64) {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}

// SortedKeys returns the snapshot keys in deterministic order, useful for
// stable serialization and diffable rebuild logs.
func SortedKeys(entries map[BucketKey]StatsEntry) []BucketKey {
	keys := make([]BucketKey, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Condition != b.Condition {
			return a.Condition < b.Condition
		}
		return strings.Compare(a.Component, b.Component) < 0
	})
	return keys
}
