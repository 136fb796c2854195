package scoring

import (
	"fmt"
	"math"

	"github.com/listingguard/risk-engine/internal/domain/listing"
	"github.com/listingguard/risk-engine/internal/service/marketstats"
)

// StatsSource is the market lookup the calculator reads. Satisfied by
// *marketstats.Store.
type StatsSource interface {
	Lookup(category listing.Category, condition listing.Condition, component string) (marketstats.StatsEntry, marketstats.FallbackLevel, error)
}

// CompositeResult is the statistical read on one listing's price.
type CompositeResult struct {
	// Z is the weighted composite z-score, 0 when no component was usable.
	Z float64

	// ReferenceMean is the weight-averaged bucket mean, the engine's
	// estimate of what the hardware should cost. Zero when unusable.
	ReferenceMean float64

	// UsedComponents counts the buckets that contributed.
	UsedComponents int

	// WorstFallback is the most degraded fallback level among the used
	// buckets, FallbackNone when none were usable.
	WorstFallback marketstats.FallbackLevel

	// LowConfidence marks a composite built from no buckets or only from
	// category/global aggregates.
	LowConfidence bool
}

// CompositeZCalculator computes the weighted composite z-score of a price
// against the market snapshot. Weights of absent or zero-spread components
// are excluded and the rest renormalized, so a listing mentioning only RAM
// is judged purely on its RAM and category buckets.
type CompositeZCalculator struct {
	stats StatsSource
	cfg   StatisticalConfig
}

func NewCompositeZCalculator(stats StatsSource, cfg StatisticalConfig) *CompositeZCalculator {
	return &CompositeZCalculator{stats: stats, cfg: cfg}
}

type componentTerm struct {
	component string
	weight    float64
}

// Compute resolves every present component against the snapshot and folds
// the per-component z-scores into one composite. It never returns NaN or
// Inf: unusable components contribute nothing.
func (c *CompositeZCalculator) Compute(price float64, spec listing.ExtractedSpec, cls listing.Classification) CompositeResult {
	terms := make([]componentTerm, 0, 4)
	if spec.CPUTier != nil {
		terms = append(terms, componentTerm{marketstats.ComponentCPU(*spec.CPUTier), c.cfg.Weights.CPU})
	}
	if spec.GPUTier != nil {
		terms = append(terms, componentTerm{marketstats.ComponentGPU(*spec.GPUTier), c.cfg.Weights.GPU})
	}
	if spec.RAMGB != nil {
		terms = append(terms, componentTerm{marketstats.ComponentRAM(*spec.RAMGB), c.cfg.Weights.RAM})
	}
	terms = append(terms, componentTerm{marketstats.ComponentCategory, c.cfg.Weights.Category})

	var (
		weightSum float64
		zSum      float64
		meanSum   float64
		used      int
		worst     = marketstats.FallbackNone
	)

	for _, term := range terms {
		if term.weight <= 0 {
			continue
		}
		entry, level, err := c.stats.Lookup(cls.Category, cls.Condition, term.component)
		if err != nil || entry.StdDev <= 0 {
			continue
		}
		z := clamp((price-entry.Mean)/entry.StdDev, -c.cfg.ZClamp, c.cfg.ZClamp)
		zSum += term.weight * z
		meanSum += term.weight * entry.Mean
		weightSum += term.weight
		used++
		worst = worseFallback(worst, level)
	}

	if used == 0 || weightSum <= 0 {
		return CompositeResult{WorstFallback: marketstats.FallbackNone, LowConfidence: true}
	}

	return CompositeResult{
		Z:              zSum / weightSum,
		ReferenceMean:  meanSum / weightSum,
		UsedComponents: used,
		WorstFallback:  worst,
		LowConfidence:  worst == marketstats.FallbackCategory || worst == marketstats.FallbackGlobal,
	}
}

// StatisticalPoints maps the composite onto risk points. The two z tiers
// are mutually exclusive; the cheap-fraction rule is additive on top.
func (c *CompositeZCalculator) StatisticalPoints(price float64, result CompositeResult) (int, []listing.Reason) {
	var reasons []listing.Reason
	total := 0

	switch {
	case result.UsedComponents == 0:
		// nothing comparable, no statistical opinion
	case result.Z < c.cfg.ZSevere:
		total += c.cfg.SeverePoints
		reasons = append(reasons, listing.Reason{
			RuleName: "price_severely_below_market",
			Points:   c.cfg.SeverePoints,
			Detail:   fmt.Sprintf("composite z %.2f below %.2f", result.Z, c.cfg.ZSevere),
		})
	case result.Z < c.cfg.ZModerate:
		total += c.cfg.ModeratePoints
		reasons = append(reasons, listing.Reason{
			RuleName: "price_below_market",
			Points:   c.cfg.ModeratePoints,
			Detail:   fmt.Sprintf("composite z %.2f below %.2f", result.Z, c.cfg.ZModerate),
		})
	}

	if result.ReferenceMean > 0 && price < c.cfg.CheapFraction*result.ReferenceMean {
		total += c.cfg.CheapPoints
		reasons = append(reasons, listing.Reason{
			RuleName: "price_fraction_of_estimate",
			Points:   c.cfg.CheapPoints,
			Detail: fmt.Sprintf("price %.2f under %.0f%% of estimated value %.2f",
				price, c.cfg.CheapFraction*100, result.ReferenceMean),
		})
	}

	return total, reasons
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// fallbackRank orders levels from most to least specific.
var fallbackRank = map[marketstats.FallbackLevel]int{
	marketstats.FallbackExact:        0,
	marketstats.FallbackConditionAny: 1,
	marketstats.FallbackCategory:     2,
	marketstats.FallbackGlobal:       3,
	marketstats.FallbackNone:         -1,
}

func worseFallback(a, b marketstats.FallbackLevel) marketstats.FallbackLevel {
	if fallbackRank[b] > fallbackRank[a] {
		return b
	}
	return a
}
