package scoring

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/listingguard/risk-engine/internal/domain/listing"
	"github.com/listingguard/risk-engine/internal/domain/values"
)

// RiskScorer folds the statistical and heuristic signals into one bounded,
// explainable assessment. It emits scores and reasons; acting on them is
// the consumer's business.
type RiskScorer struct {
	calc     *CompositeZCalculator
	detector *HeuristicDetector
	now      func() time.Time
}

func NewRiskScorer(stats StatsSource, cfg Config) *RiskScorer {
	return &RiskScorer{
		calc:     NewCompositeZCalculator(stats, cfg.Statistical),
		detector: NewHeuristicDetector(cfg.Heuristics),
		now:      time.Now,
	}
}

// Assess scores one validated listing. Deterministic for a fixed snapshot
// and clock: scoring the same listing twice yields the same assessment
// apart from ID and timestamp.
func (s *RiskScorer) Assess(rec *listing.ListingRecord, spec listing.ExtractedSpec, cls listing.Classification) listing.RiskAssessment {
	now := s.now().UTC()
	price := rec.PriceFloat()

	composite := s.calc.Compute(price, spec, cls)
	statPoints, reasons := s.calc.StatisticalPoints(price, composite)

	signals, heurPoints := s.detector.Evaluate(SignalInput{
		Listing:  rec,
		Price:    price,
		FullText: strings.ToLower(rec.FullText()),
		Now:      now,
	})
	for _, sig := range signals {
		reasons = append(reasons, listing.Reason{
			RuleName: sig.RuleName,
			Points:   sig.Points,
			Detail:   sig.Detail,
		})
	}

	total := statPoints + heurPoints
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	// highest-impact reasons first, insertion order breaks ties
	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Points > reasons[j].Points
	})

	assessment := listing.RiskAssessment{
		ID:                uuid.New(),
		CompositeZ:        composite.Z,
		StatisticalPoints: statPoints,
		HeuristicPoints:   heurPoints,
		TotalScore:        total,
		Reasons:           reasons,
		LowConfidence:     composite.LowConfidence,
		FallbackLevel:     string(composite.WorstFallback),
		ScoredAt:          now,
	}
	if composite.ReferenceMean > 0 {
		currency := values.EUR
		if m, err := rec.Money(); err == nil {
			currency = m.Currency()
		}
		if estimate, err := values.NewMoneyFromFloat(composite.ReferenceMean, currency); err == nil {
			estimate = estimate.Round(2)
			assessment.EstimatedValue = &estimate
		}
	}
	return assessment
}
