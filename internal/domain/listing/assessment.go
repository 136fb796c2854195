package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/listingguard/risk-engine/internal/domain/values"
)

// Reason is one contribution to the risk score, kept human-readable so a
// reviewer can see why a listing was flagged.
type Reason struct {
	RuleName string `json:"rule_name"`
	Points   int    `json:"points"`
	Detail   string `json:"detail"`
}

// RiskAssessment is the bounded, explainable scoring result for one
// listing. TotalScore is always within [0, 100] and Reasons is ordered by
// descending point contribution.
type RiskAssessment struct {
	ID                uuid.UUID     `json:"id"`
	CompositeZ        float64       `json:"composite_z"`
	StatisticalPoints int           `json:"statistical_points"`
	HeuristicPoints   int           `json:"heuristic_points"`
	TotalScore        int           `json:"total_score"`
	Reasons           []Reason      `json:"reasons"`
	LowConfidence     bool          `json:"low_confidence"`
	FallbackLevel     string        `json:"fallback_level,omitempty"`
	EstimatedValue    *values.Money `json:"estimated_value,omitempty"`
	ScoredAt          time.Time     `json:"scored_at"`
}

// ScoredListing is the output record handed to the external ingestion
// sink: the input record plus the derived fields. Field names are part of
// the sink's index mapping and must stay stable.
type ScoredListing struct {
	ListingRecord
	ExtractedSpec  ExtractedSpec  `json:"extracted_spec"`
	Classification Classification `json:"classification"`
	RiskAssessment RiskAssessment `json:"risk_assessment"`
	PriceCorrected bool           `json:"price_corrected,omitempty"`
}
