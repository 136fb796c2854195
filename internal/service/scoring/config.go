package scoring

// Weights are the nominal component weights of the composite z-score.
// They are renormalized over the components actually present, so they only
// need to be non-negative with a positive sum.
type Weights struct {
	CPU      float64 `koanf:"cpu" validate:"gte=0"`
	GPU      float64 `koanf:"gpu" validate:"gte=0"`
	RAM      float64 `koanf:"ram" validate:"gte=0"`
	Category float64 `koanf:"category" validate:"gte=0"`
}

// Sum returns the total nominal weight.
func (w Weights) Sum() float64 {
	return w.CPU + w.GPU + w.RAM + w.Category
}

// StatisticalConfig tunes the composite z-score and its point mapping.
type StatisticalConfig struct {
	Weights Weights `koanf:"weights"`

	// ZClamp bounds each per-component z before weighting.
	ZClamp float64 `koanf:"z_clamp" validate:"gt=0"`

	// Tier thresholds. Severe wins over moderate; only one of the two
	// tiers fires per listing.
	ZModerate      float64 `koanf:"z_moderate"`
	ZSevere        float64 `koanf:"z_severe"`
	ModeratePoints int     `koanf:"moderate_points" validate:"gte=0"`
	SeverePoints   int     `koanf:"severe_points" validate:"gte=0"`

	// CheapFraction fires independently of the tiers: price below this
	// fraction of the weighted reference mean adds CheapPoints.
	CheapFraction float64 `koanf:"cheap_fraction" validate:"gte=0,lte=1"`
	CheapPoints   int     `koanf:"cheap_points" validate:"gte=0"`
}

// HeuristicConfig tunes the independent fraud signal rules.
type HeuristicConfig struct {
	ShortDescriptionMaxRunes int     `koanf:"short_description_max_runes" validate:"gte=0"`
	ShortDescriptionMinPrice float64 `koanf:"short_description_min_price" validate:"gte=0"`
	ShortDescriptionPoints   int     `koanf:"short_description_points" validate:"gte=0"`

	ContactLeakagePoints int `koanf:"contact_leakage_points" validate:"gte=0"`

	NewAccountWindowDays int `koanf:"new_account_window_days" validate:"gte=0"`
	NewAccountMaxPoints  int `koanf:"new_account_max_points" validate:"gte=0"`

	NoSalesHistoryPoints int `koanf:"no_sales_history_points" validate:"gte=0"`

	SuspiciousKeywords      []string `koanf:"suspicious_keywords"`
	SuspiciousKeywordPoints int      `koanf:"suspicious_keyword_points" validate:"gte=0"`

	DormantMinAgeDays int `koanf:"dormant_min_age_days" validate:"gte=0"`
	DormantPoints     int `koanf:"dormant_points" validate:"gte=0"`

	TrustedMinReviews int     `koanf:"trusted_min_reviews" validate:"gte=0"`
	TrustedMinRating  float64 `koanf:"trusted_min_rating" validate:"gte=0,lte=5"`
	TrustedPoints     int     `koanf:"trusted_points" validate:"gte=0"`
}

// Config is the full scoring configuration.
type Config struct {
	Statistical StatisticalConfig `koanf:"statistical"`
	Heuristics  HeuristicConfig   `koanf:"heuristics"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Statistical: StatisticalConfig{
			Weights:        Weights{CPU: 0.5, GPU: 0.3, RAM: 0.1, Category: 0.1},
			ZClamp:         10,
			ZModerate:      -1.5,
			ZSevere:        -2.5,
			ModeratePoints: 30,
			SeverePoints:   40,
			CheapFraction:  0.4,
			CheapPoints:    20,
		},
		Heuristics: HeuristicConfig{
			ShortDescriptionMaxRunes: 30,
			ShortDescriptionMinPrice: 200,
			ShortDescriptionPoints:   15,
			ContactLeakagePoints:     30,
			NewAccountWindowDays:     30,
			NewAccountMaxPoints:      30,
			NoSalesHistoryPoints:     10,
			SuspiciousKeywords: []string{
				"urgente", "bloqueado", "icloud", "bios", "tarada",
				"sin cargador", "no probado", "factura no",
			},
			SuspiciousKeywordPoints: 20,
			DormantMinAgeDays:       365,
			DormantPoints:           20,
			TrustedMinReviews:       5,
			TrustedMinRating:        4.5,
			TrustedPoints:           30,
		},
	}
}
