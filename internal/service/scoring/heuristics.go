package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// SignalInput is the view of a listing the heuristic rules evaluate.
type SignalInput struct {
	Listing  *listing.ListingRecord
	Price    float64
	FullText string // lowercased title + description
	Now      time.Time
}

// Signal is one fired heuristic. Negative points are allowed; the final
// score clamp absorbs them.
type Signal struct {
	RuleName string
	Points   int
	Detail   string
}

// Rule is one independent fraud signal. Rules never see or suppress each
// other; every matching rule contributes its points.
type Rule interface {
	Evaluate(in SignalInput) (Signal, bool)
}

// HeuristicDetector runs a fixed rule set over a listing.
type HeuristicDetector struct {
	rules []Rule
}

func NewHeuristicDetector(cfg HeuristicConfig) *HeuristicDetector {
	return &HeuristicDetector{rules: []Rule{
		shortDescriptionRule{cfg},
		contactLeakageRule{cfg},
		newAccountRule{cfg},
		noSalesHistoryRule{cfg},
		suspiciousKeywordsRule{cfg: cfg, patterns: compileKeywords(cfg.SuspiciousKeywords)},
		dormantAccountRule{cfg},
		trustedSellerRule{cfg},
	}}
}

// Evaluate fires every rule and returns the signals plus their point sum.
func (d *HeuristicDetector) Evaluate(in SignalInput) ([]Signal, int) {
	var (
		signals []Signal
		total   int
	)
	for _, rule := range d.rules {
		if sig, ok := rule.Evaluate(in); ok {
			signals = append(signals, sig)
			total += sig.Points
		}
	}
	return signals, total
}

// shortDescriptionRule: an expensive listing with almost no text is a
// classic throwaway scam post.
type shortDescriptionRule struct{ cfg HeuristicConfig }

func (r shortDescriptionRule) Evaluate(in SignalInput) (Signal, bool) {
	length := utf8.RuneCountInString(strings.TrimSpace(in.Listing.Description))
	if length >= r.cfg.ShortDescriptionMaxRunes || in.Price <= r.cfg.ShortDescriptionMinPrice {
		return Signal{}, false
	}
	return Signal{
		RuleName: "short_description",
		Points:   r.cfg.ShortDescriptionPoints,
		Detail:   fmt.Sprintf("description of %d chars on a %.0f€ listing", length, in.Price),
	}, true
}

// Contact patterns: Spanish mobile numbers, messenger tokens, emails.
// Marketplaces route contact in-platform, so leaking any of these into the
// text means the seller wants to move the deal off the record.
var (
	rePhone     = regexp.MustCompile(`\b[67]\d{8}\b|\b[67]\d{2}[\s.-]\d{3}[\s.-]\d{3}\b`)
	reMessenger = regexp.MustCompile(`\b(whatsapp|whassap|wasap|guasap|wazap|telegram)\b`)
	reEmail     = regexp.MustCompile(`\b[a-z0-9._%+-]{1,64}@[a-z0-9.-]{1,128}\.[a-z]{2,12}\b`)
)

type contactLeakageRule struct{ cfg HeuristicConfig }

func (r contactLeakageRule) Evaluate(in SignalInput) (Signal, bool) {
	var kind string
	switch {
	case reMessenger.MatchString(in.FullText):
		kind = "messenger handle"
	case rePhone.MatchString(in.FullText):
		kind = "phone number"
	case reEmail.MatchString(in.FullText):
		kind = "email address"
	default:
		return Signal{}, false
	}
	return Signal{
		RuleName: "contact_leakage",
		Points:   r.cfg.ContactLeakagePoints,
		Detail:   kind + " in listing text",
	}, true
}

// newAccountRule: points decay linearly over the window, a day-old account
// scores near the maximum and one at the window edge scores near zero.
type newAccountRule struct{ cfg HeuristicConfig }

func (r newAccountRule) Evaluate(in SignalInput) (Signal, bool) {
	seller := in.Listing.Seller
	if seller == nil || seller.RegistrationDate == nil || r.cfg.NewAccountWindowDays <= 0 {
		return Signal{}, false
	}
	age := in.Now.Sub(*seller.RegistrationDate)
	window := time.Duration(r.cfg.NewAccountWindowDays) * 24 * time.Hour
	if age < 0 || age >= window {
		return Signal{}, false
	}
	remaining := 1 - age.Seconds()/window.Seconds()
	points := int(math.Round(float64(r.cfg.NewAccountMaxPoints) * remaining))
	if points <= 0 {
		return Signal{}, false
	}
	return Signal{
		RuleName: "new_account",
		Points:   points,
		Detail:   fmt.Sprintf("seller registered %d days ago", int(age.Hours()/24)),
	}, true
}

type noSalesHistoryRule struct{ cfg HeuristicConfig }

func (r noSalesHistoryRule) Evaluate(in SignalInput) (Signal, bool) {
	seller := in.Listing.Seller
	if seller == nil || seller.ReviewCount == nil || *seller.ReviewCount != 0 {
		return Signal{}, false
	}
	return Signal{
		RuleName: "no_sales_history",
		Points:   r.cfg.NoSalesHistoryPoints,
		Detail:   "seller has zero reviews",
	}, true
}

type suspiciousKeywordsRule struct {
	cfg      HeuristicConfig
	patterns []*regexp.Regexp
}

func (r suspiciousKeywordsRule) Evaluate(in SignalInput) (Signal, bool) {
	for i, p := range r.patterns {
		if p.MatchString(in.FullText) {
			return Signal{
				RuleName: "suspicious_keywords",
				Points:   r.cfg.SuspiciousKeywordPoints,
				Detail:   fmt.Sprintf("keyword %q in listing text", r.cfg.SuspiciousKeywords[i]),
			}, true
		}
	}
	return Signal{}, false
}

// dormantAccountRule: an old account that never sold anything waking up to
// sell a laptop is a common sign of a hijacked profile.
type dormantAccountRule struct{ cfg HeuristicConfig }

func (r dormantAccountRule) Evaluate(in SignalInput) (Signal, bool) {
	seller := in.Listing.Seller
	if seller == nil || seller.RegistrationDate == nil || seller.ReviewCount == nil {
		return Signal{}, false
	}
	if *seller.ReviewCount != 0 || r.cfg.DormantMinAgeDays <= 0 {
		return Signal{}, false
	}
	minAge := time.Duration(r.cfg.DormantMinAgeDays) * 24 * time.Hour
	if in.Now.Sub(*seller.RegistrationDate) <= minAge {
		return Signal{}, false
	}
	return Signal{
		RuleName: "dormant_account",
		Points:   r.cfg.DormantPoints,
		Detail:   "old account with zero reviews",
	}, true
}

type trustedSellerRule struct{ cfg HeuristicConfig }

func (r trustedSellerRule) Evaluate(in SignalInput) (Signal, bool) {
	seller := in.Listing.Seller
	if seller == nil || seller.ReviewCount == nil || seller.Rating == nil {
		return Signal{}, false
	}
	if *seller.ReviewCount <= r.cfg.TrustedMinReviews || *seller.Rating < r.cfg.TrustedMinRating {
		return Signal{}, false
	}
	return Signal{
		RuleName: "trusted_seller",
		Points:   -r.cfg.TrustedPoints,
		Detail:   fmt.Sprintf("%d reviews at %.1f rating", *seller.ReviewCount, *seller.Rating),
	}, true
}

// compileKeywords turns the configured phrase list into word-bounded
// patterns, keeping multi-word phrases intact.
func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(strings.ToLower(kw))+`\b`))
	}
	return patterns
}
