package classification

import (
	"regexp"
	"strings"

	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// ruleInput is what every cascade rule sees: the extracted spec plus the
// lowercased title and combined text.
type ruleInput struct {
	spec     listing.ExtractedSpec
	title    string
	fullText string
}

// categoryRule is one independently testable step of the category cascade.
// Rules are evaluated in slice order and the first match wins outright;
// later rules are never consulted (short-circuit, not scored).
type categoryRule struct {
	name  string
	match func(ruleInput) (listing.Category, bool)
}

// conditionRule is the condition counterpart, keyed on a keyword pattern.
type conditionRule struct {
	condition listing.Condition
	pattern   *regexp.Regexp
}

// Classifier derives (category, condition) from an extracted spec and the
// listing text. Stateless, safe for concurrent use.
type Classifier struct {
	categoryRules  []categoryRule
	conditionRules []conditionRule
}

func NewClassifier() *Classifier {
	return &Classifier{
		categoryRules:  buildCategoryRules(),
		conditionRules: buildConditionRules(),
	}
}

// Classify runs the cascades over the spec and text. It never fails: with
// no rule matched the result is (Other, Unknown).
func (c *Classifier) Classify(spec listing.ExtractedSpec, title, description string) listing.Classification {
	in := ruleInput{
		spec:     spec,
		title:    strings.ToLower(title),
		fullText: strings.ToLower(title + " " + description),
	}

	result := listing.Classification{
		Category:  listing.CategoryOther,
		Condition: listing.ConditionUnknown,
	}

	for _, rule := range c.categoryRules {
		if cat, ok := rule.match(in); ok {
			result.Category = cat
			break
		}
	}

	for _, rule := range c.conditionRules {
		if rule.pattern.MatchString(in.fullText) {
			result.Condition = rule.condition
			break
		}
	}

	return result
}

// ClassifyListing is Classify plus the structured-condition override: when
// the collector delivered a verified condition attribute it beats anything
// the text says.
func (c *Classifier) ClassifyListing(spec listing.ExtractedSpec, rec *listing.ListingRecord) listing.Classification {
	result := c.Classify(spec, rec.Title, rec.Description)

	if rec.Condition != nil {
		if cond, ok := mapStructuredCondition(*rec.Condition); ok {
			result.Condition = cond
		}
	}

	return result
}

// mapStructuredCondition normalizes the collector's condition vocabulary.
// Unrecognized values fall through to the text-derived condition.
func mapStructuredCondition(v string) (listing.Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "new":
		return listing.ConditionNew, true
	case "as_good_as_new", "like_new", "refurbished":
		return listing.ConditionLikeNew, true
	case "good", "fair", "used":
		return listing.ConditionUsed, true
	case "has_given_it_all", "for_parts", "broken":
		return listing.ConditionForParts, true
	}
	return listing.ConditionUnknown, false
}

// Category cascade, highest precedence first. Apple hardware beats the
// GPU-implied gaming signal; workstation parts beat brand keywords.
func buildCategoryRules() []categoryRule {
	return []categoryRule{
		{
			name: "apple_hardware",
			match: func(in ruleInput) (listing.Category, bool) {
				if in.spec.CPUTier != nil && in.spec.CPUTier.IsApple() {
					return listing.CategoryApple, true
				}
				if reAppleKeywords.MatchString(in.title) {
					return listing.CategoryApple, true
				}
				return "", false
			},
		},
		{
			name: "workstation_hardware",
			match: func(in ruleInput) (listing.Category, bool) {
				if in.spec.CPUTier != nil && in.spec.CPUTier.IsWorkstation() {
					return listing.CategoryWorkstation, true
				}
				if in.spec.GPUTier != nil && in.spec.GPUTier.IsWorkstation() {
					return listing.CategoryWorkstation, true
				}
				return "", false
			},
		},
		{
			name: "gaming_gpu",
			match: func(in ruleInput) (listing.Category, bool) {
				if in.spec.GPUTier != nil && in.spec.GPUTier.IsGaming() {
					return listing.CategoryGaming, true
				}
				return "", false
			},
		},
		{
			name: "chromebook_title",
			match: func(in ruleInput) (listing.Category, bool) {
				if strings.Contains(in.title, "chromebook") {
					return listing.CategoryChromebook, true
				}
				return "", false
			},
		},
		{
			name: "workstation_brand",
			match: func(in ruleInput) (listing.Category, bool) {
				if reWorkstationKeywords.MatchString(in.fullText) {
					return listing.CategoryWorkstation, true
				}
				return "", false
			},
		},
		{
			name: "gaming_brand",
			match: func(in ruleInput) (listing.Category, bool) {
				if reGamingKeywords.MatchString(in.fullText) {
					return listing.CategoryGaming, true
				}
				return "", false
			},
		},
		{
			name: "ultrabook",
			match: func(in ruleInput) (listing.Category, bool) {
				// Thin-and-light keywords only count without a discrete GPU.
				if in.spec.GPUTier != nil {
					return "", false
				}
				if reUltrabookKeywords.MatchString(in.fullText) {
					return listing.CategoryUltrabook, true
				}
				return "", false
			},
		},
	}
}

// Condition cascade. ForParts outranks everything: "roto, con garantía"
// is still broken. LikeNew is checked before New because "como nuevo"
// contains "nuevo".
func buildConditionRules() []conditionRule {
	return []conditionRule{
		{listing.ConditionForParts, reConditionForParts},
		{listing.ConditionLikeNew, reConditionLikeNew},
		{listing.ConditionNew, reConditionNew},
		{listing.ConditionUsed, reConditionUsed},
	}
}

// Keyword patterns. All bounded; listings are mostly Spanish with English
// spec sheets pasted in.
var (
	reAppleKeywords       = regexp.MustCompile(`\b(macbook|imac|macos)\b|\bmac\s(air|pro|mini)\b`)
	reWorkstationKeywords = regexp.MustCompile(`\b(thinkpad|latitude|precision|zbook|elitebook|probook)\b`)
	reGamingKeywords      = regexp.MustCompile(`\b(gaming|gamer|rog|tuf|alienware|omen|predator|legion|nitro|victus|loq|razer)\b`)
	reUltrabookKeywords   = regexp.MustCompile(`\b(ultrabook|xps|spectre|zenbook|gram|yoga|matebook|ultraligero)\b`)

	reConditionForParts = regexp.MustCompile(`\b(roto|averiado|no funciona|no enciende|pantalla rota|para piezas|despiece|repuesto|tarada|broken|parts)\b`)
	reConditionLikeNew  = regexp.MustCompile(`\b(como nuevo|impecable|perfecto estado|reacondicionado|refurbished|sin uso|poquisimo uso|poquísimo uso)\b`)
	reConditionNew      = regexp.MustCompile(`\b(nuevo|nueva|precintado|sin abrir|a estrenar|sellado|sealed|new)\b`)
	reConditionUsed     = regexp.MustCompile(`\b(usado|usada|used|segunda mano|buen estado)\b`)
)
