package listing

// Category is the device class a listing belongs to. Exactly one value;
// listings nothing matched fall back to CategoryOther.
type Category string

const (
	CategoryApple       Category = "apple"
	CategoryGaming      Category = "gaming"
	CategoryWorkstation Category = "workstation"
	CategoryChromebook  Category = "chromebook"
	CategoryUltrabook   Category = "ultrabook"
	CategoryOther       Category = "other"
)

// Condition is the advertised state of the device. Defaults to
// ConditionUnknown when no keyword matched.
type Condition string

const (
	ConditionNew      Condition = "new"
	ConditionLikeNew  Condition = "like_new"
	ConditionUsed     Condition = "used"
	ConditionForParts Condition = "for_parts"
	ConditionUnknown  Condition = "unknown"
)

// ConditionAny is the relaxed condition used by the stats fallback chain;
// it is a bucket dimension, never a classification result.
const ConditionAny Condition = "any"

// Classification is the derived (category, condition) pair attached to an
// extracted spec.
type Classification struct {
	Category  Category  `json:"category"`
	Condition Condition `json:"condition"`
}
