package marketstats

import (
	"fmt"
	"time"

	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// Component keys. Each bucket tracks price statistics for listings sharing
// one hardware trait; ComponentCategory is the trait-free base bucket.
const (
	ComponentCategory = "category"

	// CategoryAll is the category dimension of the global aggregate.
	CategoryAll = "all"
)

// ComponentCPU builds the component key for a CPU tier, e.g. "cpu:i5".
func ComponentCPU(tier listing.CPUTier) string {
	return "cpu:" + string(tier)
}

// ComponentGPU builds the component key for a GPU tier, e.g. "gpu:rtx3060".
func ComponentGPU(tier listing.GPUTier) string {
	return "gpu:" + string(tier)
}

// ComponentRAM builds the component key for a RAM size, e.g. "ram:16".
func ComponentRAM(gb int) string {
	return fmt.Sprintf("ram:%d", gb)
}

// BucketKey addresses one statistics bucket. Condition is either a concrete
// listing condition or listing.ConditionAny for the condition-collapsed
// aggregate.
type BucketKey struct {
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Component string `json:"component"`
}

// StatsEntry is the price distribution observed for one bucket.
type StatsEntry struct {
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	SampleCount int     `json:"sample_count"`
}

// FallbackLevel records how far the lookup had to back off from the exact
// bucket. Anything past FallbackExact marks the downstream score as
// low-confidence.
type FallbackLevel string

const (
	FallbackExact        FallbackLevel = "exact"
	FallbackConditionAny FallbackLevel = "condition_any"
	FallbackCategory     FallbackLevel = "category"
	FallbackGlobal       FallbackLevel = "global"
	FallbackNone         FallbackLevel = "none"
)

// Degraded reports whether the level is anything other than an exact hit.
func (l FallbackLevel) Degraded() bool {
	return l != FallbackExact
}

// Snapshot is one immutable rebuild result. Readers share it without
// locking; a rebuild produces a new Snapshot and swaps the store pointer.
type Snapshot struct {
	BuiltAt     time.Time                `json:"built_at"`
	SourceCount int                      `json:"source_count"`
	Entries     map[BucketKey]StatsEntry `json:"-"`
}

// Get returns the entry for an exact key.
func (s *Snapshot) Get(key BucketKey) (StatsEntry, bool) {
	e, ok := s.Entries[key]
	return e, ok
}

// Lookup resolves stats for (category, condition, component) walking the
// fallback chain: exact bucket, condition-collapsed bucket, the category
// base bucket, then the global base bucket.
func (s *Snapshot) Lookup(category listing.Category, condition listing.Condition, component string) (StatsEntry, FallbackLevel, bool) {
	return s.LookupMin(category, condition, component, 1)
}

// LookupMin is Lookup with a sample-count floor: a bucket thinner than
// minSamples counts as absent and the chain moves to the next level.
func (s *Snapshot) LookupMin(category listing.Category, condition listing.Condition, component string, minSamples int) (StatsEntry, FallbackLevel, bool) {
	chain := []struct {
		key   BucketKey
		level FallbackLevel
	}{
		{BucketKey{string(category), string(condition), component}, FallbackExact},
		{BucketKey{string(category), string(listing.ConditionAny), component}, FallbackConditionAny},
		{BucketKey{string(category), string(listing.ConditionAny), ComponentCategory}, FallbackCategory},
		{BucketKey{CategoryAll, string(listing.ConditionAny), ComponentCategory}, FallbackGlobal},
	}

	for _, step := range chain {
		if e, ok := s.Entries[step.key]; ok && e.SampleCount >= minSamples {
			return e, step.level, true
		}
	}
	return StatsEntry{}, FallbackNone, false
}

// Len returns the number of buckets in the snapshot.
func (s *Snapshot) Len() int { return len(s.Entries) }
