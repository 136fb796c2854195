package marketstats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listingguard/risk-engine/internal/domain/errors"
	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// staticExtractor hands back a fixed spec per listing ID.
type staticExtractor struct {
	specs map[string]listing.ExtractedSpec
	last  string
}

func (e *staticExtractor) ExtractListing(title, _ string) listing.ExtractedSpec {
	e.last = title
	return e.specs[title]
}

func (e *staticExtractor) ApplyCategoryConstraints(spec listing.ExtractedSpec, _ listing.Category, _ string) listing.ExtractedSpec {
	return spec
}

// staticClassifier classifies everything into the same bucket.
type staticClassifier struct {
	cls listing.Classification
}

func (c *staticClassifier) ClassifyListing(_ listing.ExtractedSpec, _ *listing.ListingRecord) listing.Classification {
	return c.cls
}

func intPtr(v int) *int { return &v }

func record(id string, price float64) listing.ListingRecord {
	d := decimal.NewFromFloat(price)
	return listing.ListingRecord{ID: id, Title: id, Description: "d", Price: &d}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSnapshotLookupFallbackChain(t *testing.T) {
	snap := &Snapshot{Entries: map[BucketKey]StatsEntry{
		{"gaming", "used", "cpu:i7"}:  {Mean: 600, StdDev: 100, SampleCount: 20},
		{"gaming", "any", "cpu:i7"}:   {Mean: 650, StdDev: 120, SampleCount: 40},
		{"gaming", "any", "category"}: {Mean: 700, StdDev: 200, SampleCount: 90},
		{"all", "any", "category"}:    {Mean: 400, StdDev: 250, SampleCount: 500},
	}}

	entry, level, ok := snap.Lookup(listing.CategoryGaming, listing.ConditionUsed, "cpu:i7")
	require.True(t, ok)
	assert.Equal(t, FallbackExact, level)
	assert.Equal(t, 600.0, entry.Mean)

	entry, level, ok = snap.Lookup(listing.CategoryGaming, listing.ConditionNew, "cpu:i7")
	require.True(t, ok)
	assert.Equal(t, FallbackConditionAny, level)
	assert.Equal(t, 650.0, entry.Mean)

	entry, level, ok = snap.Lookup(listing.CategoryGaming, listing.ConditionNew, "gpu:rtx3060")
	require.True(t, ok)
	assert.Equal(t, FallbackCategory, level)
	assert.Equal(t, 700.0, entry.Mean)

	entry, level, ok = snap.Lookup(listing.CategoryOther, listing.ConditionUsed, "ram:16")
	require.True(t, ok)
	assert.Equal(t, FallbackGlobal, level)
	assert.Equal(t, 400.0, entry.Mean)

	empty := &Snapshot{Entries: map[BucketKey]StatsEntry{}}
	_, level, ok = empty.Lookup(listing.CategoryOther, listing.ConditionUsed, "ram:16")
	assert.False(t, ok)
	assert.Equal(t, FallbackNone, level)
}

func TestSnapshotLookupSkipsThinBuckets(t *testing.T) {
	snap := &Snapshot{Entries: map[BucketKey]StatsEntry{
		{"gaming", "used", "cpu:i7"}: {Mean: 600, StdDev: 100, SampleCount: 3},
		{"gaming", "any", "cpu:i7"}:  {Mean: 650, StdDev: 120, SampleCount: 40},
	}}

	// the exact bucket exists but is under the floor, so the chain moves on
	entry, level, ok := snap.LookupMin(listing.CategoryGaming, listing.ConditionUsed, "cpu:i7", 5)
	require.True(t, ok)
	assert.Equal(t, FallbackConditionAny, level)
	assert.Equal(t, 650.0, entry.Mean)
}

func TestStoreSwapIsVisibleAndMissingSnapshotErrors(t *testing.T) {
	store := NewStore(5)

	_, _, err := store.Lookup(listing.CategoryGaming, listing.ConditionUsed, "cpu:i5")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSnapshotMissing)

	snap := &Snapshot{Entries: map[BucketKey]StatsEntry{
		{"all", "any", "category"}: {Mean: 300, StdDev: 150, SampleCount: 10},
	}}
	store.Swap(snap)

	entry, level, err := store.Lookup(listing.CategoryGaming, listing.ConditionUsed, "cpu:i5")
	require.NoError(t, err)
	assert.Equal(t, FallbackGlobal, level)
	assert.Equal(t, 300.0, entry.Mean)
}

func TestStoreConcurrentReadersDuringSwap(t *testing.T) {
	store := NewStoreWith(&Snapshot{Entries: map[BucketKey]StatsEntry{
		{"all", "any", "category"}: {Mean: 100, StdDev: 10, SampleCount: 10},
	}}, 5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				entry, _, err := store.Lookup(listing.CategoryOther, listing.ConditionUsed, "category")
				if err == nil {
					// every reader sees a complete snapshot, old or new
					assert.NotZero(t, entry.Mean)
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		store.Swap(&Snapshot{Entries: map[BucketKey]StatsEntry{
			{"all", "any", "category"}: {Mean: float64(200 + j), StdDev: 10, SampleCount: 10},
		}})
	}
	wg.Wait()
}

func TestBuilderFiltersAndAggregates(t *testing.T) {
	i5 := listing.CPUTierI5
	ext := &staticExtractor{specs: map[string]listing.ExtractedSpec{}}
	cls := &staticClassifier{cls: listing.Classification{
		Category:  listing.CategoryGaming,
		Condition: listing.ConditionUsed,
	}}

	var records []listing.ListingRecord
	for i := 0; i < 6; i++ {
		id := string(rune('a' + i))
		ext.specs[id] = listing.ExtractedSpec{CPUTier: &i5, RAMGB: intPtr(16)}
		records = append(records, record(id, 500+float64(i)*10))
	}
	// junk rows: symbolic price, absurd price, missing price
	records = append(records, record("junk-low", 1))
	records = append(records, record("junk-high", 99999))
	records = append(records, listing.ListingRecord{ID: "no-price", Title: "no-price", Description: "d"})

	builder := NewBuilder(ext, cls, 5, zap.NewNop())
	snap, stats := builder.Build(records)

	assert.Equal(t, 9, stats.TotalRows)
	assert.Equal(t, 6, stats.UsedRows)
	assert.Equal(t, 2, stats.JunkPrice)
	assert.Equal(t, 1, stats.SkippedRows)

	entry, ok := snap.Get(BucketKey{"gaming", "used", "cpu:i5"})
	require.True(t, ok)
	assert.Equal(t, 6, entry.SampleCount)
	assert.InDelta(t, 525.0, entry.Mean, 0.01)
	assert.Greater(t, entry.StdDev, 0.0)

	// aggregates exist at every fallback level
	_, ok = snap.Get(BucketKey{"gaming", "any", "cpu:i5"})
	assert.True(t, ok)
	_, ok = snap.Get(BucketKey{"gaming", "any", "category"})
	assert.True(t, ok)
	_, ok = snap.Get(BucketKey{"all", "any", "category"})
	assert.True(t, ok)

	// ram bucket present as well
	_, ok = snap.Get(BucketKey{"gaming", "used", "ram:16"})
	assert.True(t, ok)
}

func TestBuilderKeepsBrokenDevicesOutOfAggregates(t *testing.T) {
	i5 := listing.CPUTierI5
	ext := &staticExtractor{specs: map[string]listing.ExtractedSpec{
		"broken": {CPUTier: &i5},
	}}
	cls := &staticClassifier{cls: listing.Classification{
		Category:  listing.CategoryGaming,
		Condition: listing.ConditionForParts,
	}}

	builder := NewBuilder(ext, cls, 1, zap.NewNop())
	snap, _ := builder.Build([]listing.ListingRecord{record("broken", 120)})

	_, ok := snap.Get(BucketKey{"gaming", "for_parts", "cpu:i5"})
	assert.True(t, ok)
	_, ok = snap.Get(BucketKey{"gaming", "any", "cpu:i5"})
	assert.False(t, ok)
	_, ok = snap.Get(BucketKey{"all", "any", "category"})
	assert.False(t, ok)
}

func TestBuilderDiscardsThinBuckets(t *testing.T) {
	i7 := listing.CPUTierI7
	ext := &staticExtractor{specs: map[string]listing.ExtractedSpec{
		"x": {CPUTier: &i7},
		"y": {CPUTier: &i7},
	}}
	cls := &staticClassifier{cls: listing.Classification{
		Category:  listing.CategoryOther,
		Condition: listing.ConditionUsed,
	}}

	builder := NewBuilder(ext, cls, 5, zap.NewNop())
	snap, stats := builder.Build([]listing.ListingRecord{record("x", 400), record("y", 450)})

	assert.Zero(t, snap.Len())
	assert.Greater(t, stats.ThinDiscards, 0)
}

func TestMeanStdDev(t *testing.T) {
	mean, sd := meanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.138, sd, 0.001)

	mean, sd = meanStdDev([]float64{42})
	assert.Equal(t, 42.0, mean)
	assert.Zero(t, sd)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := &Snapshot{
		SourceCount: 3,
		Entries: map[BucketKey]StatsEntry{
			{"gaming", "used", "cpu:i5"}:    {Mean: 500, StdDev: 80, SampleCount: 12},
			{"all", "any", "category"}:      {Mean: 350, StdDev: 200, SampleCount: 300},
			{"apple", "like_new", "ram:16"}: {Mean: 900, StdDev: 110, SampleCount: 7},
		},
	}

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, SaveFile(snap, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap.SourceCount, loaded.SourceCount)
	assert.Equal(t, snap.Entries, loaded.Entries)
}

func TestLoadFileRejectsEmptyBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	writeFile(t, path, `{"entries":[{"category":"gaming","condition":"used","component":"cpu:i5","mean":1,"std_dev":1,"sample_count":0}]}`)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
