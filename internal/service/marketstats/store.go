package marketstats

import (
	"sync/atomic"

	"github.com/listingguard/risk-engine/internal/domain/errors"
	"github.com/listingguard/risk-engine/internal/domain/listing"
)

// Store holds the current market snapshot behind an atomic pointer.
// Scoring workers read lock-free; a rebuild or reload swaps in a fresh
// snapshot without disturbing in-flight lookups.
type Store struct {
	snap       atomic.Pointer[Snapshot]
	minSamples int
}

// NewStore creates an empty store. Buckets with fewer than minSampleCount
// samples are treated as absent during lookups.
func NewStore(minSampleCount int) *Store {
	if minSampleCount < 1 {
		minSampleCount = 1
	}
	return &Store{minSamples: minSampleCount}
}

// NewStoreWith seeds the store with an initial snapshot.
func NewStoreWith(snap *Snapshot, minSampleCount int) *Store {
	s := NewStore(minSampleCount)
	s.snap.Store(snap)
	return s
}

// Swap publishes a new snapshot. The previous one stays valid for readers
// that already hold it.
func (s *Store) Swap(snap *Snapshot) {
	s.snap.Store(snap)
}

// Current returns the active snapshot, or an error if none has been
// loaded yet.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, errors.ErrSnapshotMissing
	}
	return snap, nil
}

// Lookup resolves stats through the active snapshot's fallback chain.
func (s *Store) Lookup(category listing.Category, condition listing.Condition, component string) (StatsEntry, FallbackLevel, error) {
	snap, err := s.Current()
	if err != nil {
		return StatsEntry{}, FallbackNone, err
	}
	entry, level, ok := snap.LookupMin(category, condition, component, s.minSamples)
	if !ok {
		return StatsEntry{}, FallbackNone, errors.NewNotFoundError("market bucket " + component)
	}
	return entry, level, nil
}
