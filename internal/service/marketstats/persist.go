package marketstats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/listingguard/risk-engine/internal/domain/errors"
)

// snapshotFile is the on-disk form. Map keys are structs, so entries are
// flattened into a list for JSON.
type snapshotFile struct {
	BuiltAt     time.Time   `json:"built_at"`
	SourceCount int         `json:"source_count"`
	Entries     []fileEntry `json:"entries"`
}

type fileEntry struct {
	BucketKey
	StatsEntry
}

// SaveFile writes the snapshot to path atomically: the payload goes to a
// temp file in the same directory and is renamed over the target, so a
// concurrent reader never sees a torn file.
func SaveFile(snap *Snapshot, path string) error {
	out := snapshotFile{
		BuiltAt:     snap.BuiltAt,
		SourceCount: snap.SourceCount,
		Entries:     make([]fileEntry, 0, len(snap.Entries)),
	}
	for _, key := range SortedKeys(snap.Entries) {
		out.Entries = append(out.Entries, fileEntry{BucketKey: key, StatsEntry: snap.Entries[key]})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp snapshot")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "publish snapshot")
	}
	return nil
}

// LoadFile reads a snapshot previously written by SaveFile.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}

	var in snapshotFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}

	snap := &Snapshot{
		BuiltAt:     in.BuiltAt,
		SourceCount: in.SourceCount,
		Entries:     make(map[BucketKey]StatsEntry, len(in.Entries)),
	}
	for _, e := range in.Entries {
		if e.SampleCount < 1 {
			return nil, errors.NewValidationError("INVALID_SNAPSHOT",
				fmt.Sprintf("bucket %s/%s/%s has no samples", e.Category, e.Condition, e.Component))
		}
		snap.Entries[e.BucketKey] = e.StatsEntry
	}
	return snap, nil
}
