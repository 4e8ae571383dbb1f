package queue

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible build. Bump when the entry encoding changes.
const snapshotVersion = 1

type snapshotEnvelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Entries []Entry   `json:"entries"`
}

// ParseSnapshot decodes a persisted snapshot without constructing a
// queue. Used for read-only inspection of the store.
func ParseSnapshot(data []byte) ([]Entry, error) {
	return decodeSnapshot(data)
}

func encodeSnapshot(entries []Entry) ([]byte, error) {
	envelope := snapshotEnvelope{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Entries: entries,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]Entry, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if envelope.Version != snapshotVersion {
		return nil, fmt.Errorf("decode snapshot: version %d, expected %d", envelope.Version, snapshotVersion)
	}
	for i, entry := range envelope.Entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("decode snapshot: entry %d has no id", i)
		}
		if !ValidStatus(entry.Status) {
			return nil, fmt.Errorf("decode snapshot: entry %s has unknown status %q", entry.ID, entry.Status)
		}
	}
	entries := envelope.Entries
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}
