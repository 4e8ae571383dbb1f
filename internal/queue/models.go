package queue

import (
	"encoding/json"
	"time"
)

// Status represents the lifecycle of a queue entry. Success has no
// status of its own: a succeeded entry is removed from the queue.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusSyncing,
	StatusFailed,
}

// ValidStatus reports whether the value is a known entry status.
func ValidStatus(status Status) bool {
	for _, known := range allStatuses {
		if status == known {
			return true
		}
	}
	return false
}

// Entry is a single queued write awaiting execution.
type Entry struct {
	ID        string          `json:"id"`
	Mutation  string          `json:"mutation"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Status    Status          `json:"status"`
	Attempts  int             `json:"attempts"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Stats summarizes entry counts by status.
type Stats struct {
	Pending int
	Syncing int
	Failed  int
}

// Total returns the number of entries in the queue.
func (s Stats) Total() int {
	return s.Pending + s.Syncing + s.Failed
}

// CountStats tallies statuses over a snapshot.
func CountStats(entries []Entry) Stats {
	var stats Stats
	for _, entry := range entries {
		switch entry.Status {
		case StatusPending:
			stats.Pending++
		case StatusSyncing:
			stats.Syncing++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}
