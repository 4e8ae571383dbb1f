package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/store"
)

// Warner receives non-blocking warnings when a snapshot save keeps
// failing. In-memory state stays authoritative regardless.
type Warner interface {
	NotifySaveFailure(ctx context.Context, err error) error
}

// Subscriber receives the full queue snapshot after every persisted
// state change. Callbacks run synchronously in change order and must
// not call back into mutating queue methods.
type Subscriber func(entries []Entry)

// Queue is the ordered, durable record of queued writes.
type Queue struct {
	store  store.Store
	logger *slog.Logger
	warner Warner

	// notifyMu serializes mutate+persist+notify so subscribers observe
	// changes in the order they were persisted.
	notifyMu sync.Mutex
	mu       sync.Mutex
	entries  []Entry
	subs     map[int]Subscriber
	nextSub  int
}

// Option configures optional Queue behavior.
type Option func(*Queue)

// WithWarner wires a warning sink for repeated save failures.
func WithWarner(w Warner) Option {
	return func(q *Queue) { q.warner = w }
}

// New constructs a queue over the given snapshot store. Call Rehydrate
// before the first Enqueue.
func New(st store.Store, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		store:  st,
		logger: logging.WithComponent(logger, "queue"),
		subs:   make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Rehydrate loads the last persisted snapshot. A missing or corrupt
// snapshot starts an empty queue rather than failing startup. Entries
// found mid-flight (status syncing, from a crash) are demoted back to
// pending; the remote call may or may not have landed, so they will be
// re-attempted under the executor's retry-safe contract.
func (q *Queue) Rehydrate(ctx context.Context) {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	data, found, err := q.store.Load(ctx)
	if err != nil {
		q.logger.Warn("load snapshot failed; starting with empty queue", logging.Error(err))
		return
	}
	if !found {
		return
	}

	entries, err := decodeSnapshot(data)
	if err != nil {
		q.logger.Warn("snapshot corrupt; starting with empty queue", logging.Error(err))
		return
	}

	demoted := 0
	for i := range entries {
		if entries[i].Status == StatusSyncing {
			entries[i].Status = StatusPending
			demoted++
			q.logger.Info("demoted in-flight entry to pending",
				logging.String(logging.FieldEntryID, entries[i].ID),
				logging.String(logging.FieldMutation, entries[i].Mutation),
			)
		}
	}

	q.mu.Lock()
	q.entries = entries
	if demoted > 0 {
		q.persistLocked(ctx)
	}
	q.mu.Unlock()
}

// Enqueue appends a new pending entry, persists, and notifies
// subscribers. It does not fail: a save error is retried once, then
// surfaced through the warner while memory stays authoritative.
func (q *Queue) Enqueue(ctx context.Context, mutation string, payload json.RawMessage) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Mutation:  mutation,
		Payload:   append(json.RawMessage(nil), payload...),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	q.apply(ctx, func() bool {
		q.entries = append(q.entries, entry)
		return true
	})
	return entry
}

// List returns a snapshot of the queue in enqueue order. The copy is
// safe to iterate while the queue keeps changing.
func (q *Queue) List() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Stats returns entry counts by status.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return CountStats(q.entries)
}

// MarkSyncing transitions an entry to syncing. Unknown ids are ignored;
// the entry may have been removed concurrently.
func (q *Queue) MarkSyncing(ctx context.Context, id string) {
	q.apply(ctx, func() bool {
		entry := q.findLocked(id)
		if entry == nil {
			return false
		}
		entry.Status = StatusSyncing
		entry.Error = ""
		return true
	})
}

// MarkPending returns an entry to pending without touching its attempt
// count, mirroring the rehydrate demotion. Used when a drain is
// cancelled before the outcome of an in-flight call is known.
func (q *Queue) MarkPending(ctx context.Context, id string) {
	q.apply(ctx, func() bool {
		entry := q.findLocked(id)
		if entry == nil {
			return false
		}
		entry.Status = StatusPending
		entry.Error = ""
		return true
	})
}

// MarkSucceeded removes a confirmed entry. Unknown ids are ignored.
func (q *Queue) MarkSucceeded(ctx context.Context, id string) {
	q.apply(ctx, func() bool {
		return q.removeLocked(id)
	})
}

// MarkFailed records a failed attempt: increments the attempt count and
// stores the failure message. Unknown ids are ignored.
func (q *Queue) MarkFailed(ctx context.Context, id, message string) {
	q.apply(ctx, func() bool {
		entry := q.findLocked(id)
		if entry == nil {
			return false
		}
		entry.Status = StatusFailed
		entry.Attempts++
		entry.Error = message
		return true
	})
}

// Discard permanently removes an entry on user request.
func (q *Queue) Discard(ctx context.Context, id string) {
	q.apply(ctx, func() bool {
		return q.removeLocked(id)
	})
}

// ResetFailed returns failed entries to pending so the next drain pass
// picks them up. Used by the CLI when no engine is attached.
func (q *Queue) ResetFailed(ctx context.Context) int {
	reset := 0
	q.apply(ctx, func() bool {
		for i := range q.entries {
			if q.entries[i].Status == StatusFailed {
				q.entries[i].Status = StatusPending
				q.entries[i].Error = ""
				reset++
			}
		}
		return reset > 0
	})
	return reset
}

// Subscribe registers a callback invoked after every persisted change.
// The returned cancel function deregisters it and is safe to call more
// than once.
func (q *Queue) Subscribe(fn Subscriber) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, id)
			q.mu.Unlock()
		})
	}
}

// Flush persists the current state. Called on shutdown; every mutation
// already persists, so this only matters after earlier save failures.
func (q *Queue) Flush(ctx context.Context) error {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := encodeSnapshot(q.snapshotLocked())
	if err != nil {
		return err
	}
	return q.store.Save(ctx, data)
}

// apply runs a mutation under the queue's critical section and, when it
// reports a change, persists then notifies subscribers in order.
func (q *Queue) apply(ctx context.Context, mutate func() bool) {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	changed := mutate()
	if !changed {
		q.mu.Unlock()
		return
	}
	q.persistLocked(ctx)
	snapshot := q.snapshotLocked()
	subs := make([]Subscriber, 0, len(q.subs))
	for _, fn := range q.subs {
		subs = append(subs, fn)
	}
	q.mu.Unlock()

	for _, fn := range subs {
		fn(append([]Entry(nil), snapshot...))
	}
}

// persistLocked saves the snapshot, retrying once before warning.
// Callers hold q.mu.
func (q *Queue) persistLocked(ctx context.Context) {
	data, err := encodeSnapshot(q.entries)
	if err != nil {
		q.logger.Error("encode snapshot failed", logging.Error(err))
		return
	}
	if err := q.store.Save(ctx, data); err == nil {
		return
	}
	err = q.store.Save(ctx, data)
	if err == nil {
		return
	}
	q.logger.Warn("snapshot save failed twice; in-memory state remains authoritative", logging.Error(err))
	if q.warner != nil {
		saveErr := err
		go func() {
			_ = q.warner.NotifySaveFailure(context.Background(), saveErr)
		}()
	}
}

func (q *Queue) snapshotLocked() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) findLocked(id string) *Entry {
	for i := range q.entries {
		if q.entries[i].ID == id {
			return &q.entries[i]
		}
	}
	return nil
}

func (q *Queue) removeLocked(id string) bool {
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}
