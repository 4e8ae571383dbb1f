package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/queue"
	"github.com/LesCam/barstock-sub005/internal/store"
)

func newTestQueue(t *testing.T, opts ...queue.Option) (*queue.Queue, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	q := queue.New(mem, logging.NewNop(), opts...)
	q.Rehydrate(context.Background())
	return q, mem
}

func TestEnqueuePreservesFIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first := q.Enqueue(ctx, "session.addCount", json.RawMessage(`{"qty":1}`))
	second := q.Enqueue(ctx, "session.addCount", json.RawMessage(`{"qty":2}`))
	third := q.Enqueue(ctx, "session.close", nil)

	entries := q.List()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{first.ID, second.ID, third.ID}
	for i, want := range wantOrder {
		if entries[i].ID != want {
			t.Fatalf("entry %d = %s, want %s", i, entries[i].ID, want)
		}
		if entries[i].Status != queue.StatusPending {
			t.Fatalf("entry %d status = %s, want pending", i, entries[i].Status)
		}
		if entries[i].Attempts != 0 {
			t.Fatalf("entry %d attempts = %d, want 0", i, entries[i].Attempts)
		}
	}
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		entry := q.Enqueue(ctx, "inventory.adjust", nil)
		if _, dup := seen[entry.ID]; dup {
			t.Fatalf("duplicate id %s", entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}
}

func TestListReturnsIndependentCopy(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	q.Enqueue(ctx, "session.addCount", nil)

	entries := q.List()
	entries[0].Status = queue.StatusFailed
	entries[0].Error = "tampered"

	fresh := q.List()
	if fresh[0].Status != queue.StatusPending || fresh[0].Error != "" {
		t.Fatal("List must return a copy, not shared state")
	}
}

func TestTransitionsUpdateEntryState(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	entry := q.Enqueue(ctx, "parlevel.set", nil)

	q.MarkSyncing(ctx, entry.ID)
	got := q.List()[0]
	if got.Status != queue.StatusSyncing {
		t.Fatalf("status = %s, want syncing", got.Status)
	}

	q.MarkFailed(ctx, entry.ID, "conflict")
	got = q.List()[0]
	if got.Status != queue.StatusFailed || got.Error != "conflict" || got.Attempts != 1 {
		t.Fatalf("after failure: %+v", got)
	}

	q.MarkSyncing(ctx, entry.ID)
	got = q.List()[0]
	if got.Error != "" {
		t.Fatal("error message should clear when entry leaves failed")
	}

	q.MarkSucceeded(ctx, entry.ID)
	if len(q.List()) != 0 {
		t.Fatal("succeeded entry should be removed")
	}
}

func TestTransitionsOnUnknownIDAreNoOps(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	q.Enqueue(ctx, "session.addCount", nil)

	notified := 0
	cancel := q.Subscribe(func([]queue.Entry) { notified++ })
	defer cancel()

	q.MarkSyncing(ctx, "missing")
	q.MarkFailed(ctx, "missing", "nope")
	q.MarkSucceeded(ctx, "missing")
	q.Discard(ctx, "missing")

	if notified != 0 {
		t.Fatalf("no-op transitions must not notify, got %d notifications", notified)
	}
	if len(q.List()) != 1 {
		t.Fatal("existing entry should be untouched")
	}
}

func TestSubscribersSeePersistedStateOnly(t *testing.T) {
	q, mem := newTestQueue(t)
	ctx := context.Background()

	type persisted struct {
		Entries []queue.Entry `json:"entries"`
	}

	var mismatch error
	cancel := q.Subscribe(func(entries []queue.Entry) {
		data, ok := mem.Snapshot()
		if !ok {
			mismatch = errors.New("no snapshot persisted before notify")
			return
		}
		var snap persisted
		if err := json.Unmarshal(data, &snap); err != nil {
			mismatch = err
			return
		}
		if len(snap.Entries) != len(entries) {
			mismatch = errors.New("persisted snapshot lags notification")
		}
	})
	defer cancel()

	entry := q.Enqueue(ctx, "session.addCount", nil)
	q.MarkSyncing(ctx, entry.ID)
	q.MarkFailed(ctx, entry.ID, "boom")
	q.Discard(ctx, entry.ID)

	if mismatch != nil {
		t.Fatalf("persist-before-notify violated: %v", mismatch)
	}
	if saves := mem.Saves(); saves != 4 {
		t.Fatalf("expected one save per mutation, got %d", saves)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	count := 0
	cancel := q.Subscribe(func([]queue.Entry) { count++ })

	q.Enqueue(ctx, "session.addCount", nil)
	cancel()
	cancel() // safe to call twice
	q.Enqueue(ctx, "session.addCount", nil)

	if count != 1 {
		t.Fatalf("expected 1 notification, got %d", count)
	}
}

func TestRehydrateDemotesInFlightEntries(t *testing.T) {
	mem := store.NewMemory()
	first := queue.New(mem, logging.NewNop())
	first.Rehydrate(context.Background())
	ctx := context.Background()

	a := first.Enqueue(ctx, "session.addCount", json.RawMessage(`{"qty":1}`))
	b := first.Enqueue(ctx, "inventory.adjust", nil)
	// First drain pass: both entries fail.
	first.MarkSyncing(ctx, a.ID)
	first.MarkFailed(ctx, a.ID, "conflict")
	first.MarkSyncing(ctx, b.ID)
	first.MarkFailed(ctx, b.ID, "timeout")
	// Retry pass: a is mid-flight when the process dies.
	first.MarkSyncing(ctx, a.ID)

	// Simulate process restart.
	second := queue.New(mem, logging.NewNop())
	second.Rehydrate(ctx)

	entries := second.List()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after restart, got %d", len(entries))
	}
	if entries[0].ID != a.ID || entries[0].Status != queue.StatusPending {
		t.Fatalf("in-flight entry not demoted: %+v", entries[0])
	}
	if entries[0].Attempts != 1 {
		t.Fatalf("demotion must not touch attempts: %d", entries[0].Attempts)
	}
	if entries[1].ID != b.ID || entries[1].Status != queue.StatusFailed || entries[1].Attempts != 1 || entries[1].Error != "timeout" {
		t.Fatalf("failed entry state lost across restart: %+v", entries[1])
	}
}

func TestRehydrateSurvivesCorruptSnapshot(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed([]byte("definitely not json"))

	q := queue.New(mem, logging.NewNop())
	q.Rehydrate(context.Background())

	if len(q.List()) != 0 {
		t.Fatal("corrupt snapshot should yield an empty queue")
	}
	// Queue remains usable.
	q.Enqueue(context.Background(), "session.addCount", nil)
	if len(q.List()) != 1 {
		t.Fatal("queue unusable after corrupt rehydrate")
	}
}

func TestRehydrateSurvivesStoreError(t *testing.T) {
	mem := store.NewMemory()
	mem.LoadErr = errors.New("disk gone")

	q := queue.New(mem, logging.NewNop())
	q.Rehydrate(context.Background())

	if len(q.List()) != 0 {
		t.Fatal("store error should yield an empty queue")
	}
}

func TestResetFailedReturnsEntriesToPending(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	a := q.Enqueue(ctx, "session.addCount", nil)
	q.Enqueue(ctx, "inventory.adjust", nil)
	q.MarkFailed(ctx, a.ID, "conflict")

	if reset := q.ResetFailed(ctx); reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}
	for _, entry := range q.List() {
		if entry.Status != queue.StatusPending {
			t.Fatalf("entry %s status = %s", entry.ID, entry.Status)
		}
		if entry.Error != "" {
			t.Fatalf("entry %s retains error %q", entry.ID, entry.Error)
		}
	}
	if reset := q.ResetFailed(ctx); reset != 0 {
		t.Fatalf("second reset = %d, want 0", reset)
	}
}

type recordingWarner struct {
	mu    sync.Mutex
	calls []error
	done  chan struct{}
}

func (w *recordingWarner) NotifySaveFailure(_ context.Context, err error) error {
	w.mu.Lock()
	w.calls = append(w.calls, err)
	w.mu.Unlock()
	select {
	case w.done <- struct{}{}:
	default:
	}
	return nil
}

func TestSaveFailureWarnsAndKeepsMemoryAuthoritative(t *testing.T) {
	warner := &recordingWarner{done: make(chan struct{}, 1)}
	mem := store.NewMemory()
	mem.SaveErr = errors.New("storage full")

	q := queue.New(mem, logging.NewNop(), queue.WithWarner(warner))
	q.Rehydrate(context.Background())

	entry := q.Enqueue(context.Background(), "session.addCount", nil)
	if entry.ID == "" {
		t.Fatal("enqueue must still assign an id")
	}
	if len(q.List()) != 1 {
		t.Fatal("in-memory state must remain authoritative after save failure")
	}

	select {
	case <-warner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a save-failure warning")
	}
}

func TestFlushPersistsCurrentState(t *testing.T) {
	mem := store.NewMemory()
	mem.SaveErr = errors.New("transient")

	q := queue.New(mem, logging.NewNop())
	q.Rehydrate(context.Background())
	q.Enqueue(context.Background(), "session.addCount", nil)

	mem.SaveErr = nil
	if err := q.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if _, ok := mem.Snapshot(); !ok {
		t.Fatal("flush should persist a snapshot")
	}
}
