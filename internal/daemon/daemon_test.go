package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LesCam/barstock-sub005/internal/banner"
	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/daemon"
	"github.com/LesCam/barstock-sub005/internal/executor"
	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/netmon"
	"github.com/LesCam/barstock-sub005/internal/queue"
	"github.com/LesCam/barstock-sub005/internal/store"
	"github.com/LesCam/barstock-sub005/internal/syncer"
	"github.com/LesCam/barstock-sub005/internal/testsupport"
)

// testBackend serves the health probe and accepts every mutation route,
// recording the order requests arrive in.
type testBackend struct {
	healthy atomic.Bool

	mu    sync.Mutex
	paths []string
}

func (b *testBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			if b.healthy.Load() {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			return
		}
		if !b.healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		b.mu.Lock()
		b.paths = append(b.paths, r.URL.Path)
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
}

func (b *testBackend) receivedPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func newTestDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Queue) {
	t.Helper()

	logger := logging.NewNop()
	q := queue.New(store.NewMemory(), logger)
	q.Rehydrate(context.Background())

	probe := netmon.NewProbe(cfg, logger)
	exec := executor.NewHTTP(cfg)
	engine := syncer.New(q, exec, probe, logger)
	projector := banner.New(100 * time.Millisecond)

	d, err := daemon.New(cfg, q, engine, probe, projector, logger)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d, q
}

func TestOfflineSessionSyncsOnReconnect(t *testing.T) {
	backend := &testBackend{}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	d, q := newTestDaemon(t, cfg)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop(ctx)

	// Counting continues while the backend is unreachable.
	q.Enqueue(ctx, "session.addCount", json.RawMessage(`{"bottle":"gin","qty":2}`))
	q.Enqueue(ctx, "session.addCount", json.RawMessage(`{"bottle":"rye","qty":1}`))
	q.Enqueue(ctx, "session.close", nil)

	testsupport.Eventually(t, 5*time.Second, func() bool {
		return d.BannerState() == banner.StateOffline
	}, "banner should show offline")
	if got := q.Stats().Pending; got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	backend.healthy.Store(true)

	testsupport.Eventually(t, 10*time.Second, func() bool {
		return q.Stats().Total() == 0
	}, "queue should drain once the backend is reachable")

	paths := backend.receivedPaths()
	want := []string{"/api/v1/sessions/counts", "/api/v1/sessions/counts", "/api/v1/sessions/close"}
	if len(paths) != len(want) {
		t.Fatalf("backend saw %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("backend saw %v, want %v", paths, want)
		}
	}

	testsupport.Eventually(t, 5*time.Second, func() bool {
		return d.BannerState() == banner.StateHidden
	}, "banner should pass through synced and settle hidden")
}

func TestSecondInstanceCannotAcquireLock(t *testing.T) {
	backend := &testBackend{}
	backend.healthy.Store(true)
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}

	first, _ := newTestDaemon(t, cfg)
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	second, _ := newTestDaemon(t, cfg)
	err := second.Start(ctx)
	if err == nil {
		second.Stop(ctx)
		first.Stop(ctx)
		t.Fatal("second instance must not start while the lock is held")
	}
	if !strings.Contains(err.Error(), "instance") {
		t.Fatalf("unexpected error: %v", err)
	}

	first.Stop(ctx)

	// Lock released: a new instance may start.
	if err := second.Start(ctx); err != nil {
		t.Fatalf("restart after release failed: %v", err)
	}
	second.Stop(ctx)
}
