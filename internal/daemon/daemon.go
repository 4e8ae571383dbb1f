// Package daemon composes the queue, network probe, sync engine, and
// banner projector into one runnable unit and enforces single-instance
// ownership of the persisted queue.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/LesCam/barstock-sub005/internal/banner"
	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/netmon"
	"github.com/LesCam/barstock-sub005/internal/queue"
	"github.com/LesCam/barstock-sub005/internal/syncer"
)

// Daemon owns the running sync stack.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	queue     *queue.Queue
	engine    *syncer.Engine
	probe     *netmon.Probe
	projector *banner.Projector

	lockPath string
	lock     *flock.Flock

	running     atomic.Bool
	unsubQueue  func()
	unsubSignal func()
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, q *queue.Queue, engine *syncer.Engine, probe *netmon.Probe, projector *banner.Projector, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || q == nil || engine == nil || probe == nil || projector == nil {
		return nil, errors.New("daemon requires config, queue, engine, probe, and projector")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "barsync.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.WithComponent(logger, "daemon"),
		queue:     q,
		engine:    engine,
		probe:     probe,
		projector: projector,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the probe and engine.
// The queue must already be rehydrated.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another barsync instance owns the queue")
	}

	d.unsubQueue = d.queue.Subscribe(func(entries []queue.Entry) {
		d.projector.Observe(d.probe.Online(), queue.CountStats(entries))
	})
	d.unsubSignal = d.probe.Subscribe(func(online bool) {
		d.projector.Observe(online, d.queue.Stats())
	})

	if err := d.probe.Start(ctx); err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("start network probe: %w", err)
	}
	if err := d.engine.Start(ctx); err != nil {
		d.probe.Stop()
		d.releaseOnStartFailure()
		return fmt.Errorf("start sync engine: %w", err)
	}

	d.projector.Observe(d.probe.Online(), d.queue.Stats())
	d.running.Store(true)
	d.logger.Info("barsync started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts processing, flushes the queue, and releases the lock.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.Load() {
		return
	}

	d.engine.Stop()
	d.probe.Stop()
	d.projector.Stop()
	if d.unsubQueue != nil {
		d.unsubQueue()
		d.unsubQueue = nil
	}
	if d.unsubSignal != nil {
		d.unsubSignal()
		d.unsubSignal = nil
	}

	if err := d.queue.Flush(ctx); err != nil {
		d.logger.Warn("final queue flush failed", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release instance lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("barsync stopped")
}

// BannerState returns the current projected banner state.
func (d *Daemon) BannerState() banner.State {
	return d.projector.State()
}

func (d *Daemon) releaseOnStartFailure() {
	if d.unsubQueue != nil {
		d.unsubQueue()
		d.unsubQueue = nil
	}
	if d.unsubSignal != nil {
		d.unsubSignal()
		d.unsubSignal = nil
	}
	_ = d.lock.Unlock()
}
