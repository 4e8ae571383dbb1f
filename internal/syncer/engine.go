package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/LesCam/barstock-sub005/internal/executor"
	"github.com/LesCam/barstock-sub005/internal/logging"
	"github.com/LesCam/barstock-sub005/internal/netmon"
	"github.com/LesCam/barstock-sub005/internal/notifications"
	"github.com/LesCam/barstock-sub005/internal/queue"
)

// Engine drains the queue through the mutation executor.
//
// A single goroutine owns all drain work, which is what upholds the
// at-most-one-syncing invariant without per-entry locking. Failures
// never retry in a loop: a failed entry waits for the next trigger
// (reconnect, new enqueue, or explicit RetryFailed).
type Engine struct {
	queue    *queue.Queue
	exec     executor.Executor
	signal   netmon.Signal
	logger   *slog.Logger
	notifier notifications.Service

	wake chan struct{}

	mu            sync.Mutex
	running       bool
	includeFailed bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	unsubQueue    func()
	unsubSignal   func()
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithNotifier wires best-effort push warnings for entries entering
// failed.
func WithNotifier(n notifications.Service) Option {
	return func(e *Engine) { e.notifier = n }
}

// New constructs an engine over the given collaborators.
func New(q *queue.Queue, exec executor.Executor, signal netmon.Signal, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		queue:  q,
		exec:   exec,
		signal: signal,
		logger: logging.WithComponent(logger, "syncer"),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the drain goroutine and wires triggers. When the
// signal is already online, an initial pass runs immediately and
// re-attempts failed entries, same as a reconnect would.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("sync engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	e.mu.Unlock()

	unsubQueue := e.queue.Subscribe(func(entries []queue.Entry) {
		if !e.signal.Online() {
			return
		}
		if queue.CountStats(entries).Pending > 0 {
			e.poke(false)
		}
	})
	unsubSignal := e.signal.Subscribe(func(online bool) {
		if online {
			e.poke(true)
		}
	})
	e.mu.Lock()
	e.unsubQueue = unsubQueue
	e.unsubSignal = unsubSignal
	e.mu.Unlock()

	go e.run(runCtx)

	if e.signal.Online() {
		e.poke(true)
	}
	return nil
}

// Stop halts draining and waits for any in-flight work to unwind.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	unsubQueue := e.unsubQueue
	unsubSignal := e.unsubSignal
	e.running = false
	e.cancel = nil
	e.unsubQueue = nil
	e.unsubSignal = nil
	e.mu.Unlock()

	if unsubQueue != nil {
		unsubQueue()
	}
	if unsubSignal != nil {
		unsubSignal()
	}
	cancel()
	e.wg.Wait()
}

// RetryFailed requests a drain pass that re-attempts failed entries.
func (e *Engine) RetryFailed() {
	e.poke(true)
}

// poke wakes the drain goroutine. The wake channel is buffered and
// coalescing; includeFailed latches until the next pass consumes it.
func (e *Engine) poke(includeFailed bool) {
	if includeFailed {
		e.mu.Lock()
		e.includeFailed = true
		e.mu.Unlock()
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) takeIncludeFailed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.includeFailed
	e.includeFailed = false
	return v
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
		}
		e.drain(ctx)
	}
}

// drain processes eligible entries in enqueue order until the queue has
// nothing left, connectivity drops, or the context ends. On a pass that
// re-attempts failed entries, each keeps its original enqueue position
// rather than yielding to pending work enqueued after it. Each failed
// entry is attempted at most once per pass so a persistent failure
// cannot spin the loop.
func (e *Engine) drain(ctx context.Context) {
	includeFailed := e.takeIncludeFailed()
	attempted := make(map[string]struct{})

	for {
		if ctx.Err() != nil {
			return
		}
		if !e.signal.Online() {
			return
		}

		entry, ok := e.nextEligible(includeFailed, attempted)
		if !ok {
			return
		}
		attempted[entry.ID] = struct{}{}

		e.queue.MarkSyncing(ctx, entry.ID)
		err := e.exec.Execute(ctx, entry.Mutation, entry.Payload)
		switch {
		case err == nil:
			e.queue.MarkSucceeded(ctx, entry.ID)
			e.logger.Info("mutation synced",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String(logging.FieldMutation, entry.Mutation),
			)
		case ctx.Err() != nil:
			// Shutdown interrupted the call; the outcome is unknown, so
			// the entry goes back to pending for the next process run.
			e.queue.MarkPending(context.Background(), entry.ID)
			return
		default:
			e.queue.MarkFailed(ctx, entry.ID, err.Error())
			e.logger.Warn("mutation failed",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String(logging.FieldMutation, entry.Mutation),
				logging.Int(logging.FieldAttempts, entry.Attempts+1),
				logging.Error(err),
			)
			if e.notifier != nil {
				mutation, message, attempts := entry.Mutation, err.Error(), entry.Attempts+1
				go func() {
					_ = e.notifier.NotifyMutationFailed(context.Background(), mutation, message, attempts)
				}()
			}
		}
	}
}

// nextEligible picks the earliest entry by enqueue order that this pass
// may attempt.
func (e *Engine) nextEligible(includeFailed bool, attempted map[string]struct{}) (queue.Entry, bool) {
	for _, entry := range e.queue.List() {
		if _, done := attempted[entry.ID]; done {
			continue
		}
		switch entry.Status {
		case queue.StatusPending:
			return entry, true
		case queue.StatusFailed:
			if includeFailed {
				return entry, true
			}
		}
	}
	return queue.Entry{}, false
}
