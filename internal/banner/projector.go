package banner

import (
	"sync"
	"time"

	"github.com/LesCam/barstock-sub005/internal/queue"
)

// State is the UI-facing summary of queue and network health.
type State string

const (
	StateHidden  State = "hidden"
	StateOffline State = "offline"
	StateSyncing State = "syncing"
	StateSynced  State = "synced"
	StateFailed  State = "failed"
)

// DefaultSyncedWindow is how long the transient synced state shows
// before reverting to hidden.
const DefaultSyncedWindow = 2 * time.Second

// Projector derives the current banner state from observed snapshots.
//
// Observe is expected to be called on every queue or connectivity
// change. The synced state is transient: a timer owned by the projector
// reverts it to hidden, and every new transition cancels and rearms
// that timer.
type Projector struct {
	window time.Duration

	mu      sync.Mutex
	state   State
	timer   *time.Timer
	subs    map[int]func(State)
	nextSub int
}

// New constructs a projector. A non-positive window falls back to
// DefaultSyncedWindow.
func New(window time.Duration) *Projector {
	if window <= 0 {
		window = DefaultSyncedWindow
	}
	return &Projector{
		window: window,
		state:  StateHidden,
		subs:   make(map[int]func(State)),
	}
}

// State returns the currently displayed banner state.
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers a callback invoked on every displayed-state
// change. The returned cancel function deregisters it.
func (p *Projector) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Observe recomputes the banner from a fresh snapshot.
func (p *Projector) Observe(online bool, stats queue.Stats) {
	p.mu.Lock()
	next := p.project(online, stats)
	p.transitionLocked(next)
}

// Stop cancels any armed revert timer.
func (p *Projector) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimerLocked()
}

// project applies the transition table. Callers hold p.mu.
func (p *Projector) project(online bool, stats queue.Stats) State {
	switch {
	case !online:
		return StateOffline
	case stats.Syncing > 0 || stats.Pending > 0:
		return StateSyncing
	case stats.Failed > 0:
		return StateFailed
	case p.state == StateSyncing || p.state == StateOffline:
		// Queue just became clean while being watched: acknowledge.
		return StateSynced
	case p.state == StateSynced:
		// Hold the transient state until its timer reverts it.
		return StateSynced
	default:
		return StateHidden
	}
}

// transitionLocked applies the new state, manages the synced timer, and
// notifies subscribers. It unlocks p.mu.
func (p *Projector) transitionLocked(next State) {
	if next == p.state {
		p.mu.Unlock()
		return
	}

	p.stopTimerLocked()
	p.state = next
	if next == StateSynced {
		p.timer = time.AfterFunc(p.window, p.revertSynced)
	}
	subs := p.collectSubsLocked()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func (p *Projector) revertSynced() {
	p.mu.Lock()
	if p.state != StateSynced {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.state = StateHidden
	subs := p.collectSubsLocked()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(StateHidden)
	}
}

func (p *Projector) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Projector) collectSubsLocked() []func(State) {
	subs := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return subs
}
