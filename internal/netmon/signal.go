package netmon

import "sync"

// Signal reports whether the backend is reachable and notifies on
// transitions. Callbacks fire on edges only, never on repeated
// observations of the same state.
type Signal interface {
	Online() bool
	Subscribe(fn func(online bool)) (cancel func())
}

// broadcaster owns the shared subscription bookkeeping for signals.
type broadcaster struct {
	mu      sync.Mutex
	online  bool
	subs    map[int]func(bool)
	nextSub int
}

func newBroadcaster(online bool) *broadcaster {
	return &broadcaster{online: online, subs: make(map[int]func(bool))}
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Subscribe(fn func(online bool)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// set records the new state and notifies subscribers when it changed.
func (b *broadcaster) set(online bool) {
	b.mu.Lock()
	if b.online == online {
		b.mu.Unlock()
		return
	}
	b.online = online
	subs := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Manual is a Signal driven by explicit SetOnline calls.
type Manual struct {
	*broadcaster
}

// NewManual returns a manually driven signal with the given initial state.
func NewManual(online bool) *Manual {
	return &Manual{broadcaster: newBroadcaster(online)}
}

// SetOnline updates the state, notifying subscribers on change.
func (m *Manual) SetOnline(online bool) {
	m.set(online)
}
