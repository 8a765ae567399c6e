// Package notify implements a minimal state-change broadcaster. It replaces
// per-field UI event hooks with an explicit subscription list: every mutation
// notifies all subscribers registered at that moment at least once.
package notify

import "sync"

// Broadcaster fans a "state changed" signal out to subscribers.
// The zero value is ready to use.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// Subscribe registers fn and returns an unsubscribe func.
func (b *Broadcaster) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func())
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Notify invokes every current subscriber.
func (b *Broadcaster) Notify() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
