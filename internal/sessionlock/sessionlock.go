// Package sessionlock serializes turn processing per session. A double-submit
// for the same session would otherwise race-read the same transcript and pick
// the same canonical question twice; holding the session's lock around
// append-then-recompute makes the turn one logical step. Different sessions
// never contend.
package sessionlock

import "sync"

type entry struct {
	ch   chan struct{}
	refs int
}

type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *Keyed {
	return &Keyed{
		locks: make(map[string]*entry),
	}
}

// Lock blocks until the lock for id is held. Each Lock must be paired with an
// Unlock for the same id.
func (k *Keyed) Lock(id string) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.ch <- struct{}{}
}

// Unlock releases the lock for id. The entry is dropped once no goroutine
// holds or waits for it, so the map does not grow with session churn.
func (k *Keyed) Unlock(id string) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		k.mu.Unlock()
		panic("sessionlock: unlock of unheld session " + id)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	<-e.ch
}
