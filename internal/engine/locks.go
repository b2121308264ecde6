package engine

import "sync"

// keyedMutex hands out one mutex per uid. Entries are refcounted and
// removed when the last holder unlocks, so idle cards cost nothing.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until uid is free and returns the matching unlock.
func (k *keyedMutex) Lock(uid string) func() {
	k.mu.Lock()
	m, ok := k.locks[uid]
	if !ok {
		m = &refMutex{}
		k.locks[uid] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()

	return func() {
		m.mu.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, uid)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.locks)
}
