package intents

import "sync"

// Queue maps a card uid to at most one pending intent. A later Submit for
// the same uid replaces the earlier one outright.
//
// Every method is atomic with respect to the others. Callers that need a
// lookup followed by an action to be atomic must serialize per uid on top
// of this.
type Queue struct {
	mu      sync.Mutex
	pending map[string]Intent
}

func NewQueue() *Queue {
	return &Queue{pending: make(map[string]Intent)}
}

// Submit stores in for its uid and returns the intent it displaced, if any.
func (q *Queue) Submit(in Intent) (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev, replaced := q.pending[in.UID]
	q.pending[in.UID] = in

	return prev, replaced
}

// Lookup returns the pending intent for uid without changing anything.
func (q *Queue) Lookup(uid string) (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	in, ok := q.pending[uid]

	return in, ok
}

// Clear drops the pending intent for uid and reports whether one existed.
func (q *Queue) Clear(uid string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.pending[uid]
	delete(q.pending, uid)

	return ok
}

// Len is the number of cards with a pending intent.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Snapshot copies the pending set.
func (q *Queue) Snapshot() []Intent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Intent, 0, len(q.pending))
	for _, in := range q.pending {
		out = append(out, in)
	}

	return out
}
