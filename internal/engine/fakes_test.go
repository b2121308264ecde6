package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/fastprodman/rfidledger/internal/intents"
)

type commit struct {
	Intent  intents.Intent
	Balance int64
}

type fakeLedger struct {
	mu       sync.Mutex
	commits  []commit
	syncs    map[string]int64
	failNext error
	nextID   int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{syncs: make(map[string]int64)}
}

func (l *fakeLedger) ApplyIntent(_ context.Context, in intents.Intent, balance int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil

		return 0, err
	}

	l.nextID++
	l.commits = append(l.commits, commit{Intent: in, Balance: balance})

	return l.nextID, nil
}

func (l *fakeLedger) SyncBalance(_ context.Context, uid string, balance int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failNext != nil {
		err := l.failNext
		l.failNext = nil

		return err
	}

	l.syncs[uid] = balance

	return nil
}

func (l *fakeLedger) failOnce(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failNext = err
}

func (l *fakeLedger) Commits() []commit {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]commit(nil), l.commits...)
}

func (l *fakeLedger) Synced(uid string) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.syncs[uid]

	return b, ok
}

type fakePublisher struct {
	mu        sync.Mutex
	published []intents.Intent
	err       error
}

func (p *fakePublisher) PublishTrigger(_ context.Context, in intents.Intent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.published = append(p.published, in)

	return nil
}

func (p *fakePublisher) Published() []intents.Intent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]intents.Intent(nil), p.published...)
}

type broadcastMsg struct {
	Label   string
	Payload any
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []broadcastMsg
}

func (b *fakeBroadcaster) Publish(label string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.msgs = append(b.msgs, broadcastMsg{Label: label, Payload: payload})
}

func (b *fakeBroadcaster) Labeled(label string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []any
	for _, m := range b.msgs {
		if m.Label == label {
			out = append(out, m.Payload)
		}
	}

	return out
}

var errStorage = errors.New("disk full")

type harness struct {
	eng    *Engine
	queue  *intents.Queue
	ledger *fakeLedger
	bus    *fakePublisher
	out    *fakeBroadcaster
}

func newHarness() *harness {
	h := &harness{
		queue:  intents.NewQueue(),
		ledger: newFakeLedger(),
		bus:    &fakePublisher{},
		out:    &fakeBroadcaster{},
	}
	h.eng = New(h.queue, h.ledger, h.bus, h.out)

	return h
}

func balanceEvent(uid string, balance int64) Event {
	return Event{Kind: EventBalance, UID: uid, NewBalance: &balance}
}
