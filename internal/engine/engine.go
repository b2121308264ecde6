// Package engine reconciles pending intents with asynchronous card reader
// events.
//
// Per card the state machine is IDLE -> QUEUED -> {COMMITTED | DISCARDED}
// -> IDLE. Submit enters QUEUED. While QUEUED, a status event re-publishes
// the action trigger, a balance event commits the intent to the ledger, and
// an error event discards it. Events for a card with nothing queued never
// change state; an unmatched balance event only syncs the stored balance.
//
// Submit and Handle hold a per-card lock for their whole lookup-then-act
// sequence, so HTTP submissions and bus events for one card never
// interleave while different cards proceed in parallel.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fastprodman/rfidledger/internal/infra/logging"
	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/metrics"
)

// Ledger is the durable side of a commit.
type Ledger interface {
	ApplyIntent(ctx context.Context, in intents.Intent, reportedBalance int64) (int64, error)
	SyncBalance(ctx context.Context, uid string, reportedBalance int64) error
}

// Publisher sends action triggers to the reader fleet. It must not wait
// for the device.
type Publisher interface {
	PublishTrigger(ctx context.Context, in intents.Intent) error
}

// Broadcaster fans notifications out to observers, best effort.
type Broadcaster interface {
	Publish(label string, payload any)
}

const defaultCommitTimeout = 10 * time.Second

type Engine struct {
	queue  *intents.Queue
	ledger Ledger
	bus    Publisher
	out    Broadcaster
	locks  *keyedMutex
	log    *slog.Logger

	// pending tracks queue size by delta so concurrent cards cannot leave
	// it at a stale absolute value.
	pending prometheus.Gauge

	commitTimeout time.Duration
}

type Option func(*Engine)

// WithCommitTimeout bounds each ledger write.
func WithCommitTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.commitTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithPendingGauge replaces the process-wide pending intents gauge.
func WithPendingGauge(g prometheus.Gauge) Option {
	return func(e *Engine) {
		if g != nil {
			e.pending = g
		}
	}
}

func New(queue *intents.Queue, ledger Ledger, bus Publisher, out Broadcaster, opts ...Option) *Engine {
	e := &Engine{
		queue:         queue,
		ledger:        ledger,
		bus:           bus,
		out:           out,
		locks:         newKeyedMutex(),
		log:           logging.Component("engine"),
		pending:       metrics.PendingIntents,
		commitTimeout: defaultCommitTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Submit queues in for its card, replacing whatever was pending, and fires
// the action trigger once in case the card is already on the reader. It
// returns as soon as the trigger is handed to the bus; the outcome arrives
// later through the Broadcaster.
func (e *Engine) Submit(ctx context.Context, in intents.Intent) error {
	err := in.Validate()
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	unlock := e.locks.Lock(in.UID)
	defer unlock()

	prev, replaced := e.queue.Submit(in)
	if !replaced {
		e.pending.Inc()
	}

	metrics.IntentsSubmitted.WithLabelValues(string(in.Kind)).Inc()

	log := e.log.With("uid", in.UID, "kind", in.Kind, "amount", in.Amount)
	if replaced {
		metrics.IntentsSuperseded.Inc()
		log.Info("intent superseded", "prev_kind", prev.Kind, "prev_amount", prev.Amount)
	} else {
		log.Info("intent queued")
	}

	e.trigger(ctx, in, "submit")

	return nil
}

// Pending returns a copy of every queued intent.
func (e *Engine) Pending() []intents.Intent {
	return e.queue.Snapshot()
}

// Handle applies one device event and reports what it did.
func (e *Engine) Handle(ctx context.Context, ev Event) Outcome {
	if ev.UID == "" {
		return OutcomeIgnored
	}

	unlock := e.locks.Lock(ev.UID)
	defer unlock()

	switch ev.Kind {
	case EventStatus:
		return e.onStatus(ctx, ev)
	case EventBalance:
		return e.onBalance(ctx, ev)
	case EventError:
		return e.onError(ev)
	default:
		e.log.Warn("unknown event kind", "kind", ev.Kind, "uid", ev.UID)
		return OutcomeIgnored
	}
}

func (e *Engine) onStatus(ctx context.Context, ev Event) Outcome {
	in, ok := e.queue.Lookup(ev.UID)
	if !ok {
		return OutcomeIgnored
	}

	e.trigger(ctx, in, "status")

	return OutcomeTriggered
}

func (e *Engine) onBalance(ctx context.Context, ev Event) Outcome {
	if ev.NewBalance == nil {
		e.log.Warn("balance event without usable new_balance", "uid", ev.UID)
		return OutcomeUnusable
	}

	balance := *ev.NewBalance

	cctx, cancel := context.WithTimeout(ctx, e.commitTimeout)
	defer cancel()

	in, ok := e.queue.Lookup(ev.UID)
	if !ok {
		return e.passiveSync(cctx, ev.UID, balance)
	}

	log := e.log.With("uid", in.UID, "kind", in.Kind, "amount", in.Amount, "balance", balance)
	if ev.Type != "" && ev.Type != string(in.Kind) {
		log.Warn("device reported a different operation type", "device_type", ev.Type)
	}

	start := time.Now()
	id, err := e.ledger.ApplyIntent(cctx, in, balance)
	metrics.CommitLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// The intent stays queued so a later status event can retry it.
		metrics.CommitFailures.Inc()
		log.Error("ledger commit failed", "error", err)

		return OutcomeCommitFailed
	}

	e.clear(in.UID)

	metrics.Commits.WithLabelValues(string(in.Kind)).Inc()
	log.Info("intent committed", "transaction_id", id)

	e.out.Publish(LabelSuccess, Success{
		UID:        in.UID,
		Type:       in.Kind,
		Amount:     in.Amount,
		NewBalance: balance,
	})

	return OutcomeCommitted
}

func (e *Engine) passiveSync(ctx context.Context, uid string, balance int64) Outcome {
	err := e.ledger.SyncBalance(ctx, uid, balance)
	if err != nil {
		metrics.PassiveSyncs.WithLabelValues("failed").Inc()
		e.log.Error("passive balance sync failed", "uid", uid, "balance", balance, "error", err)

		return OutcomeSyncFailed
	}

	metrics.PassiveSyncs.WithLabelValues("ok").Inc()
	e.log.Info("balance synced", "uid", uid, "balance", balance)

	return OutcomeSynced
}

func (e *Engine) onError(ev Event) Outcome {
	in, ok := e.queue.Lookup(ev.UID)
	if !ok {
		return OutcomeIgnored
	}

	e.clear(in.UID)

	metrics.DeviceErrors.Inc()
	e.log.Info("intent discarded after device error",
		"uid", in.UID, "kind", in.Kind, "amount", in.Amount, "device_error", ev.Error)

	e.out.Publish(LabelError, Failure{UID: in.UID, Error: ev.Error})

	return OutcomeDiscarded
}

func (e *Engine) trigger(ctx context.Context, in intents.Intent, reason string) {
	err := e.bus.PublishTrigger(ctx, in)
	if err != nil {
		e.log.Warn("trigger publish failed",
			"uid", in.UID, "kind", in.Kind, "reason", reason, "error", err)

		return
	}

	metrics.TriggersPublished.WithLabelValues(string(in.Kind), reason).Inc()
	e.log.Debug("trigger published", "uid", in.UID, "kind", in.Kind, "reason", reason)
}

func (e *Engine) clear(uid string) {
	if e.queue.Clear(uid) {
		e.pending.Dec()
	}
}
