// Package broadcast fans labeled notifications out to connected WebSocket
// observers.
//
// Delivery is best effort. Each observer has a bounded outbox; a message
// that does not fit is dropped for that observer only. Observers see only
// messages published after they joined.
package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fastprodman/rfidledger/internal/infra/logging"
	"github.com/fastprodman/rfidledger/internal/metrics"
)

const defaultOutbox = 64

// Envelope is the frame every observer receives.
type Envelope struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

type observer struct {
	id     uuid.UUID
	outbox chan []byte
}

type Hub struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]*observer
	outbox    int
	log       *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		observers: make(map[uuid.UUID]*observer),
		outbox:    defaultOutbox,
		log:       logging.Component("broadcast"),
	}
}

// Publish never blocks on observers.
func (h *Hub) Publish(label string, data any) {
	frame, err := json.Marshal(Envelope{Topic: label, Data: data})
	if err != nil {
		h.log.Error("encode broadcast", "topic", label, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, o := range h.observers {
		select {
		case o.outbox <- frame:
		default:
			metrics.BroadcastDropped.Inc()
			h.log.Debug("observer outbox full, dropping", "observer", o.id, "topic", label)
		}
	}
}

// Len reports the number of connected observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.observers)
}

func (h *Hub) subscribe() *observer {
	o := &observer{id: uuid.New(), outbox: make(chan []byte, h.outbox)}

	h.mu.Lock()
	h.observers[o.id] = o
	n := len(h.observers)
	h.mu.Unlock()

	metrics.Observers.Set(float64(n))
	h.log.Info("observer joined", "observer", o.id, "observers", n)

	return o
}

func (h *Hub) unsubscribe(o *observer) {
	h.mu.Lock()
	_, ok := h.observers[o.id]
	delete(h.observers, o.id)
	n := len(h.observers)
	h.mu.Unlock()

	if !ok {
		return
	}

	metrics.Observers.Set(float64(n))
	h.log.Info("observer left", "observer", o.id, "observers", n)
}
