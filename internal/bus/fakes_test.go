package bus

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fastprodman/rfidledger/internal/engine"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

// fakeToken resolves immediately unless pending is set.
type fakeToken struct {
	err     error
	pending bool
	done    chan struct{}
}

func resolvedToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)

	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{pending: true, done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done

	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	Topic   string
	QoS     byte
	Payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	pubs      []published
	filters   map[string]byte
	callback  mqtt.MessageHandler
	nextToken func() mqtt.Token
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filters = filters
	c.callback = cb

	return resolvedToken(nil)
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, _ := payload.([]byte)
	c.pubs = append(c.pubs, published{Topic: topic, QoS: qos, Payload: b})

	if c.nextToken != nil {
		return c.nextToken()
	}

	return resolvedToken(nil)
}

func (c *fakeClient) Published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]published(nil), c.pubs...)
}

// connectedClient stands in for the paho client handed to OnConnect. Only
// the methods the adapter calls are backed.
type connectedClient struct {
	mqtt.Client
	fake *fakeClient
}

func (c connectedClient) SubscribeMultiple(filters map[string]byte, cb mqtt.MessageHandler) mqtt.Token {
	return c.fake.SubscribeMultiple(filters, cb)
}

func (c connectedClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return c.fake.Publish(topic, qos, retained, payload)
}

type relayed struct {
	Label   string
	Payload any
}

type fakeRelay struct {
	mu   sync.Mutex
	msgs []relayed
}

func (r *fakeRelay) Publish(label string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, relayed{Label: label, Payload: payload})
}

func (r *fakeRelay) Messages() []relayed {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]relayed(nil), r.msgs...)
}

// recordingHandler checks the relay saw each message before the engine.
type recordingHandler struct {
	relay       *fakeRelay
	events      []engine.Event
	relayedSeen []int
}

func (h *recordingHandler) Handle(_ context.Context, ev engine.Event) engine.Outcome {
	h.events = append(h.events, ev)
	h.relayedSeen = append(h.relayedSeen, len(h.relay.Messages()))

	return engine.OutcomeIgnored
}
