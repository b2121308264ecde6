// Package bus connects the reconciliation engine to the card reader fleet
// over MQTT.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fastprodman/rfidledger/internal/config"
	"github.com/fastprodman/rfidledger/internal/engine"
	"github.com/fastprodman/rfidledger/internal/infra/logging"
	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/metrics"
)

var (
	ErrNotBound     = errors.New("bus adapter has no event handler")
	ErrNotConnected = errors.New("bus adapter has no client")
)

// Client is the part of mqtt.Client the adapter uses.
type Client interface {
	SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Handler consumes decoded device events.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event) engine.Outcome
}

// Relay receives every inbound message before reconciliation.
type Relay interface {
	Publish(label string, payload any)
}

type trigger struct {
	UID    string `json:"uid"`
	Amount int64  `json:"amount"`
}

const defaultAckTimeout = 5 * time.Second

type Adapter struct {
	topics config.Topics
	qos    byte
	relay  Relay
	roles  map[string]engine.EventKind
	log    *slog.Logger

	ackTimeout time.Duration

	mu      sync.RWMutex
	client  Client
	handler Handler
	ctx     context.Context
}

func NewAdapter(client Client, topics config.Topics, qos byte, relay Relay) *Adapter {
	return &Adapter{
		client: client,
		topics: topics,
		qos:    qos,
		relay:  relay,
		roles: map[string]engine.EventKind{
			topics.Status:  engine.EventStatus,
			topics.Balance: engine.EventBalance,
			topics.Error:   engine.EventError,
		},
		log:        logging.Component("bus"),
		ackTimeout: defaultAckTimeout,
		ctx:        context.Background(),
	}
}

// SetClient replaces the client used for subscribing and publishing.
func (a *Adapter) SetClient(c Client) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.client = c
}

func (a *Adapter) currentClient() (Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.client == nil {
		return nil, ErrNotConnected
	}

	return a.client, nil
}

// Bind attaches the engine. ctx scopes every event the adapter delivers.
func (a *Adapter) Bind(ctx context.Context, h Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ctx = ctx
	a.handler = h
}

// Subscribe registers the fixed inbound topic set and waits for the
// broker to acknowledge it.
func (a *Adapter) Subscribe() error {
	client, err := a.currentClient()
	if err != nil {
		return err
	}

	filters := make(map[string]byte, 3)
	for _, topic := range a.topics.Inbound() {
		filters[topic] = a.qos
	}

	tok := client.SubscribeMultiple(filters, a.HandleMessage)
	if !tok.WaitTimeout(a.ackTimeout) {
		return fmt.Errorf("subscribe: no broker ack within %s", a.ackTimeout)
	}

	err = tok.Error()
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	a.log.Info("subscribed", "topics", a.topics.Inbound())

	return nil
}

// OnConnect is a paho OnConnectHandler. It adopts c and subscribes on
// every new session so a clean-session reconnect restores the topic set.
func (a *Adapter) OnConnect(c mqtt.Client) {
	a.SetClient(c)

	err := a.Subscribe()
	if err != nil {
		a.log.Error("subscribe after connect failed", "error", err)
	}
}

// HandleMessage is the paho callback for every inbound message.
func (a *Adapter) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := msg.Payload()

	data, parsed := relayPayload(payload)
	a.relay.Publish(topic, data)

	role, known := a.roles[topic]
	metrics.BusMessages.WithLabelValues(roleLabel(role, known), strconv.FormatBool(parsed)).Inc()

	if !known {
		a.log.Debug("message on unexpected topic", "topic", topic)
		return
	}

	if !parsed {
		a.log.Warn("unparseable device payload", "topic", topic, "bytes", len(payload))
		return
	}

	a.mu.RLock()
	h, ctx := a.handler, a.ctx
	a.mu.RUnlock()

	if h == nil {
		a.log.Error("dropping device event", "topic", topic, "error", ErrNotBound)
		return
	}

	ev := decodeEvent(role, payload)
	out := h.Handle(ctx, ev)

	a.log.Debug("device event handled", "role", role, "uid", ev.UID, "outcome", out)
}

// PublishTrigger asks the reader to carry out in. It does not wait for
// the broker; a delivery failure is logged when the token resolves.
func (a *Adapter) PublishTrigger(_ context.Context, in intents.Intent) error {
	topic, err := a.triggerTopic(in.Kind)
	if err != nil {
		return err
	}

	body, err := json.Marshal(trigger{UID: in.UID, Amount: in.Amount})
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}

	client, err := a.currentClient()
	if err != nil {
		return err
	}

	tok := client.Publish(topic, a.qos, false, body)

	select {
	case <-tok.Done():
		err = tok.Error()
		if err != nil {
			metrics.BusPublishErrors.Inc()
			return fmt.Errorf("publish %s: %w", topic, err)
		}

		return nil
	default:
	}

	go a.awaitAck(tok, topic, in.UID)

	return nil
}

func (a *Adapter) awaitAck(tok mqtt.Token, topic, uid string) {
	if !tok.WaitTimeout(a.ackTimeout) {
		a.log.Warn("trigger publish not acknowledged", "topic", topic, "uid", uid, "timeout", a.ackTimeout)
		return
	}

	err := tok.Error()
	if err != nil {
		metrics.BusPublishErrors.Inc()
		a.log.Warn("trigger publish failed", "topic", topic, "uid", uid, "error", err)
	}
}

func (a *Adapter) triggerTopic(kind intents.Kind) (string, error) {
	switch kind {
	case intents.KindTopUp:
		return a.topics.TopUp, nil
	case intents.KindPay:
		return a.topics.Pay, nil
	default:
		return "", fmt.Errorf("no trigger topic for kind %q", kind)
	}
}

func roleLabel(role engine.EventKind, known bool) string {
	if !known {
		return "unknown"
	}

	return string(role)
}
