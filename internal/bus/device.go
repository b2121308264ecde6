package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastprodman/rfidledger/internal/config"
)

// Device publishes the messages a card reader would. It exists for local
// testing without hardware.
type Device struct {
	client  Client
	topics  config.Topics
	qos     byte
	timeout time.Duration
}

func NewDevice(client Client, topics config.Topics, qos byte) *Device {
	return &Device{client: client, topics: topics, qos: qos, timeout: defaultAckTimeout}
}

type statusMessage struct {
	UID     string `json:"uid"`
	Present bool   `json:"present"`
}

type balanceMessage struct {
	UID        string `json:"uid"`
	NewBalance int64  `json:"new_balance"`
	Type       string `json:"type,omitempty"`
}

type errorMessage struct {
	UID   string `json:"uid"`
	Error string `json:"error"`
}

// PublishStatus reports uid as present on the reader.
func (d *Device) PublishStatus(uid string) error {
	return d.publish(d.topics.Status, statusMessage{UID: uid, Present: true})
}

// PublishBalance reports a completed operation. opType may be empty.
func (d *Device) PublishBalance(uid string, newBalance int64, opType string) error {
	return d.publish(d.topics.Balance, balanceMessage{UID: uid, NewBalance: newBalance, Type: opType})
}

func (d *Device) PublishError(uid, reason string) error {
	return d.publish(d.topics.Error, errorMessage{UID: uid, Error: reason})
}

func (d *Device) publish(topic string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}

	tok := d.client.Publish(topic, d.qos, false, body)
	if !tok.WaitTimeout(d.timeout) {
		return fmt.Errorf("publish %s: no broker ack within %s", topic, d.timeout)
	}

	err = tok.Error()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}
