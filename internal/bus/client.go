package bus

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/fastprodman/rfidledger/internal/config"
)

const (
	retryInterval  = 2 * time.Second
	maxReconnect   = 30 * time.Second
	keepAlive      = 30 * time.Second
	disconnectWait = 250 // ms
)

// Dial connects to the broker and keeps reconnecting in the background.
// onConnect runs after every successful (re)connect.
//
// A broker that is not reachable within ConnectTimeout is not an error:
// the client keeps retrying and onConnect fires once it gets through.
func Dial(cfg config.MQTTConfig, onConnect mqtt.OnConnectHandler) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxReconnect).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetOnConnectHandler(onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "broker", cfg.BrokerURL, "error", err)
		}).
		SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
			slog.Info("mqtt reconnecting", "broker", cfg.BrokerURL)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)

	tok := client.Connect()
	if !tok.WaitTimeout(cfg.ConnectTimeout) {
		slog.Warn("mqtt broker not reachable yet, retrying in background",
			"broker", cfg.BrokerURL, "timeout", cfg.ConnectTimeout)

		return client, nil
	}

	err := tok.Error()
	if err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.BrokerURL, err)
	}

	slog.Info("mqtt connected", "broker", cfg.BrokerURL, "client_id", cfg.ClientID)

	return client, nil
}

// Disconnect closes client after letting in-flight work drain briefly.
func Disconnect(client mqtt.Client) {
	client.Disconnect(disconnectWait)
}
