package config

import (
	"fmt"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StoreConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	DSN             string        `env:"DB_DSN"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Validate reports an unsupported driver before any connection is attempted.
func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}

	if c.DSN == "" {
		return fmt.Errorf("DB_DSN is empty")
	}

	return nil
}

type MQTTConfig struct {
	BrokerURL      string        `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	ClientID       string        `env:"MQTT_CLIENT_ID" envDefault:"rfid-ledger"`
	TeamID         string        `env:"MQTT_TEAM_ID" envDefault:"code888"`
	Username       string        `env:"MQTT_USERNAME" envDefault:""`
	Password       string        `env:"MQTT_PASSWORD" envDefault:""`
	QoS            uint8         `env:"MQTT_QOS" envDefault:"1"`
	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Topics returns the topic set for the configured team namespace.
func (c MQTTConfig) Topics() Topics {
	return NewTopics(c.TeamID)
}

// Topics names every MQTT topic the reader fleet uses, one per role.
type Topics struct {
	Status  string
	Balance string
	Error   string
	TopUp   string
	Pay     string
}

func NewTopics(team string) Topics {
	base := fmt.Sprintf("rfid/%s/card/", team)

	return Topics{
		Status:  base + "status",
		Balance: base + "balance",
		Error:   base + "error",
		TopUp:   base + "topup",
		Pay:     base + "pay",
	}
}

// Inbound lists the topics the server subscribes to.
func (t Topics) Inbound() []string {
	return []string{t.Status, t.Balance, t.Error}
}
