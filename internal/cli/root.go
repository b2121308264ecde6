// Package cli implements cardctl, the operator and reader-simulator tool.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastprodman/rfidledger/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server   string
	Broker   string
	Team     string
	ClientID string
	Timeout  time.Duration
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cardctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cardctl",
		Short: "Operate and simulate the RFID card ledger",
		Long: `cardctl submits top-ups and payments to the ledger API, publishes
simulated card reader messages on MQTT, and tails the live broadcast stream.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:3001", "ledger API base URL")
	cmd.PersistentFlags().StringVar(&opts.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	cmd.PersistentFlags().StringVar(&opts.Team, "team", "code888", "MQTT team namespace")
	cmd.PersistentFlags().StringVar(&opts.ClientID, "client-id", "cardctl", "MQTT client id")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "network timeout")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTopUpCommand(opts))
	cmd.AddCommand(NewPayCommand(opts))
	cmd.AddCommand(NewDeviceCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func (o *RootOptions) mqttConfig() config.MQTTConfig {
	return config.MQTTConfig{
		BrokerURL:      o.Broker,
		ClientID:       o.ClientID,
		TeamID:         o.Team,
		QoS:            1,
		ConnectTimeout: o.Timeout,
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}

	return false
}
