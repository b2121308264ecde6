package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fastprodman/rfidledger/internal/bus"
	"github.com/fastprodman/rfidledger/internal/intents"
)

// DeviceOptions holds flags for the device command.
type DeviceOptions struct {
	*RootOptions
	Type string
}

// NewDeviceCommand creates the device command and its subcommands.
func NewDeviceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeviceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Publish simulated card reader messages",
		Long: `Publish the messages a card reader would send, for testing without
hardware.

Example:
  cardctl device status DEMO-0001
  cardctl device balance DEMO-0001 95 --type PAY
  cardctl device error DEMO-0001 "card removed"`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "status <uid>",
		Short:         "Report a card as present on the reader",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(opts, func(d *bus.Device) error {
				return d.PublishStatus(args[0])
			}, cmd, "status sent for "+args[0])
		},
	})

	balance := &cobra.Command{
		Use:           "balance <uid> <new_balance>",
		Short:         "Report a completed operation with the card's new balance",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("new_balance must be an integer, got %q", args[1])
			}

			var typ string

			if opts.Type != "" {
				kind, kerr := intents.ParseKind(opts.Type)
				if kerr != nil {
					return fmt.Errorf("--type: %w", kerr)
				}

				typ = string(kind)
			}

			return withDevice(opts, func(d *bus.Device) error {
				return d.PublishBalance(args[0], bal, typ)
			}, cmd, fmt.Sprintf("balance %d sent for %s", bal, args[0]))
		},
	}
	balance.Flags().StringVar(&opts.Type, "type", "", "operation type reported by the reader (TOPUP|PAY)")
	cmd.AddCommand(balance)

	cmd.AddCommand(&cobra.Command{
		Use:           "error <uid> <reason>",
		Short:         "Report a failed operation",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(opts, func(d *bus.Device) error {
				return d.PublishError(args[0], args[1])
			}, cmd, "error sent for "+args[0])
		},
	})

	return cmd
}

func withDevice(opts *DeviceOptions, fn func(*bus.Device) error, cmd *cobra.Command, done string) error {
	cfg := opts.mqttConfig()

	client, err := bus.Dial(cfg, nil)
	if err != nil {
		return err
	}
	defer bus.Disconnect(client)

	if !client.IsConnected() {
		return fmt.Errorf("broker %s not reachable within %s", cfg.BrokerURL, cfg.ConnectTimeout)
	}

	err = fn(bus.NewDevice(client, cfg.Topics(), cfg.QoS))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), done)

	return nil
}
