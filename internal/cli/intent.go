package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewTopUpCommand creates the topup command.
func NewTopUpCommand(rootOpts *RootOptions) *cobra.Command {
	return newIntentCommand(rootOpts, "topup", "Queue a top-up for a card", "/topup")
}

// NewPayCommand creates the pay command.
func NewPayCommand(rootOpts *RootOptions) *cobra.Command {
	return newIntentCommand(rootOpts, "pay", "Queue a payment for a card", "/pay")
}

func newIntentCommand(opts *RootOptions, name, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <uid> <amount>",
		Short: short,
		Long: short + `. The intent waits until the reader reports the card.

Example:
  cardctl ` + name + ` DEMO-0001 5`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer, got %q", args[1])
			}

			return submitIntent(cmd, opts, path, args[0], amount)
		},
	}
}

func submitIntent(cmd *cobra.Command, opts *RootOptions, path, uid string, amount int64) error {
	body, err := json.Marshal(map[string]any{"uid": uid, "amount": amount})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(opts.Server, "/") + path

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: opts.Timeout}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}

		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}

		return fmt.Errorf("server rejected request (%d): %s", resp.StatusCode, e.Error)
	}

	if opts.Format == "json" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(raw)))
		return nil
	}

	var ack struct {
		Message string `json:"message"`
	}

	_ = json.Unmarshal(raw, &ack)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: uid=%s amount=%d\n", ack.Message, uid, amount)

	return nil
}
