package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Topic string
	Count int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail the live broadcast stream",
		Long: `Connect to the ledger's /ws endpoint and print every broadcast frame.

Example:
  cardctl watch --topic server/tx_success`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Topic, "topic", "", "only print frames with this topic")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "exit after this many frames (0 means forever)")

	return cmd
}

func wsURL(server string) string {
	u := strings.TrimRight(server, "/") + "/ws"

	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}

type frame struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func watch(cmd *cobra.Command, opts *WatchOptions) error {
	url := wsURL(opts.Server)

	dialer := websocket.Dialer{HandshakeTimeout: opts.Timeout}

	conn, resp, err := dialer.DialContext(cmd.Context(), url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	go func() {
		<-cmd.Context().Done()
		_ = conn.Close()
	}()

	return printFrames(cmd.OutOrStdout(), conn, opts)
}

type frameReader interface {
	ReadMessage() (int, []byte, error)
}

func printFrames(out io.Writer, conn frameReader, opts *WatchOptions) error {
	seen := 0

	for opts.Count == 0 || seen < opts.Count {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}

			return fmt.Errorf("read: %w", err)
		}

		var f frame

		err = json.Unmarshal(raw, &f)
		if err != nil {
			fmt.Fprintf(out, "?\t%s\n", raw)
			continue
		}

		if opts.Topic != "" && f.Topic != opts.Topic {
			continue
		}

		seen++

		if opts.Format == "json" {
			fmt.Fprintln(out, string(raw))
			continue
		}

		fmt.Fprintf(out, "%s\t%s\n", f.Topic, f.Data)
	}

	return nil
}
