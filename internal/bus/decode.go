package bus

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/fastprodman/rfidledger/internal/engine"
)

// deviceMessage is the union of fields readers send on any inbound topic.
type deviceMessage struct {
	UID        string          `json:"uid"`
	NewBalance json.Number     `json:"new_balance"`
	Type       string          `json:"type"`
	Error      json.RawMessage `json:"error"`
}

// relayPayload is what observers see for a raw bus message: the JSON
// verbatim when it parses, the bytes as a string otherwise.
func relayPayload(payload []byte) (any, bool) {
	if json.Valid(payload) {
		return json.RawMessage(append([]byte(nil), payload...)), true
	}

	return string(payload), false
}

// decodeEvent extracts the reconciliation fields. Anything that is not a
// JSON object with a string uid yields an event with no UID.
func decodeEvent(kind engine.EventKind, payload []byte) engine.Event {
	ev := engine.Event{Kind: kind}

	var dm deviceMessage

	err := json.Unmarshal(payload, &dm)
	if err != nil {
		return ev
	}

	ev.UID = strings.TrimSpace(dm.UID)
	ev.Type = strings.ToUpper(strings.TrimSpace(dm.Type))
	ev.NewBalance = parseBalance(dm.NewBalance)
	ev.Error = errorText(dm.Error)

	return ev
}

// parseBalance accepts integral JSON numbers that fit in int64, including
// 95.0.
func parseBalance(n json.Number) *int64 {
	if n == "" {
		return nil
	}

	i, err := n.Int64()
	if err == nil {
		return &i
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return nil
	}

	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}

	i = int64(f)

	return &i
}

func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string

	err := json.Unmarshal(raw, &s)
	if err == nil {
		return s
	}

	return string(raw)
}
