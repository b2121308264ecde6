package engine

import "github.com/fastprodman/rfidledger/internal/intents"

// EventKind is the topic role a device event arrived on.
type EventKind string

const (
	EventStatus  EventKind = "status"
	EventBalance EventKind = "balance"
	EventError   EventKind = "error"
)

// Event is a decoded device message. Payloads that could not be decoded
// arrive with an empty UID and never match a pending intent.
type Event struct {
	Kind       EventKind
	UID        string
	NewBalance *int64
	Type       string
	Error      string
}

// Outcome names what Handle did with an event.
type Outcome string

const (
	OutcomeIgnored      Outcome = "ignored"
	OutcomeTriggered    Outcome = "triggered"
	OutcomeCommitted    Outcome = "committed"
	OutcomeCommitFailed Outcome = "commit_failed"
	OutcomeDiscarded    Outcome = "discarded"
	OutcomeSynced       Outcome = "synced"
	OutcomeSyncFailed   Outcome = "sync_failed"
	OutcomeUnusable     Outcome = "unusable"
)

// Broadcast labels for synthesized notifications.
const (
	LabelSuccess = "server/tx_success"
	LabelError   = "server/tx_error"
)

// Success is broadcast after a committed intent.
type Success struct {
	UID        string       `json:"uid"`
	Type       intents.Kind `json:"type"`
	Amount     int64        `json:"amount"`
	NewBalance int64        `json:"new_balance"`
}

// Failure is broadcast after a reader-reported error discards an intent.
type Failure struct {
	UID   string `json:"uid"`
	Error string `json:"error"`
}
