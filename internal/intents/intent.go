// Package intents holds client-originated financial intents that wait for a
// card reader to confirm them.
package intents

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindTopUp Kind = "TOPUP"
	KindPay   Kind = "PAY"
)

var ErrInvalidIntent = errors.New("invalid intent")

// ParseKind accepts the wire spelling in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindTopUp:
		return KindTopUp, nil
	case KindPay:
		return KindPay, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, s)
	}
}

// Intent is a pending top-up or payment for one card.
type Intent struct {
	UID    string
	Kind   Kind
	Amount int64
}

// Validate checks the fields a submission must carry.
func (in Intent) Validate() error {
	if strings.TrimSpace(in.UID) == "" {
		return fmt.Errorf("%w: uid required", ErrInvalidIntent)
	}

	switch in.Kind {
	case KindTopUp, KindPay:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIntent, in.Kind)
	}

	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidIntent)
	}

	return nil
}
