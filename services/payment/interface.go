package payment

import (
	"context"
	"fmt"

	"tourbooking/models"
)

// Verifier authenticates a raw webhook body and decodes it into a
// provider-neutral event.
type Verifier interface {
	Verify(payload []byte, signature string) (*models.PaymentEvent, error)
}

// EventLedger remembers processed provider event ids. It only short-cuts
// redeliveries; correctness comes from status-keyed transitions.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// MalformedEventError is a correctly signed event whose body cannot be
// decoded. It is acknowledged so the provider stops redelivering it.
type MalformedEventError struct {
	EventID string
	Type    string
	Err     error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event %s: %v", e.Type, e.EventID, e.Err)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }
