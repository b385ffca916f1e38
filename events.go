package blink402

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents a verification lifecycle event type.
type EventType string

const (
	// EventAttempt indicates a verification was started for an expectation.
	EventAttempt EventType = "attempt"

	// EventLocated indicates a candidate signature was found for the reference.
	EventLocated EventType = "located"

	// EventConfirmed indicates the signature reached the target commitment.
	EventConfirmed EventType = "confirmed"

	// EventValidated indicates the transfer matched the expectation.
	EventValidated EventType = "validated"

	// EventFailure indicates a terminal failure (execution error, mismatch,
	// or timeout).
	EventFailure EventType = "failure"
)

// Event is a verification lifecycle event, emitted for logging, monitoring,
// and billing reconciliation.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Type is the event type.
	Type EventType

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Reference is the payment reference being verified, in base58.
	Reference string

	// Signature is the transaction signature, once known.
	Signature string

	// Amount is the expected amount in atomic units.
	Amount uint64

	// Network is the cluster the verification ran against.
	Network Network

	// Err contains error details for failure events.
	Err error
}

// EventHandler consumes verification lifecycle events. Handlers must be safe
// for concurrent use; independent verification flows emit concurrently.
type EventHandler func(Event)

// NewEvent creates an event with a fresh ID and current timestamp.
func NewEvent(typ EventType, network Network, reference string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Reference: reference,
		Network:   network,
	}
}
