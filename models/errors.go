package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Stable error codes returned to API clients.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeInvalidState     = "invalid_state_transition"
	CodeSignature        = "signature_verification_failed"
	CodeTransientStorage = "storage_unavailable"
	CodeNotification     = "notification_failed"
	CodePaymentProvider  = "payment_provider_error"
	CodeInternal         = "internal_error"
)

// Coded is implemented by every domain error.
type Coded interface {
	error
	Code() string
}

// ErrVersionConflict means the row changed between read and write.
// Callers re-read and retry.
var ErrVersionConflict = errors.New("reservation was modified concurrently")

// ErrDuplicateReservation means a row with the same id or reference exists.
var ErrDuplicateReservation = errors.New("reservation already exists")

// ValidationError collects field-level input problems.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// Err returns nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() string { return CodeValidation }

// InvalidField is shorthand for a single-field validation error.
func InvalidField(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Code() string { return CodeNotFound }

// CapacityExceededError carries the seats still free on the departure.
type CapacityExceededError struct {
	Date      string
	Slot      Slot
	Requested int
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("session %s %s has %d seats remaining, %d requested", e.Date, e.Slot, e.Remaining, e.Requested)
}

func (e *CapacityExceededError) Code() string { return CodeCapacityExceeded }

type InvalidStateTransitionError struct {
	From   ReservationStatus
	To     ReservationStatus
	Reason string
}

func (e *InvalidStateTransitionError) Error() string {
	msg := fmt.Sprintf("cannot move reservation from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidStateTransitionError) Code() string { return CodeInvalidState }

type SignatureVerificationError struct {
	Err error
}

func (e *SignatureVerificationError) Error() string {
	return "webhook signature verification failed: " + e.Err.Error()
}

func (e *SignatureVerificationError) Unwrap() error { return e.Err }
func (e *SignatureVerificationError) Code() string  { return CodeSignature }

// TransientStorageError marks timeouts and connection failures. The whole
// operation is safe to retry.
type TransientStorageError struct {
	Op  string
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *TransientStorageError) Unwrap() error { return e.Err }
func (e *TransientStorageError) Code() string  { return CodeTransientStorage }

// NotificationError is logged and never surfaced to the triggering request.
type NotificationError struct {
	Kind          NotificationKind
	ReservationID string
	Err           error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s for %s: %v", e.Kind, e.ReservationID, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
func (e *NotificationError) Code() string  { return CodeNotification }

type PaymentProviderError struct {
	Err error
}

func (e *PaymentProviderError) Error() string { return "payment provider: " + e.Err.Error() }
func (e *PaymentProviderError) Unwrap() error { return e.Err }
func (e *PaymentProviderError) Code() string  { return CodePaymentProvider }

// IsRetryable reports whether err may succeed if the operation is re-run.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrVersionConflict) {
		return true
	}
	var t *TransientStorageError
	return errors.As(err, &t)
}
