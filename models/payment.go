package models

// PaymentEventKind is the provider-neutral classification of a webhook.
type PaymentEventKind string

const (
	PaymentSucceeded   PaymentEventKind = "payment_succeeded"
	PaymentFailed      PaymentEventKind = "payment_failed"
	ChargeRefunded     PaymentEventKind = "charge_refunded"
	PaymentCanceled    PaymentEventKind = "payment_canceled"
	PaymentUnsupported PaymentEventKind = "unsupported"
)

// Metadata keys attached to payment intents.
const (
	MetaBookingID        = "booking_id"
	MetaBookingReference = "booking_reference"
)

// PaymentEvent is a verified provider notification.
type PaymentEvent struct {
	ID             string
	Kind           PaymentEventKind
	ProviderType   string
	TransactionID  string
	Metadata       map[string]string
	FailureMessage string
	AmountRefunded int64
	FullRefund     bool
}

// PaymentIntent is what the client needs to complete a card payment.
type PaymentIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}
