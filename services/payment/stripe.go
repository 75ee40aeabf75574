package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"tourbooking/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway creates PaymentIntents. The API key is set once on
// stripe.Key at startup.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway { return &StripeGateway{} }

// CreateIntent is idempotent per reservation and amount, so a client asking
// twice gets the same intent back.
func (g *StripeGateway) CreateIntent(ctx context.Context, r *models.Reservation) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(r.TotalCents),
		Currency: stripe.String(r.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("Tour %s %s, %d participants", r.Date, r.Slot.Label(), r.Participants)),
	}
	params.Context = ctx
	params.AddMetadata(models.MetaBookingID, r.ID)
	params.AddMetadata(models.MetaBookingReference, r.Reference)
	params.SetIdempotencyKey("booking-" + r.ID + "-" + strconv.FormatInt(r.TotalCents, 10))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, &models.PaymentProviderError{Err: err}
	}
	return &models.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// StripeVerifier checks the Stripe-Signature header against the endpoint
// secret.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (*models.PaymentEvent, error) {
	if v.secret == "" {
		return nil, &models.SignatureVerificationError{Err: fmt.Errorf("webhook secret is not configured")}
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &models.SignatureVerificationError{Err: err}
	}
	return decodeStripeEvent(event)
}

func decodeStripeEvent(event stripe.Event) (*models.PaymentEvent, error) {
	out := &models.PaymentEvent{ID: event.ID, ProviderType: string(event.Type), Kind: models.PaymentUnsupported}
	if event.Data == nil {
		return out, nil
	}

	malformed := func(err error) error {
		return &MalformedEventError{EventID: event.ID, Type: string(event.Type), Err: err}
	}

	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, malformed(err)
		}
		out.TransactionID = pi.ID
		out.Metadata = pi.Metadata
		switch string(event.Type) {
		case "payment_intent.succeeded":
			out.Kind = models.PaymentSucceeded
		case "payment_intent.payment_failed":
			out.Kind = models.PaymentFailed
			if pi.LastPaymentError != nil {
				out.FailureMessage = pi.LastPaymentError.Msg
			}
		default:
			out.Kind = models.PaymentCanceled
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, malformed(err)
		}
		out.Kind = models.ChargeRefunded
		out.Metadata = ch.Metadata
		out.TransactionID = ch.ID
		if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
			out.TransactionID = ch.PaymentIntent.ID
		}
		out.AmountRefunded = ch.AmountRefunded
		out.FullRefund = ch.Refunded || (ch.Amount > 0 && ch.AmountRefunded >= ch.Amount)
	}
	return out, nil
}
