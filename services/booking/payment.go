package booking

import (
	"context"
	"errors"

	"tourbooking/models"

	"go.uber.org/zap"
)

// StartPayment asks the gateway for an intent covering the reservation total
// and records the provider id so refund events can be matched later.
func (s *DefaultBookingService) StartPayment(ctx context.Context, id string) (*models.PaymentIntent, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case r.Status == models.StatusCancelled:
		return nil, &models.InvalidStateTransitionError{From: r.Status, To: models.StatusConfirmed, Reason: "reservation is cancelled"}
	case r.PaymentStatus != models.PaymentUnpaid:
		return nil, &models.InvalidStateTransitionError{From: r.Status, To: models.StatusConfirmed, Reason: "reservation is already " + string(r.PaymentStatus)}
	}

	intent, err := s.gateway.CreateIntent(ctx, r)
	if err != nil {
		var pe *models.PaymentProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, &models.PaymentProviderError{Err: err}
	}

	_, _, err = s.mutate(ctx, id, func(current, next *models.Reservation) error {
		if current.PaymentID == intent.ID {
			return errSkip
		}
		next.PaymentID = intent.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment intent issued",
		zap.String("reservationID", r.ID),
		zap.String("paymentIntentID", intent.ID),
		zap.Int64("amountCents", intent.AmountCents))
	return intent, nil
}
