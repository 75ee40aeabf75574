package payment

import (
	"context"
	"errors"
	"time"

	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/models"
	"tourbooking/services/notification"
	"tourbooking/utils"

	"go.uber.org/zap"
)

// Reconciler applies verified payment events to reservations. Every
// transition is keyed off the stored status, so redelivered or reordered
// events settle into the same state.
type Reconciler struct {
	verifier Verifier
	store    reservationRepo.Store
	mutator  reservationRepo.Mutator
	notifier *notification.Dispatcher
	ledger   EventLedger
	clock    utils.Clock
	logger   *zap.Logger
}

func NewReconciler(
	verifier Verifier,
	store reservationRepo.Store,
	notifier *notification.Dispatcher,
	ledger EventLedger,
	clock utils.Clock,
	capacity, retries int,
	logger *zap.Logger,
) *Reconciler {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Reconciler{
		verifier: verifier,
		store:    store,
		mutator: reservationRepo.Mutator{
			Store:    store,
			Capacity: capacity,
			Attempts: retries,
			Backoff:  25 * time.Millisecond,
			Clock:    clock,
		},
		notifier: notifier,
		ledger:   ledger,
		clock:    clock,
		logger:   logger,
	}
}

// HandleWebhook verifies and applies one delivery. A nil return means the
// provider may stop redelivering; signature and transient storage failures
// are returned.
func (rc *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := rc.verifier.Verify(payload, signature)
	if err != nil {
		var malformed *MalformedEventError
		if errors.As(err, &malformed) {
			rc.logger.Error("acknowledging undecodable payment event", zap.Error(err))
			return nil
		}
		return err
	}

	logger := rc.logger.With(zap.String("eventID", ev.ID), zap.String("eventType", ev.ProviderType))
	if seen, err := rc.ledger.Seen(ctx, ev.ID); err != nil {
		logger.Warn("event ledger unavailable", zap.Error(err))
	} else if seen {
		logger.Debug("payment event already processed")
		return nil
	}

	if err := rc.Apply(ctx, ev); err != nil {
		return err
	}
	if err := rc.ledger.Mark(ctx, ev.ID); err != nil {
		logger.Warn("failed to record payment event", zap.Error(err))
	}
	return nil
}

// Apply performs the transition for an already verified event.
func (rc *Reconciler) Apply(ctx context.Context, ev *models.PaymentEvent) error {
	logger := rc.logger.With(zap.String("eventID", ev.ID), zap.String("kind", string(ev.Kind)))

	if ev.Kind == models.PaymentUnsupported {
		logger.Info("ignoring unsupported payment event", zap.String("eventType", ev.ProviderType))
		return nil
	}

	r, err := rc.locate(ctx, ev)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			logger.Warn("payment event references unknown reservation",
				zap.String("transactionID", ev.TransactionID),
				zap.Any("metadata", ev.Metadata))
			return nil
		}
		return err
	}
	logger = logger.With(zap.String("reservationID", r.ID))

	switch ev.Kind {
	case models.PaymentSucceeded:
		return rc.applySucceeded(ctx, logger, r.ID, ev)
	case models.PaymentFailed:
		return rc.applyFailed(ctx, logger, r.ID, ev)
	case models.ChargeRefunded:
		return rc.applyRefunded(ctx, logger, r.ID, ev)
	case models.PaymentCanceled:
		if r.Status == models.StatusPending {
			logger.Info("payment canceled, reservation left pending for expiry")
		}
		return nil
	}
	return nil
}

// locate tries the booking id, then the reference, then the provider
// transaction id. Refunds start from the transaction id.
func (rc *Reconciler) locate(ctx context.Context, ev *models.PaymentEvent) (*models.Reservation, error) {
	lookups := []func() (*models.Reservation, error){
		func() (*models.Reservation, error) {
			return rc.store.GetByID(ctx, ev.Metadata[models.MetaBookingID])
		},
		func() (*models.Reservation, error) {
			return rc.store.GetByReference(ctx, ev.Metadata[models.MetaBookingReference])
		},
	}
	byTxn := func() (*models.Reservation, error) { return rc.store.GetByPaymentID(ctx, ev.TransactionID) }
	if ev.Kind == models.ChargeRefunded {
		lookups = append([]func() (*models.Reservation, error){byTxn}, lookups...)
	} else {
		lookups = append(lookups, byTxn)
	}

	var nf *models.NotFoundError
	lastErr := error(&models.NotFoundError{Resource: "reservation", Key: ev.TransactionID})
	for _, lookup := range lookups {
		r, err := lookup()
		if err == nil {
			return r, nil
		}
		if !errors.As(err, &nf) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (rc *Reconciler) applySucceeded(ctx context.Context, logger *zap.Logger, id string, ev *models.PaymentEvent) error {
	prev, next, err := rc.mutator.Mutate(ctx, id, func(current, next *models.Reservation) error {
		switch {
		case current.Status == models.StatusCancelled:
			return reservationRepo.ErrSkip
		case current.Settled(), current.PaymentStatus == models.PaymentRefunded:
			return reservationRepo.ErrSkip
		}
		next.Status = models.StatusConfirmed
		next.PaymentStatus = models.PaymentPaid
		next.LastPaymentError = ""
		if ev.TransactionID != "" {
			next.PaymentID = ev.TransactionID
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case prev.Status == models.StatusCancelled:
		logger.Error("payment received for cancelled reservation, refund manually",
			zap.String("transactionID", ev.TransactionID))
	case prev == next:
		logger.Debug("reservation already paid")
	default:
		logger.Info("reservation paid", zap.String("transactionID", next.PaymentID))
		if prev.Status != models.StatusConfirmed {
			rc.notifier.Notify(ctx, models.NotifyConfirmation, next, nil)
		}
	}
	return nil
}

// applyFailed records the failure and keeps the reservation pending so the
// customer can retry until the pending expiry releases the seats.
func (rc *Reconciler) applyFailed(ctx context.Context, logger *zap.Logger, id string, ev *models.PaymentEvent) error {
	_, next, err := rc.mutator.Mutate(ctx, id, func(current, next *models.Reservation) error {
		if current.Status != models.StatusPending || current.PaymentStatus != models.PaymentUnpaid {
			return reservationRepo.ErrSkip
		}
		now := rc.clock.Now()
		next.LastPaymentError = ev.FailureMessage
		next.PaymentFailedAt = &now
		if next.PaymentID == "" {
			next.PaymentID = ev.TransactionID
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("payment failed, reservation kept pending",
		zap.String("status", string(next.Status)),
		zap.String("reason", ev.FailureMessage))
	return nil
}

// applyRefunded marks the payment refunded. Only a full refund cancels.
func (rc *Reconciler) applyRefunded(ctx context.Context, logger *zap.Logger, id string, ev *models.PaymentEvent) error {
	prev, next, err := rc.mutator.Mutate(ctx, id, func(current, next *models.Reservation) error {
		cancel := ev.FullRefund && current.Status != models.StatusCancelled
		if current.PaymentStatus == models.PaymentRefunded && !cancel {
			return reservationRepo.ErrSkip
		}
		next.PaymentStatus = models.PaymentRefunded
		if cancel {
			now := rc.clock.Now()
			next.Status = models.StatusCancelled
			next.CancelledAt = &now
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("payment refunded",
		zap.Int64("amountRefunded", ev.AmountRefunded),
		zap.Bool("fullRefund", ev.FullRefund),
		zap.String("status", string(next.Status)))
	if prev.Status != models.StatusCancelled && next.Status == models.StatusCancelled {
		eligible := true
		rc.notifier.Notify(ctx, models.NotifyCancellation, next, &eligible)
	}
	return nil
}
