package booking

import (
	"context"
	"fmt"
	"time"

	"tourbooking/models"

	"go.uber.org/zap"
)

// RefundEligible applies the cancellation window: eligible when the
// departure is at least cutoff away from now.
func RefundEligible(sessionStart, now time.Time, cutoff time.Duration) bool {
	return sessionStart.Sub(now) >= cutoff
}

func cancellationMessage(r *models.Reservation, eligible bool, cutoff time.Duration) string {
	hours := int(cutoff.Hours())
	switch {
	case r.PaymentStatus == models.PaymentUnpaid:
		return "Your booking has been cancelled. No payment was taken."
	case eligible:
		return fmt.Sprintf("Your booking has been cancelled more than %d hours before departure and is eligible for a full refund.", hours)
	default:
		return fmt.Sprintf("Your booking has been cancelled less than %d hours before departure and is not eligible for a refund.", hours)
	}
}

// Cancel releases the reservation's seats. Refund eligibility is computed
// and reported; no refund is issued here.
func (s *DefaultBookingService) Cancel(ctx context.Context, id string) (*models.CancellationResult, error) {
	var eligible bool
	_, next, err := s.mutate(ctx, id, func(current, next *models.Reservation) error {
		if current.Status == models.StatusCancelled {
			return &models.InvalidStateTransitionError{From: current.Status, To: models.StatusCancelled, Reason: "reservation is already cancelled"}
		}
		start, err := s.calendar.SessionStart(current.Date, current.Slot)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		eligible = RefundEligible(start, now, s.opts.CancellationCutoff)
		next.Status = models.StatusCancelled
		next.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservationID", next.ID),
		zap.Bool("refundEligible", eligible))
	s.notifier.Notify(ctx, models.NotifyCancellation, next, &eligible)

	return &models.CancellationResult{
		Reservation:    next,
		RefundEligible: eligible,
		Message:        cancellationMessage(next, eligible, s.opts.CancellationCutoff),
	}, nil
}

// ExpirePending cancels unpaid reservations older than the pending expiry,
// releasing their seats. A reservation paid meanwhile is left alone.
func (s *DefaultBookingService) ExpirePending(ctx context.Context) (int, error) {
	if s.opts.PendingExpiry <= 0 {
		return 0, nil
	}
	cutoff := s.clock.Now().Add(-s.opts.PendingExpiry)
	stale, err := s.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, r := range stale {
		prev, next, err := s.mutate(ctx, r.ID, func(current, next *models.Reservation) error {
			if current.Status != models.StatusPending || current.PaymentStatus != models.PaymentUnpaid {
				return errSkip
			}
			now := s.clock.Now()
			next.Status = models.StatusCancelled
			next.CancelledAt = &now
			return nil
		})
		if err != nil {
			s.logger.Warn("failed to expire reservation", zap.String("reservationID", r.ID), zap.Error(err))
			continue
		}
		if prev.Status == next.Status {
			continue
		}
		expired++
		s.logger.Info("pending reservation expired",
			zap.String("reservationID", next.ID),
			zap.Time("createdAt", next.CreatedAt))
		s.notifier.Notify(ctx, models.NotifyCancellation, next, nil)
	}
	return expired, nil
}
