package booking

import (
	"context"
	"strings"

	"tourbooking/models"

	"go.uber.org/zap"
)

// applyModify copies the requested fields onto next and validates the result.
func (s *DefaultBookingService) applyModify(req models.ModifyReservationRequest, current, next *models.Reservation) error {
	v := models.NewValidationError()

	if req.Date != nil {
		if _, err := s.calendar.ParseDate(*req.Date); err != nil {
			v.Add("date", err.Error())
		}
		next.Date = *req.Date
	}
	if req.Slot != nil {
		slot, err := models.ParseSlot(*req.Slot)
		if err != nil {
			v.Add("slot", "must be one of morning, midday, afternoon")
		}
		next.Slot = slot
	}
	if next.Key() != current.Key() && s.calendar.IsPast(next.Date, s.clock.Now()) {
		v.Add("date", "must not be in the past")
	}
	if req.Adults != nil {
		next.Adults = *req.Adults
	}
	if req.Children != nil {
		next.Children = *req.Children
	}
	validateParty(v, next.Adults, next.Children, s.opts.Capacity)
	if req.PickupLocation != nil {
		if len(*req.PickupLocation) > maxFreeTextLen {
			v.Add("pickupLocation", "is too long")
		}
		next.PickupLocation = strings.TrimSpace(*req.PickupLocation)
	}
	if req.SpecialRequests != nil {
		if len(*req.SpecialRequests) > maxFreeTextLen {
			v.Add("specialRequests", "is too long")
		}
		next.SpecialRequests = strings.TrimSpace(*req.SpecialRequests)
	}
	if req.Status != nil {
		switch *req.Status {
		case current.Status:
		case models.StatusConfirmed:
			next.Status = models.StatusConfirmed
		case models.StatusCancelled:
			v.Add("status", "use the cancel operation")
		default:
			v.Add("status", "unsupported transition")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	next.Participants = next.Adults + next.Children
	if next.Participants != current.Participants {
		next.TotalCents = int64(next.Participants) * next.PricePerPersonCents
	}
	return nil
}

// Modify applies a partial update. Seat admission is re-run on the target
// session with this reservation's own seats excluded.
func (s *DefaultBookingService) Modify(ctx context.Context, id string, req models.ModifyReservationRequest) (*models.Reservation, error) {
	if req.Empty() {
		return nil, models.InvalidField("body", "no fields to update")
	}
	prev, next, err := s.mutate(ctx, id, func(current, next *models.Reservation) error {
		if current.Status == models.StatusCancelled {
			return &models.InvalidStateTransitionError{From: current.Status, To: current.Status, Reason: "reservation is cancelled"}
		}
		return s.applyModify(req, current, next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation modified",
		zap.String("reservationID", next.ID),
		zap.String("session", next.Key().String()),
		zap.Int("participants", next.Participants))

	if prev.Status != models.StatusConfirmed && next.Status == models.StatusConfirmed {
		s.notifier.Notify(ctx, models.NotifyConfirmation, next, nil)
	}
	return next, nil
}

// Confirm is the administrative pending to confirmed transition. Payment
// status is left as is. Confirming twice is a no-op.
func (s *DefaultBookingService) Confirm(ctx context.Context, id string) (*models.Reservation, error) {
	prev, next, err := s.mutate(ctx, id, func(current, next *models.Reservation) error {
		switch current.Status {
		case models.StatusCancelled:
			return &models.InvalidStateTransitionError{From: current.Status, To: models.StatusConfirmed, Reason: "reservation is cancelled"}
		case models.StatusConfirmed:
			return errSkip
		}
		next.Status = models.StatusConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prev.Status != models.StatusConfirmed {
		s.logger.Info("reservation confirmed by admin", zap.String("reservationID", next.ID))
		s.notifier.Notify(ctx, models.NotifyConfirmation, next, nil)
	}
	return next, nil
}
