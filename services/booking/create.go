package booking

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"tourbooking/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxFreeTextLen = 500

func (s *DefaultBookingService) validateCreate(req models.CreateReservationRequest) (models.Slot, error) {
	v := models.NewValidationError()

	if _, err := s.calendar.ParseDate(req.Date); err != nil {
		v.Add("date", err.Error())
	} else if s.calendar.IsPast(req.Date, s.clock.Now()) {
		v.Add("date", "must not be in the past")
	}
	slot, err := models.ParseSlot(req.Slot)
	if err != nil {
		v.Add("slot", "must be one of morning, midday, afternoon")
	}
	validateParty(v, req.Adults, req.Children, s.opts.Capacity)

	if strings.TrimSpace(req.Customer.FullName) == "" {
		v.Add("customer.fullName", "is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Customer.Email)); err != nil {
		v.Add("customer.email", "must be a valid email address")
	}
	if len(req.PickupLocation) > maxFreeTextLen {
		v.Add("pickupLocation", "is too long")
	}
	if len(req.SpecialRequests) > maxFreeTextLen {
		v.Add("specialRequests", "is too long")
	}
	return slot, v.Err()
}

func validateParty(v *models.ValidationError, adults, children, capacity int) {
	if adults < 0 {
		v.Add("adults", "must not be negative")
	}
	if children < 0 {
		v.Add("children", "must not be negative")
	}
	total := adults + children
	switch {
	case total < 1:
		v.Add("participants", "at least one participant is required")
	case total > capacity:
		v.Add("participants", "exceeds the capacity of a departure")
	}
}

// newReference derives a short customer-facing code from a fresh UUID.
func newReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TB-" + strings.ToUpper(raw[:8])
}

// Create admits a new pending reservation. The store re-validates seats
// atomically, so the early check here only saves a customer write on a
// sold-out departure.
func (s *DefaultBookingService) Create(ctx context.Context, req models.CreateReservationRequest) (*models.Reservation, error) {
	slot, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}
	participants := req.Adults + req.Children
	key := models.SessionKey{Date: req.Date, Slot: slot}

	booked, err := s.store.BookedBySlot(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	if booked[slot]+participants > s.opts.Capacity {
		return nil, &models.CapacityExceededError{
			Date: key.Date, Slot: key.Slot, Requested: participants,
			Remaining: max(0, s.opts.Capacity-booked[slot]),
		}
	}

	now := s.clock.Now()
	var customer *models.Customer
	err = s.retry(ctx, func() error {
		var err error
		customer, err = s.store.SaveCustomer(ctx, &models.Customer{
			ID:        uuid.NewString(),
			FullName:  strings.TrimSpace(req.Customer.FullName),
			Email:     strings.TrimSpace(req.Customer.Email),
			Phone:     strings.TrimSpace(req.Customer.Phone),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	r := &models.Reservation{
		ID:                  uuid.NewString(),
		Reference:           newReference(),
		CustomerID:          customer.ID,
		Date:                req.Date,
		Slot:                slot,
		Adults:              req.Adults,
		Children:            req.Children,
		Participants:        participants,
		PricePerPersonCents: s.opts.PricePerPersonCents,
		TotalCents:          int64(participants) * s.opts.PricePerPersonCents,
		Currency:            s.opts.Currency,
		Status:              models.StatusPending,
		PaymentStatus:       models.PaymentUnpaid,
		PickupLocation:      strings.TrimSpace(req.PickupLocation),
		SpecialRequests:     strings.TrimSpace(req.SpecialRequests),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	r, err = s.insert(ctx, r)
	if err != nil {
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.String("reservationID", r.ID),
		zap.String("reference", r.Reference),
		zap.String("session", key.String()),
		zap.Int("participants", participants))
	return r, nil
}

// insert retries transient failures. A commit whose outcome was unknown may
// have landed, so a duplicate id seen on a retry resolves to the stored row.
func (s *DefaultBookingService) insert(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	var (
		ambiguous bool
		stored    *models.Reservation
	)
	err := s.retry(ctx, func() error {
		err := s.store.Insert(ctx, r, s.opts.Capacity)
		if ambiguous && errors.Is(err, models.ErrDuplicateReservation) {
			existing, getErr := s.store.GetByID(ctx, r.ID)
			if getErr == nil && existing.Reference == r.Reference {
				stored = existing
				return nil
			}
		}
		if models.IsRetryable(err) {
			ambiguous = true
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if stored != nil {
		s.logger.Warn("insert outcome was unknown, reservation already stored",
			zap.String("reservationID", r.ID))
		return stored, nil
	}
	return r, nil
}
