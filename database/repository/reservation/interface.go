package reservationRepo

import (
	"context"
	"time"

	"tourbooking/models"
)

// Store is the single source of truth for reservations and seat accounting.
//
// Insert and Update are the only writers of seat counts. Both re-validate the
// sum of active participants for the target (date, slot) and commit the write
// in one atomic step, so two admissions racing for the last seats cannot both
// succeed.
type Store interface {
	// Insert persists a new reservation with Version 1. It fails with
	// *models.CapacityExceededError if an active r would overflow capacity.
	Insert(ctx context.Context, r *models.Reservation, capacity int) error

	// Update replaces the stored reservation when its version still equals
	// expectedVersion, otherwise models.ErrVersionConflict. Seat admission is
	// re-run for the target session excluding r's own prior seats. On success
	// r.Version is advanced.
	Update(ctx context.Context, r *models.Reservation, expectedVersion int64, capacity int) error

	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	GetByReference(ctx context.Context, reference string) (*models.Reservation, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Reservation, error)

	// BookedBySlot sums participants of active reservations on date.
	BookedBySlot(ctx context.Context, date string) (map[models.Slot]int, error)

	// ListPendingBefore returns pending, unpaid reservations created before cutoff.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error)

	// SaveCustomer upserts by email and returns the stored record, so one
	// contact is shared across all of their reservations.
	SaveCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)

	Ping(ctx context.Context) error
}

func reservationNotFound(key string) error {
	return &models.NotFoundError{Resource: "reservation", Key: key}
}

func customerNotFound(key string) error {
	return &models.NotFoundError{Resource: "customer", Key: key}
}

// capacityError reports the seats left after excluding the incoming request.
func capacityError(key models.SessionKey, requested, booked, capacity int) error {
	remaining := capacity - booked
	if remaining < 0 {
		remaining = 0
	}
	return &models.CapacityExceededError{Date: key.Date, Slot: key.Slot, Requested: requested, Remaining: remaining}
}

// needsAdmission reports whether moving from prev to next can add seats to
// next's session.
func needsAdmission(prev, next *models.Reservation) bool {
	if !next.Active() {
		return false
	}
	if !prev.Active() || prev.Key() != next.Key() {
		return true
	}
	return next.Participants > prev.Participants
}
