package reservationRepo

import (
	"context"
	"errors"
	"time"

	"tourbooking/models"
	"tourbooking/utils"
)

// ErrSkip tells Mutate the reservation is already in the wanted state.
var ErrSkip = errors.New("reservation unchanged")

// Mutator runs read-modify-write cycles against a Store, re-reading on
// version conflicts and transient failures.
type Mutator struct {
	Store    Store
	Capacity int
	Attempts int
	Backoff  time.Duration
	Clock    utils.Clock
}

// Mutate loads id and lets change edit a copy. When change returns ErrSkip
// nothing is written and prev == next.
func (m Mutator) Mutate(ctx context.Context, id string, change func(current, next *models.Reservation) error) (prev, next *models.Reservation, err error) {
	err = utils.Retry(ctx, m.Attempts, m.Backoff, func() error {
		current, err := m.Store.GetByID(ctx, id)
		if err != nil {
			return err
		}
		candidate := current.Clone()
		if err := change(current, candidate); err != nil {
			if errors.Is(err, ErrSkip) {
				prev, next = current, current
				return nil
			}
			return err
		}
		candidate.UpdatedAt = m.Clock.Now()
		if err := m.Store.Update(ctx, candidate, current.Version, m.Capacity); err != nil {
			return err
		}
		prev, next = current, candidate
		return nil
	})
	return prev, next, err
}
