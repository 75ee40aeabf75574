package reservationRepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tourbooking/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReservation(id, date string, slot models.Slot, participants int) *models.Reservation {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.Reservation{
		ID:            id,
		Reference:     "REF-" + id,
		CustomerID:    "cust-1",
		Date:          date,
		Slot:          slot,
		Adults:        participants,
		Participants:  participants,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestMemoryStoreInsertRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Insert(ctx, newReservation("a", "2026-06-01", models.SlotMorning, 20), 24))
	err := store.Insert(ctx, newReservation("b", "2026-06-01", models.SlotMorning, 5), 24)

	var capErr *models.CapacityExceededError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 4, capErr.Remaining)
	assert.Equal(t, 5, capErr.Requested)

	// other slots are independent
	require.NoError(t, store.Insert(ctx, newReservation("c", "2026-06-01", models.SlotMidday, 5), 24))
}

func TestMemoryStoreConcurrentInsertsNeverOverbook(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Insert(ctx, newReservation(fmt.Sprintf("r%d", i), "2026-06-01", models.SlotAfternoon, 1+i%4), 24)
		}(i)
	}
	wg.Wait()

	booked, err := store.BookedBySlot(ctx, "2026-06-01")
	require.NoError(t, err)
	assert.LessOrEqual(t, booked[models.SlotAfternoon], 24)
	assert.Greater(t, booked[models.SlotAfternoon], 20)
}

func TestMemoryStoreConcurrentMovesNeverOverbook(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Insert(ctx, newReservation("x", "2026-06-02", models.SlotAfternoon, 12), 24))
	var seeded []*models.Reservation
	for i := 0; i < 6; i++ {
		r := newReservation(fmt.Sprintf("m%d", i), "2026-06-02", models.SlotMorning, 4)
		require.NoError(t, store.Insert(ctx, r, 24))
		seeded = append(seeded, r)
	}

	var wg sync.WaitGroup
	for _, r := range seeded {
		wg.Add(1)
		go func(r *models.Reservation) {
			defer wg.Done()
			moved := r.Clone()
			moved.Slot = models.SlotAfternoon
			_ = store.Update(ctx, moved, r.Version, 24)
		}(r)
	}
	wg.Wait()

	booked, err := store.BookedBySlot(ctx, "2026-06-02")
	require.NoError(t, err)
	assert.Equal(t, 24, booked[models.SlotAfternoon])
	assert.Equal(t, 12, booked[models.SlotMorning])
}

func TestMemoryStoreUpdateExcludesOwnSeats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := newReservation("a", "2026-06-01", models.SlotMorning, 20)
	require.NoError(t, store.Insert(ctx, r, 24))
	require.NoError(t, store.Insert(ctx, newReservation("b", "2026-06-01", models.SlotMorning, 2), 24))

	grown := r.Clone()
	grown.Participants, grown.Adults = 22, 22
	require.NoError(t, store.Update(ctx, grown, 1, 24))
	assert.Equal(t, int64(2), grown.Version)

	tooBig := grown.Clone()
	tooBig.Participants, tooBig.Adults = 23, 23
	var capErr *models.CapacityExceededError
	require.ErrorAs(t, store.Update(ctx, tooBig, 2, 24), &capErr)
	assert.Equal(t, 22, capErr.Remaining)
}

func TestMemoryStoreUpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := newReservation("a", "2026-06-01", models.SlotMorning, 2)
	require.NoError(t, store.Insert(ctx, r, 24))

	first := r.Clone()
	first.SpecialRequests = "window seat"
	require.NoError(t, store.Update(ctx, first, 1, 24))

	stale := r.Clone()
	stale.PickupLocation = "harbour"
	assert.ErrorIs(t, store.Update(ctx, stale, 1, 24), models.ErrVersionConflict)
	assert.True(t, models.IsRetryable(models.ErrVersionConflict))
}

func TestMemoryStoreCancelledSeatsAreReleased(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := newReservation("a", "2026-06-01", models.SlotMorning, 24)
	require.NoError(t, store.Insert(ctx, r, 24))

	cancelled := r.Clone()
	cancelled.Status = models.StatusCancelled
	require.NoError(t, store.Update(ctx, cancelled, 1, 24))

	require.NoError(t, store.Insert(ctx, newReservation("b", "2026-06-01", models.SlotMorning, 24), 24))
}

func TestMemoryStoreLookups(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := newReservation("a", "2026-06-01", models.SlotMorning, 2)
	r.PaymentID = "pi_123"
	require.NoError(t, store.Insert(ctx, r, 24))

	got, err := store.GetByReference(ctx, "ref-a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	got, err = store.GetByPaymentID(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = store.GetByID(ctx, "missing")
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = store.GetByPaymentID(ctx, "")
	assert.ErrorAs(t, err, &nf)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := newReservation("a", "2026-06-01", models.SlotMorning, 2)
	require.NoError(t, store.Insert(ctx, r, 24))

	got, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	got.Status = models.StatusCancelled

	again, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestMemoryStoreSaveCustomerDedupesByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	first, err := store.SaveCustomer(ctx, &models.Customer{ID: "c1", FullName: "Ana Sousa", Email: "Ana@Example.com", Phone: "+351 900", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	second, err := store.SaveCustomer(ctx, &models.Customer{ID: "c2", FullName: "Ana M. Sousa", Email: "ana@example.com ", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ana M. Sousa", second.FullName)
	assert.Equal(t, "+351 900", second.Phone)

	stored, err := store.GetCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", stored.Email)
}

func TestMemoryStoreListPendingBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	old := newReservation("old", "2026-06-01", models.SlotMorning, 2)
	old.CreatedAt = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	paid := newReservation("paid", "2026-06-01", models.SlotMorning, 2)
	paid.CreatedAt = old.CreatedAt
	paid.Status, paid.PaymentStatus = models.StatusConfirmed, models.PaymentPaid
	fresh := newReservation("fresh", "2026-06-01", models.SlotMorning, 2)
	fresh.CreatedAt = time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC)

	for _, r := range []*models.Reservation{old, paid, fresh} {
		require.NoError(t, store.Insert(ctx, r, 24))
	}

	got, err := store.ListPendingBefore(ctx, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
}

func TestClassifyKeepsDomainErrors(t *testing.T) {
	capErr := &models.CapacityExceededError{Remaining: 3}
	assert.Same(t, capErr, classify("op", capErr))
	assert.ErrorIs(t, classify("op", models.ErrVersionConflict), models.ErrVersionConflict)

	var transient *models.TransientStorageError
	assert.ErrorAs(t, classify("op", context.DeadlineExceeded), &transient)
	assert.False(t, errors.As(classify("op", errors.New("boom")), &transient))
}

func TestClassifyMarksDuplicateKeys(t *testing.T) {
	err := classify("insert reservation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	assert.ErrorIs(t, err, models.ErrDuplicateReservation)
	assert.False(t, models.IsRetryable(err))
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, newReservation("a", "2026-06-01", models.SlotMorning, 2), 24))

	err := store.Insert(ctx, newReservation("a", "2026-06-01", models.SlotMorning, 2), 24)
	assert.ErrorIs(t, err, models.ErrDuplicateReservation)
}
