package booking

import (
	"context"
	"testing"

	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityRemainingSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "2026-06-01", "morning", 10, 0)
	f.mustCreate(t, "2026-06-01", "morning", 6, 2)

	day, err := f.svc.Availability(ctx, "2026-06-01", 7)
	require.NoError(t, err)
	require.Len(t, day.Slots, 3)

	morning := day.Slots[0]
	assert.Equal(t, models.SlotMorning, morning.Slot)
	assert.Equal(t, 18, morning.Booked)
	assert.Equal(t, 6, morning.Remaining)
	assert.False(t, morning.Available)
	assert.True(t, day.Available, "other slots are still open")

	day, err = f.svc.Availability(ctx, "2026-06-01", 6)
	require.NoError(t, err)
	assert.True(t, day.Slots[0].Available)
}

func TestAvailabilityIgnoresCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, "2026-06-01", "midday", 20, 0)
	_, err := f.svc.Cancel(ctx, r.ID)
	require.NoError(t, err)

	day, err := f.svc.Availability(ctx, "2026-06-01", 24)
	require.NoError(t, err)
	assert.Equal(t, 24, day.Slots[1].Remaining)
	assert.True(t, day.Slots[1].Available)
}

func TestComputeAvailabilityClampsAtZero(t *testing.T) {
	sessions, err := NewCalendar(24, nil).Sessions("2026-06-01")
	require.NoError(t, err)

	day := ComputeAvailability("2026-06-01", sessions, map[models.Slot]int{
		models.SlotMorning:   30,
		models.SlotMidday:    24,
		models.SlotAfternoon: 24,
	}, 1)
	assert.Equal(t, 0, day.Slots[0].Remaining)
	assert.False(t, day.Available)
}

func TestAvailabilityPastDateIsNotBookable(t *testing.T) {
	f := newFixture(t)
	day, err := f.svc.Availability(context.Background(), "2026-04-30", 1)
	require.NoError(t, err)
	assert.False(t, day.Available)
	for _, s := range day.Slots {
		assert.False(t, s.Available)
	}
}

func TestAvailabilityValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Availability(context.Background(), "01/06/2026", 1)
	requireValidation(t, err, "date")

	_, err = f.svc.Availability(context.Background(), "2026-06-01", 0)
	requireValidation(t, err, "participants")
}

type countingStore struct {
	reservationRepo.Store
	reads int
}

func (c *countingStore) BookedBySlot(ctx context.Context, date string) (map[models.Slot]int, error) {
	c.reads++
	return c.Store.BookedBySlot(ctx, date)
}

func TestAvailabilityRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "2026-05-02", "afternoon", 24, 0)

	days, err := f.svc.AvailabilityRange(ctx, "2026-04-28", "2026-05-03", 1)
	require.NoError(t, err)
	require.Len(t, days, 3, "dates before today are skipped")
	assert.Equal(t, "2026-05-01", days[0].Date)
	assert.Equal(t, "2026-05-02", days[1].Date)
	assert.False(t, days[1].Slots[2].Available)
	assert.True(t, days[1].Available)
}

func TestAvailabilityRangeInThePastIsEmptyNotNil(t *testing.T) {
	f := newFixture(t)
	days, err := f.svc.AvailabilityRange(context.Background(), "2026-04-01", "2026-04-30", 1)
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestAvailabilityRangeRejectsLongAndInvertedRanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store := &countingStore{Store: f.store}
	f.svc.store = store

	// 32 days inclusive
	_, err := f.svc.AvailabilityRange(ctx, "2026-06-01", "2026-07-02", 1)
	requireValidation(t, err, "end")

	_, err = f.svc.AvailabilityRange(ctx, "2026-06-10", "2026-06-01", 1)
	requireValidation(t, err, "end")
	assert.Zero(t, store.reads, "storage must not be read for an invalid range")

	days, err := f.svc.AvailabilityRange(ctx, "2026-06-01", "2026-07-01", 1)
	require.NoError(t, err)
	assert.Len(t, days, 31)
}
