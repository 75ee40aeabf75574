package booking

import (
	"context"
	"time"

	"tourbooking/models"
)

// MaxRangeDays bounds a range query, both ends inclusive.
const MaxRangeDays = 31

// ComputeAvailability folds booked seat totals into per-slot availability.
func ComputeAvailability(date string, sessions []models.Session, booked map[models.Slot]int, requested int) models.DayAvailability {
	day := models.DayAvailability{Date: date, Slots: make([]models.SlotAvailability, 0, len(sessions))}
	for _, sess := range sessions {
		remaining := sess.Capacity - booked[sess.Slot]
		if remaining < 0 {
			remaining = 0
		}
		sa := models.SlotAvailability{
			Slot:      sess.Slot,
			Label:     sess.Label,
			Capacity:  sess.Capacity,
			Booked:    booked[sess.Slot],
			Remaining: remaining,
			Available: remaining >= requested,
		}
		day.Available = day.Available || sa.Available
		day.Slots = append(day.Slots, sa)
	}
	return day
}

func validateRequested(v *models.ValidationError, requested int) {
	if requested < 1 {
		v.Add("participants", "must be at least 1")
	}
}

// Availability is a read snapshot; admission is re-checked on write.
// Past dates report every slot as unavailable.
func (s *DefaultBookingService) Availability(ctx context.Context, date string, requested int) (*models.DayAvailability, error) {
	v := models.NewValidationError()
	validateRequested(v, requested)
	sessions, err := s.calendar.Sessions(date)
	if err != nil {
		v.Add("date", err.Error())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	booked, err := s.store.BookedBySlot(ctx, date)
	if err != nil {
		return nil, err
	}
	day := ComputeAvailability(date, sessions, booked, requested)
	if s.calendar.IsPast(date, s.clock.Now()) {
		day.Available = false
		for i := range day.Slots {
			day.Slots[i].Available = false
		}
	}
	return &day, nil
}

// AvailabilityRange validates the whole range before touching storage and
// skips dates before today.
func (s *DefaultBookingService) AvailabilityRange(ctx context.Context, start, end string, requested int) ([]models.DayAvailability, error) {
	v := models.NewValidationError()
	validateRequested(v, requested)
	from, err := s.calendar.ParseDate(start)
	if err != nil {
		v.Add("start", err.Error())
	}
	to, err2 := s.calendar.ParseDate(end)
	if err2 != nil {
		v.Add("end", err2.Error())
	}
	if err == nil && err2 == nil {
		switch {
		case from.After(to):
			v.Add("end", "must not be before start")
		case daysInclusive(start, end) > MaxRangeDays:
			v.Add("end", "range may span at most 31 days")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	today := s.calendar.Today(s.clock.Now())
	out := []models.DayAvailability{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		if date < today {
			continue
		}
		sessions, _ := s.calendar.Sessions(date)
		booked, err := s.store.BookedBySlot(ctx, date)
		if err != nil {
			return nil, err
		}
		out = append(out, ComputeAvailability(date, sessions, booked, requested))
	}
	return out, nil
}

// daysInclusive counts calendar days independent of DST shifts.
func daysInclusive(start, end string) int {
	a, _ := time.Parse(dateLayout, start)
	b, _ := time.Parse(dateLayout, end)
	return int(b.Sub(a).Hours()/24) + 1
}
