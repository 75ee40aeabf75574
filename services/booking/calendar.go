package booking

import (
	"fmt"
	"time"

	"tourbooking/models"
)

const dateLayout = "2006-01-02"

// Calendar maps dates to the fixed daily departures. It does no I/O.
type Calendar struct {
	Capacity int
	Location *time.Location
}

func NewCalendar(capacity int, loc *time.Location) Calendar {
	if capacity <= 0 {
		capacity = models.DefaultSessionCapacity
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Capacity: capacity, Location: loc}
}

// ParseDate parses a YYYY-MM-DD calendar date in the operator's zone.
func (c Calendar) ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, raw, c.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return d, nil
}

// Sessions returns the departures of date in start order.
func (c Calendar) Sessions(date string) ([]models.Session, error) {
	if _, err := c.ParseDate(date); err != nil {
		return nil, err
	}
	out := make([]models.Session, 0, 3)
	for _, slot := range models.AllSlots() {
		out = append(out, models.Session{
			Date:        date,
			Slot:        slot,
			Label:       slot.Label(),
			StartMinute: slot.StartMinute(),
			Capacity:    c.Capacity,
		})
	}
	return out, nil
}

// SessionStart is the local departure instant of (date, slot).
func (c Calendar) SessionStart(date string, slot models.Slot) (time.Time, error) {
	d, err := c.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m := slot.StartMinute()
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, c.Location), nil
}

// Today is the operator-local calendar date of now.
func (c Calendar) Today(now time.Time) string {
	return now.In(c.Location).Format(dateLayout)
}

// IsPast reports whether date lies before today's local midnight.
func (c Calendar) IsPast(date string, now time.Time) bool {
	return date < c.Today(now)
}
