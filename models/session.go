package models

import (
	"fmt"
	"strings"
)

// DefaultSessionCapacity is the seat ceiling of every tour departure.
const DefaultSessionCapacity = 24

// Slot is the storage code of one of the three daily departures.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotMidday    Slot = "midday"
	SlotAfternoon Slot = "afternoon"
)

type slotInfo struct {
	slot        Slot
	label       string
	clock       string
	startMinute int // minutes after local midnight
}

// slotTable is the single source for both storage codes and display labels.
var slotTable = []slotInfo{
	{slot: SlotMorning, label: "Morning", clock: "09:00", startMinute: 9 * 60},
	{slot: SlotMidday, label: "Midday", clock: "12:30", startMinute: 12*60 + 30},
	{slot: SlotAfternoon, label: "Afternoon", clock: "16:00", startMinute: 16 * 60},
}

// AllSlots returns the slots in departure order.
func AllSlots() []Slot {
	out := make([]Slot, 0, len(slotTable))
	for _, s := range slotTable {
		out = append(out, s.slot)
	}
	return out
}

func (s Slot) info() (slotInfo, bool) {
	for _, si := range slotTable {
		if si.slot == s {
			return si, true
		}
	}
	return slotInfo{}, false
}

// Valid reports whether s is one of the known departures.
func (s Slot) Valid() bool {
	_, ok := s.info()
	return ok
}

// Label is the customer-facing name, e.g. "Afternoon (16:00)".
func (s Slot) Label() string {
	si, ok := s.info()
	if !ok {
		return string(s)
	}
	return fmt.Sprintf("%s (%s)", si.label, si.clock)
}

// StartMinute is the departure time as minutes after local midnight.
func (s Slot) StartMinute() int {
	si, _ := s.info()
	return si.startMinute
}

// ParseSlot accepts a storage code ("afternoon"), a display label
// ("Afternoon (16:00)") or a bare departure time ("16:00").
func ParseSlot(raw string) (Slot, error) {
	v := strings.TrimSpace(raw)
	for _, si := range slotTable {
		switch {
		case strings.EqualFold(v, string(si.slot)),
			strings.EqualFold(v, si.label),
			v == si.clock,
			strings.EqualFold(v, si.slot.Label()):
			return si.slot, nil
		}
	}
	return "", fmt.Errorf("unknown session %q", raw)
}

// Session is a bookable departure derived from a date and a slot.
type Session struct {
	Date        string `json:"date"`
	Slot        Slot   `json:"slot"`
	Label       string `json:"label"`
	StartMinute int    `json:"startMinute"`
	Capacity    int    `json:"capacity"`
}

// SessionKey identifies the capacity bucket of a departure.
type SessionKey struct {
	Date string
	Slot Slot
}

func (k SessionKey) String() string {
	return k.Date + "|" + string(k.Slot)
}
