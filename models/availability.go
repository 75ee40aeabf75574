package models

// SlotAvailability is the seat picture of one departure.
type SlotAvailability struct {
	Slot      Slot   `json:"slot"`
	Label     string `json:"label"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}

// DayAvailability is a read snapshot; it carries no reservation guarantee.
type DayAvailability struct {
	Date      string             `json:"date"`
	Available bool               `json:"available"`
	Slots     []SlotAvailability `json:"slots"`
}
