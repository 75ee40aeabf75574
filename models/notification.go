package models

type NotificationKind string

const (
	NotifyConfirmation NotificationKind = "booking_confirmation"
	NotifyCancellation NotificationKind = "booking_cancellation"
)

// Notification is the payload handed to the outbound mail queue.
type Notification struct {
	Kind           NotificationKind `json:"kind"`
	ReservationID  string           `json:"reservationId"`
	Reference      string           `json:"reference"`
	CustomerName   string           `json:"customerName"`
	CustomerEmail  string           `json:"customerEmail"`
	Date           string           `json:"date"`
	Slot           Slot             `json:"slot"`
	SlotLabel      string           `json:"slotLabel"`
	Participants   int              `json:"participants"`
	TotalCents     int64            `json:"totalCents"`
	Currency       string           `json:"currency"`
	RefundEligible *bool            `json:"refundEligible,omitempty"`
}
