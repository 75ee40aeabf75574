package models

// CustomerInput is the contact block of a booking request.
type CustomerInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// CreateReservationRequest is a new booking. Slot accepts either the storage
// code or the display label.
type CreateReservationRequest struct {
	Date            string        `json:"date"`
	Slot            string        `json:"slot"`
	Adults          int           `json:"adults"`
	Children        int           `json:"children"`
	Customer        CustomerInput `json:"customer"`
	PickupLocation  string        `json:"pickupLocation"`
	SpecialRequests string        `json:"specialRequests"`
}

// ModifyReservationRequest carries only the fields being changed.
type ModifyReservationRequest struct {
	Date            *string            `json:"date,omitempty"`
	Slot            *string            `json:"slot,omitempty"`
	Adults          *int               `json:"adults,omitempty"`
	Children        *int               `json:"children,omitempty"`
	PickupLocation  *string            `json:"pickupLocation,omitempty"`
	SpecialRequests *string            `json:"specialRequests,omitempty"`
	Status          *ReservationStatus `json:"status,omitempty"`
}

// Empty reports whether the request changes nothing.
func (m ModifyReservationRequest) Empty() bool {
	return m.Date == nil && m.Slot == nil && m.Adults == nil && m.Children == nil &&
		m.PickupLocation == nil && m.SpecialRequests == nil && m.Status == nil
}

// CancellationResult tells the caller whether the refund policy applies.
type CancellationResult struct {
	Reservation    *Reservation `json:"reservation"`
	RefundEligible bool         `json:"refundEligible"`
	Message        string       `json:"message"`
}
