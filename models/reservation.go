package models

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Reservation is a customer's claim on seats of one departure.
// Rows are never deleted; cancellation is a status change.
type Reservation struct {
	ID                  string            `bson:"id" json:"id"`
	Reference           string            `bson:"reference" json:"reference"`
	CustomerID          string            `bson:"customer_id" json:"customerId"`
	Date                string            `bson:"date" json:"date"` // "YYYY-MM-DD" in the operator's time zone
	Slot                Slot              `bson:"slot" json:"slot"`
	Adults              int               `bson:"adults" json:"adults"`
	Children            int               `bson:"children" json:"children"`
	Participants        int               `bson:"participants" json:"participants"`
	PricePerPersonCents int64             `bson:"price_per_person_cents" json:"pricePerPersonCents"`
	TotalCents          int64             `bson:"total_cents" json:"totalCents"`
	Currency            string            `bson:"currency" json:"currency"`
	Status              ReservationStatus `bson:"status" json:"status"`
	PaymentStatus       PaymentStatus     `bson:"payment_status" json:"paymentStatus"`
	PaymentID           string            `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	PickupLocation      string            `bson:"pickup_location,omitempty" json:"pickupLocation,omitempty"`
	SpecialRequests     string            `bson:"special_requests,omitempty" json:"specialRequests,omitempty"`
	LastPaymentError    string            `bson:"last_payment_error,omitempty" json:"lastPaymentError,omitempty"`
	PaymentFailedAt     *time.Time        `bson:"payment_failed_at,omitempty" json:"paymentFailedAt,omitempty"`
	CancelledAt         *time.Time        `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt           time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time         `bson:"updated_at" json:"updatedAt"`
	Version             int64             `bson:"version" json:"version"`
}

// Active reports whether the reservation occupies seats.
func (r *Reservation) Active() bool {
	return r.Status != StatusCancelled
}

func (r *Reservation) Key() SessionKey {
	return SessionKey{Date: r.Date, Slot: r.Slot}
}

// Settled reports whether payment reconciliation has completed.
func (r *Reservation) Settled() bool {
	return r.Status == StatusConfirmed && r.PaymentStatus == PaymentPaid
}

// Clone returns a copy that shares no pointers with r.
func (r *Reservation) Clone() *Reservation {
	cp := *r
	if r.PaymentFailedAt != nil {
		t := *r.PaymentFailedAt
		cp.PaymentFailedAt = &t
	}
	if r.CancelledAt != nil {
		t := *r.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}

// Customer is contact identity shared by reference across reservations.
type Customer struct {
	ID        string    `bson:"id" json:"id"`
	FullName  string    `bson:"full_name" json:"fullName"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
