package notification

import (
	"context"
	"time"

	"tourbooking/models"

	"go.uber.org/zap"
)

// Publisher hands a notification to the outbound queue. It must not wait for
// delivery.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// CustomerLookup resolves the contact a reservation points at.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
}

// Dispatcher builds notifications for committed transitions and publishes
// them best-effort. Failures are logged and never returned.
type Dispatcher struct {
	publisher Publisher
	customers CustomerLookup
	logger    *zap.Logger
	timeout   time.Duration
}

func NewDispatcher(publisher Publisher, customers CustomerLookup, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{publisher: publisher, customers: customers, logger: logger, timeout: 2 * time.Second}
}

// Notify must only be called after the transition is durable.
func (d *Dispatcher) Notify(ctx context.Context, kind models.NotificationKind, r *models.Reservation, refundEligible *bool) {
	// the triggering request may already be done
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	customer, err := d.customers.GetCustomer(ctx, r.CustomerID)
	if err != nil {
		d.log(&models.NotificationError{Kind: kind, ReservationID: r.ID, Err: err})
		return
	}

	n := Build(kind, r, customer, refundEligible)
	if err := d.publisher.Publish(ctx, n); err != nil {
		d.log(&models.NotificationError{Kind: kind, ReservationID: r.ID, Err: err})
		return
	}
	d.logger.Debug("notification queued",
		zap.String("kind", string(kind)),
		zap.String("reservationID", r.ID))
}

func (d *Dispatcher) log(err *models.NotificationError) {
	d.logger.Warn("notification dropped",
		zap.String("kind", string(err.Kind)),
		zap.String("reservationID", err.ReservationID),
		zap.Error(err))
}

// Build assembles the payload for one reservation.
func Build(kind models.NotificationKind, r *models.Reservation, c *models.Customer, refundEligible *bool) models.Notification {
	return models.Notification{
		Kind:           kind,
		ReservationID:  r.ID,
		Reference:      r.Reference,
		CustomerName:   c.FullName,
		CustomerEmail:  c.Email,
		Date:           r.Date,
		Slot:           r.Slot,
		SlotLabel:      r.Slot.Label(),
		Participants:   r.Participants,
		TotalCents:     r.TotalCents,
		Currency:       r.Currency,
		RefundEligible: refundEligible,
	}
}
