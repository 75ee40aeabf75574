package booking

import (
	"context"

	"tourbooking/models"
)

// BookingService is the lifecycle API the HTTP layer and the worker use.
type BookingService interface {
	Sessions(date string) ([]models.Session, error)
	Availability(ctx context.Context, date string, requested int) (*models.DayAvailability, error)
	AvailabilityRange(ctx context.Context, start, end string, requested int) ([]models.DayAvailability, error)

	Create(ctx context.Context, req models.CreateReservationRequest) (*models.Reservation, error)
	Get(ctx context.Context, key string) (*models.Reservation, error)
	Modify(ctx context.Context, id string, req models.ModifyReservationRequest) (*models.Reservation, error)
	Confirm(ctx context.Context, id string) (*models.Reservation, error)
	Cancel(ctx context.Context, id string) (*models.CancellationResult, error)

	StartPayment(ctx context.Context, id string) (*models.PaymentIntent, error)
	ExpirePending(ctx context.Context) (int, error)
}

// PaymentGateway issues payment intents for reservations.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, r *models.Reservation) (*models.PaymentIntent, error)
}
