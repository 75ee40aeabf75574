package booking

import (
	"context"
	"errors"
	"time"

	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/models"
	"tourbooking/services/notification"
	"tourbooking/utils"

	"go.uber.org/zap"
)

type Options struct {
	Capacity            int
	PricePerPersonCents int64
	Currency            string
	Location            *time.Location
	CancellationCutoff  time.Duration
	PendingExpiry       time.Duration
	StorageRetries      int
}

// DefaultBookingService implements BookingService on top of a Store.
type DefaultBookingService struct {
	store    reservationRepo.Store
	calendar Calendar
	clock    utils.Clock
	notifier *notification.Dispatcher
	gateway  PaymentGateway
	mutator  reservationRepo.Mutator
	opts     Options
	logger   *zap.Logger
}

func NewBookingService(
	store reservationRepo.Store,
	notifier *notification.Dispatcher,
	gateway PaymentGateway,
	clock utils.Clock,
	opts Options,
	logger *zap.Logger,
) *DefaultBookingService {
	if opts.Capacity <= 0 {
		opts.Capacity = models.DefaultSessionCapacity
	}
	if opts.CancellationCutoff <= 0 {
		opts.CancellationCutoff = 24 * time.Hour
	}
	if opts.StorageRetries <= 0 {
		opts.StorageRetries = 3
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &DefaultBookingService{
		store:    store,
		calendar: NewCalendar(opts.Capacity, opts.Location),
		clock:    clock,
		notifier: notifier,
		gateway:  gateway,
		mutator: reservationRepo.Mutator{
			Store:    store,
			Capacity: opts.Capacity,
			Attempts: opts.StorageRetries,
			Backoff:  retryBackoff,
			Clock:    clock,
		},
		opts:   opts,
		logger: logger,
	}
}

const retryBackoff = 25 * time.Millisecond

func (s *DefaultBookingService) retry(ctx context.Context, fn func() error) error {
	return utils.Retry(ctx, s.opts.StorageRetries, retryBackoff, fn)
}

func (s *DefaultBookingService) mutate(ctx context.Context, id string, change func(current, next *models.Reservation) error) (*models.Reservation, *models.Reservation, error) {
	return s.mutator.Mutate(ctx, id, change)
}

var errSkip = reservationRepo.ErrSkip

func (s *DefaultBookingService) Sessions(date string) ([]models.Session, error) {
	sessions, err := s.calendar.Sessions(date)
	if err != nil {
		return nil, models.InvalidField("date", err.Error())
	}
	return sessions, nil
}

// Get resolves a booking reference first and falls back to the internal id.
func (s *DefaultBookingService) Get(ctx context.Context, key string) (*models.Reservation, error) {
	r, err := s.store.GetByReference(ctx, key)
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return s.store.GetByID(ctx, key)
	}
	return r, err
}
