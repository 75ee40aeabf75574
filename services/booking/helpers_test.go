package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/models"
	"tourbooking/services/notification"
	"tourbooking/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) kinds() []models.NotificationKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.NotificationKind, 0, len(p.sent))
	for _, n := range p.sent {
		out = append(out, n.Kind)
	}
	return out
}

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) CreateIntent(_ context.Context, r *models.Reservation) (*models.PaymentIntent, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.PaymentIntent{ID: "pi_" + r.ID, ClientSecret: "secret", AmountCents: r.TotalCents, Currency: r.Currency}, nil
}

type fixture struct {
	svc     *DefaultBookingService
	store   *reservationRepo.MemoryStore
	pub     *recordingPublisher
	gateway *fakeGateway
	clock   *utils.FakeClock
}

// 2026-05-01 08:00 UTC
var fixtureNow = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub := &recordingPublisher{}
	f := newFixtureWithPublisher(t, pub)
	f.pub = pub
	return f
}

func newFixtureWithPublisher(t *testing.T, pub notification.Publisher) *fixture {
	t.Helper()
	store := reservationRepo.NewMemoryStore()
	gw := &fakeGateway{}
	clock := utils.NewFakeClock(fixtureNow)
	logger := zap.NewNop()
	svc := NewBookingService(store, notification.NewDispatcher(pub, store, logger), gw, clock, Options{
		Capacity:            24,
		PricePerPersonCents: 16500,
		Currency:            "eur",
		Location:            time.UTC,
		CancellationCutoff:  24 * time.Hour,
		PendingExpiry:       2 * time.Hour,
		StorageRetries:      3,
	}, logger)
	return &fixture{svc: svc, store: store, gateway: gw, clock: clock}
}

func createRequest(date string, slot string, adults, children int) models.CreateReservationRequest {
	return models.CreateReservationRequest{
		Date:     date,
		Slot:     slot,
		Adults:   adults,
		Children: children,
		Customer: models.CustomerInput{FullName: "Rui Costa", Email: "rui@example.com", Phone: "+351 910 000 000"},
	}
}

func (f *fixture) mustCreate(t *testing.T, date, slot string, adults, children int) *models.Reservation {
	t.Helper()
	r, err := f.svc.Create(context.Background(), createRequest(date, slot, adults, children))
	require.NoError(t, err)
	return r
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var v *models.ValidationError
	require.True(t, errors.As(err, &v), "expected validation error, got %v", err)
	require.Contains(t, v.Fields, field)
}
