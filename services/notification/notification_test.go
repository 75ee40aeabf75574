package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tourbooking/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubPublisher struct {
	sent []models.Notification
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, n models.Notification) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

type stubCustomers map[string]*models.Customer

func (s stubCustomers) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	c, ok := s[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "customer", Key: id}
	}
	return c, nil
}

func testReservation() *models.Reservation {
	return &models.Reservation{
		ID: "r1", Reference: "TB-12345678", CustomerID: "c1",
		Date: "2026-06-01", Slot: models.SlotAfternoon, Participants: 4,
		TotalCents: 66000, Currency: "eur",
	}
}

func TestDispatcherPublishesBuiltNotification(t *testing.T) {
	pub := &stubPublisher{}
	d := NewDispatcher(pub, stubCustomers{"c1": {ID: "c1", FullName: "Ana", Email: "ana@example.com"}}, zap.NewNop())

	d.Notify(context.Background(), models.NotifyConfirmation, testReservation(), nil)

	require.Len(t, pub.sent, 1)
	n := pub.sent[0]
	assert.Equal(t, "ana@example.com", n.CustomerEmail)
	assert.Equal(t, "Afternoon (16:00)", n.SlotLabel)
	assert.Equal(t, int64(66000), n.TotalCents)
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &stubPublisher{err: errors.New("redis down")}
	d := NewDispatcher(pub, stubCustomers{"c1": {ID: "c1"}}, zap.New(core))

	d.Notify(context.Background(), models.NotifyCancellation, testReservation(), nil)
	d.Notify(context.Background(), models.NotifyCancellation, &models.Reservation{ID: "r2", CustomerID: "missing"}, nil)

	assert.Equal(t, 2, logs.FilterMessage("notification dropped").Len())
}

func TestDispatcherIgnoresCancelledRequestContext(t *testing.T) {
	pub := &stubPublisher{}
	d := NewDispatcher(pub, stubCustomers{"c1": {ID: "c1"}}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Notify(ctx, models.NotifyConfirmation, testReservation(), nil)
	assert.Len(t, pub.sent, 1)
}

func TestRender(t *testing.T) {
	eligible := false
	n := Build(models.NotifyCancellation, testReservation(), &models.Customer{FullName: "Ana", Email: "ana@example.com"}, &eligible)

	subject, body, err := Render(n)
	require.NoError(t, err)
	assert.Equal(t, "Booking TB-12345678 cancelled", subject)
	assert.Contains(t, body, "not eligible for a refund")

	n.Kind = models.NotifyConfirmation
	_, body, err = Render(n)
	require.NoError(t, err)
	assert.Contains(t, body, "660.00 EUR")

	n.Kind = "unknown"
	_, _, err = Render(n)
	assert.Error(t, err)
}

func TestFanoutReachesEveryPublisher(t *testing.T) {
	first := &stubPublisher{err: errors.New("queue down")}
	second := &stubPublisher{}
	n := Build(models.NotifyConfirmation, testReservation(), &models.Customer{ID: "c1", Email: "ana@example.com"}, nil)

	err := Fanout{first, second}.Publish(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue down")
	require.Len(t, second.sent, 1)
	assert.Equal(t, models.NotifyConfirmation, second.sent[0].Kind)
}

// gatedPublisher blocks every Publish until release is closed.
type gatedPublisher struct {
	release chan struct{}
	entered chan struct{}

	mu   sync.Mutex
	sent []models.Notification
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{release: make(chan struct{}), entered: make(chan struct{}, 16)}
}

func (p *gatedPublisher) Publish(ctx context.Context, n models.Notification) error {
	p.entered <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *gatedPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func TestAsyncPublisherReturnsBeforeDelivery(t *testing.T) {
	inner := newGatedPublisher()
	p := NewAsyncPublisher(inner, 4, time.Minute, zap.NewNop())

	returned := make(chan error, 1)
	go func() {
		returned <- p.Publish(context.Background(), Build(models.NotifyConfirmation, testReservation(), &models.Customer{ID: "c1"}, nil))
	}()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish waited for delivery")
	}
	assert.Equal(t, 0, inner.count())

	close(inner.release)
	p.Close()
	assert.Equal(t, 1, inner.count(), "Close drains the buffer")
}

func TestAsyncPublisherDropsWhenFull(t *testing.T) {
	inner := newGatedPublisher()
	p := NewAsyncPublisher(inner, 1, time.Minute, zap.NewNop())
	n := Build(models.NotifyCancellation, testReservation(), &models.Customer{ID: "c1"}, nil)

	require.NoError(t, p.Publish(context.Background(), n))
	<-inner.entered
	require.NoError(t, p.Publish(context.Background(), n))
	assert.ErrorIs(t, p.Publish(context.Background(), n), ErrBufferFull)

	close(inner.release)
	p.Close()
	assert.Equal(t, 2, inner.count())
	assert.ErrorIs(t, p.Publish(context.Background(), n), ErrBufferFull)
	p.Close()
}

func TestAsyncPublisherLogsDeliveryFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewAsyncPublisher(&stubPublisher{err: errors.New("smtp refused")}, 4, time.Second, zap.New(core))

	require.NoError(t, p.Publish(context.Background(), Build(models.NotifyConfirmation, testReservation(), &models.Customer{ID: "c1"}, nil)))
	p.Close()

	assert.Equal(t, 1, logs.FilterMessage("notification dropped").Len())
}
