package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/handlers"
	"tourbooking/models"
	"tourbooking/routes"
	"tourbooking/services/booking"
	"tourbooking/services/notification"
	"tourbooking/services/payment"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	webhookSecret = "whsec_api_test"
	jwtSecret     = "admin-secret"
	adminPassword = "correct horse"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) last() models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[len(p.sent)-1]
}

type stubGateway struct{}

func (stubGateway) CreateIntent(_ context.Context, r *models.Reservation) (*models.PaymentIntent, error) {
	return &models.PaymentIntent{ID: "pi_" + r.Reference, ClientSecret: "cs_test", AmountCents: r.TotalCents, Currency: r.Currency}, nil
}

type api struct {
	router *gin.Engine
	clock  *utils.FakeClock
	pub    *recordingPublisher
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWithLimit(t, 10000)
}

func newAPIWithLimit(t *testing.T, perMinute int) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := reservationRepo.NewMemoryStore()
	pub := &recordingPublisher{}
	logger := zap.NewNop()
	clock := utils.NewFakeClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	notifier := notification.NewDispatcher(pub, store, logger)

	svc := booking.NewBookingService(store, notifier, stubGateway{}, clock, booking.Options{
		Capacity:            24,
		PricePerPersonCents: 16500,
		Currency:            "eur",
		Location:            time.UTC,
		CancellationCutoff:  24 * time.Hour,
		PendingExpiry:       2 * time.Hour,
		StorageRetries:      3,
	}, logger)
	rc := payment.NewReconciler(payment.NewStripeVerifier(webhookSecret), store, notifier, payment.NewMemoryLedger(), clock, 24, 3, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	bundle := handlers.NewHandlerBundle(svc, rc, handlers.AdminSettings{
		PasswordHash: string(hash),
		TokenSecret:  jwtSecret,
		TokenTTL:     time.Hour,
	})
	return &api{router: routes.NewRouter(logger, perMinute, bundle), clock: clock, pub: pub}
}

func (a *api) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingBody(adults int) map[string]any {
	return map[string]any{
		"date":   "2026-06-01",
		"slot":   "Afternoon (16:00)",
		"adults": adults,
		"customer": map[string]any{
			"fullName": "Mia Lopes",
			"email":    "mia@example.com",
		},
	}
}

func (a *api) create(t *testing.T, adults int) models.Reservation {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/bookings", bookingBody(adults), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Reservation](t, rec)
}

func signedWebhook(t *testing.T, eventID, eventType string, object map[string]any) ([]byte, http.Header) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2023-10-16",
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, http.Header{"Stripe-Signature": []string{signed.Header}}
}

func (a *api) postRaw(path string, payload []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)

	r := a.create(t, 4)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.Equal(t, models.PaymentUnpaid, r.PaymentStatus)
	assert.Equal(t, models.SlotAfternoon, r.Slot)
	assert.Equal(t, int64(66000), r.TotalCents)

	rec := a.do(t, http.MethodGet, "/api/availability?date=2026-06-01&participants=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[models.DayAvailability](t, rec)
	for _, s := range day.Slots {
		if s.Slot == models.SlotAfternoon {
			assert.Equal(t, 20, s.Remaining)
		}
	}

	payload, header := signedWebhook(t, "evt_paid", "payment_intent.succeeded", map[string]any{
		"id":       "pi_1",
		"object":   "payment_intent",
		"amount":   66000,
		"currency": "eur",
		"status":   "succeeded",
		"metadata": map[string]string{models.MetaBookingID: r.ID},
	})
	rec = a.postRaw("/api/webhooks/stripe", payload, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/bookings/"+r.Reference, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Reservation](t, rec)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, models.NotifyConfirmation, a.pub.last().Kind)

	// Two hours before the 16:00 departure.
	a.clock.Set(time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC))
	rec = a.do(t, http.MethodPost, "/api/bookings/"+r.ID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[models.CancellationResult](t, rec)
	assert.Equal(t, models.StatusCancelled, res.Reservation.Status)
	assert.False(t, res.RefundEligible)

	n := a.pub.last()
	assert.Equal(t, models.NotifyCancellation, n.Kind)
	require.NotNil(t, n.RefundEligible)
	assert.False(t, *n.RefundEligible)
}

func TestCreateOverCapacityReturnsConflict(t *testing.T) {
	a := newAPI(t)
	a.create(t, 20)

	rec := a.do(t, http.MethodPost, "/api/bookings", bookingBody(5), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[utils.ErrorResponse](t, rec)
	assert.Equal(t, models.CodeCapacityExceeded, body.Code)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	a := newAPI(t)
	body := bookingBody(0)
	body["slot"] = "evening"

	rec := a.do(t, http.MethodPost, "/api/bookings", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.CodeValidation, decode[utils.ErrorResponse](t, rec).Code)
}

func TestUnknownBookingIsNotFound(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/api/bookings/TB-DEADBEEF", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookWithBadSignatureIsRejected(t *testing.T) {
	a := newAPI(t)
	r := a.create(t, 2)
	payload, _ := signedWebhook(t, "evt_forged", "payment_intent.succeeded", map[string]any{
		"id":       "pi_x",
		"object":   "payment_intent",
		"status":   "succeeded",
		"metadata": map[string]string{models.MetaBookingID: r.ID},
	})

	rec := a.postRaw("/api/webhooks/stripe", payload, http.Header{"Stripe-Signature": []string{"t=1,v1=deadbeef"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.CodeSignature, decode[utils.ErrorResponse](t, rec).Code)

	rec = a.do(t, http.MethodGet, "/api/bookings/"+r.ID, nil, nil)
	assert.Equal(t, models.StatusPending, decode[models.Reservation](t, rec).Status)
}

func TestWebhookIsNotRateLimited(t *testing.T) {
	a := newAPIWithLimit(t, 2)
	forged := http.Header{"Stripe-Signature": []string{"t=1,v1=deadbeef"}}

	for i := 0; i < 5; i++ {
		rec := a.postRaw(routes.StripeWebhookPath, []byte(`{"id":"evt_burst"}`), forged)
		require.Equal(t, http.StatusBadRequest, rec.Code, "delivery %d", i)
	}

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, a.do(t, http.MethodGet, "/api/sessions?date=2026-06-01", nil, nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAvailabilityRangeInThePastReturnsEmptyList(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/api/availability/range?start=2026-04-01&end=2026-04-30&participants=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"days":[]}`, rec.Body.String())
}

func TestCustomerCannotChangeStatus(t *testing.T) {
	a := newAPI(t)
	r := a.create(t, 2)

	rec := a.do(t, http.MethodPatch, "/api/bookings/"+r.ID, map[string]any{"status": "confirmed"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminConfirmRequiresToken(t *testing.T) {
	a := newAPI(t)
	r := a.create(t, 2)
	path := "/api/admin/bookings/" + r.ID + "/confirm"

	rec := a.do(t, http.MethodPost, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": adminPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[struct {
		Token string `json:"token"`
	}](t, rec)
	require.NotEmpty(t, login.Token)

	auth := http.Header{"Authorization": []string{"Bearer " + login.Token}}
	rec = a.do(t, http.MethodPost, path, nil, auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusConfirmed, decode[models.Reservation](t, rec).Status)
}

func TestNonAdminTokenIsForbidden(t *testing.T) {
	a := newAPI(t)
	r := a.create(t, 2)
	token, err := utils.GenerateToken(jwtSecret, "someone", "guide", time.Hour)
	require.NoError(t, err)

	rec := a.do(t, http.MethodPost, "/api/admin/bookings/"+r.ID+"/confirm", nil, http.Header{"Authorization": []string{"Bearer " + token}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/api/sessions?date=2026-06-01", nil, http.Header{"X-Request-Id": []string{"req-42"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
