package handlers

import (
	"time"

	"tourbooking/services/booking"
	"tourbooking/services/payment"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	AdminTokenSecret string

	// Availability endpoints
	GetAvailability      gin.HandlerFunc
	GetAvailabilityRange gin.HandlerFunc
	ListSessions         gin.HandlerFunc

	// Booking endpoints
	CreateBooking       gin.HandlerFunc
	GetBooking          gin.HandlerFunc
	ModifyBooking       gin.HandlerFunc
	CancelBooking       gin.HandlerFunc
	CreatePaymentIntent gin.HandlerFunc

	// Payment provider callbacks
	StripeWebhook gin.HandlerFunc

	// Admin endpoints
	AdminLogin   gin.HandlerFunc
	AdminConfirm gin.HandlerFunc
	AdminModify  gin.HandlerFunc

	Health gin.HandlerFunc
}

// AdminSettings configures operator login.
type AdminSettings struct {
	PasswordHash string
	TokenSecret  string
	TokenTTL     time.Duration
}

// NewHandlerBundle assembles every endpoint from the booking service and the
// payment reconciler.
func NewHandlerBundle(svc booking.BookingService, reconciler *payment.Reconciler, admin AdminSettings) *HandlerBundle {
	availabilityHandler := NewAvailabilityHandler(svc)
	bookingHandler := NewBookingHandler(svc)
	webhookHandler := NewWebhookHandler(reconciler)
	adminHandler := NewAdminHandler(svc, admin.PasswordHash, admin.TokenSecret, admin.TokenTTL)

	return &HandlerBundle{
		AdminTokenSecret: admin.TokenSecret,

		GetAvailability:      availabilityHandler.GetAvailability,
		GetAvailabilityRange: availabilityHandler.GetAvailabilityRange,
		ListSessions:         availabilityHandler.ListSessions,

		CreateBooking:       bookingHandler.CreateBooking,
		GetBooking:          bookingHandler.GetBooking,
		ModifyBooking:       bookingHandler.ModifyBooking,
		CancelBooking:       bookingHandler.CancelBooking,
		CreatePaymentIntent: bookingHandler.CreatePaymentIntent,

		StripeWebhook: webhookHandler.StripeWebhook,

		AdminLogin:   adminHandler.Login,
		AdminConfirm: adminHandler.ConfirmBooking,
		AdminModify:  adminHandler.ModifyBooking,

		Health: Health,
	}
}
