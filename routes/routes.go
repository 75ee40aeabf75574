package routes

import (
	"time"

	"tourbooking/handlers"
	"tourbooking/middleware"
	"tourbooking/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterAvailabilityRoutes registers read-only capacity endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.GET("/availability", hb.GetAvailability)
		api.GET("/availability/range", hb.GetAvailabilityRange)
		api.GET("/sessions", hb.ListSessions)
	}
}

// RegisterBookingRoutes registers the public reservation lifecycle. :id
// accepts either the booking reference or the internal id.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.POST("", hb.CreateBooking)
		bookingGroup.GET("/:id", hb.GetBooking)
		bookingGroup.PATCH("/:id", hb.ModifyBooking)
		bookingGroup.POST("/:id/cancel", hb.CancelBooking)
		bookingGroup.POST("/:id/payment-intent", hb.CreatePaymentIntent)
	}
}

// StripeWebhookPath receives provider redeliveries, which are not rate limited.
const StripeWebhookPath = "/api/webhooks/stripe"

// RegisterWebhookRoutes registers payment provider callbacks. They
// authenticate by signature, not by token.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST(StripeWebhookPath, hb.StripeWebhook)
}

// RegisterAdminRoutes sets up endpoints for operator actions.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/admin/login", hb.AdminLogin)

	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware(hb.AdminTokenSecret))
		adminGroup.POST("/bookings/:id/confirm", hb.AdminConfirm)
		adminGroup.PATCH("/bookings/:id", hb.AdminModify)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}

// NewRouter builds the engine with the shared middleware chain.
func NewRouter(logger *zap.Logger, maxRequestsPerMin int, hb *handlers.HandlerBundle) *gin.Engine {
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(maxRequestsPerMin, StripeWebhookPath))
	RegisterRoutes(router, hb)
	return router
}
