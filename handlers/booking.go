package handlers

import (
	"net/http"

	"tourbooking/models"
	"tourbooking/services/booking"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the customer-facing reservation lifecycle.
type BookingHandler struct {
	svc booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		getLogger(c).Debug("invalid request body", zap.Error(err))
		utils.WriteError(c, getLogger(c), models.InvalidField("body", "malformed JSON"))
		return false
	}
	return true
}

// resolveID accepts either a booking reference or an internal id in :id.
func resolveID(c *gin.Context, svc booking.BookingService) (string, bool) {
	r, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return "", false
	}
	return r.ID, true
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GetBooking handles GET /api/bookings/:id, where :id may be a reference.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ModifyBooking handles PATCH /api/bookings/:id. Status is admin-only.
func (h *BookingHandler) ModifyBooking(c *gin.Context) {
	var req models.ModifyReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != nil {
		utils.WriteError(c, getLogger(c), models.InvalidField("status", "cannot be changed by customers"))
		return
	}
	h.modify(c, req)
}

func (h *BookingHandler) modify(c *gin.Context, req models.ModifyReservationRequest) {
	id, ok := resolveID(c, h.svc)
	if !ok {
		return
	}
	r, err := h.svc.Modify(c.Request.Context(), id, req)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := resolveID(c, h.svc)
	if !ok {
		return
	}
	res, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreatePaymentIntent handles POST /api/bookings/:id/payment-intent.
func (h *BookingHandler) CreatePaymentIntent(c *gin.Context) {
	id, ok := resolveID(c, h.svc)
	if !ok {
		return
	}
	intent, err := h.svc.StartPayment(c.Request.Context(), id)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, intent)
}
