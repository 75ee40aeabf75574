package handlers

import (
	"net/http"
	"strconv"

	"tourbooking/models"
	"tourbooking/services/booking"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	svc booking.BookingService
}

func NewAvailabilityHandler(svc booking.BookingService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// participantsParam reads ?participants=, defaulting to 1.
func participantsParam(c *gin.Context) (int, error) {
	raw := c.Query("participants")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.InvalidField("participants", "must be a whole number")
	}
	return n, nil
}

// GetAvailability handles GET /api/availability?date=&participants=
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	logger := getLogger(c)
	n, err := participantsParam(c)
	if err != nil {
		utils.WriteError(c, logger, err)
		return
	}
	day, err := h.svc.Availability(c.Request.Context(), c.Query("date"), n)
	if err != nil {
		utils.WriteError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GetAvailabilityRange handles GET /api/availability/range?start=&end=&participants=
func (h *AvailabilityHandler) GetAvailabilityRange(c *gin.Context) {
	logger := getLogger(c)
	n, err := participantsParam(c)
	if err != nil {
		utils.WriteError(c, logger, err)
		return
	}
	days, err := h.svc.AvailabilityRange(c.Request.Context(), c.Query("start"), c.Query("end"), n)
	if err != nil {
		utils.WriteError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// ListSessions handles GET /api/sessions?date=
func (h *AvailabilityHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.Sessions(c.Query("date"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
