package handlers

import (
	"net/http"
	"time"

	"tourbooking/models"
	"tourbooking/services/booking"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler encapsulates operator-level operations.
type AdminHandler struct {
	svc          booking.BookingService
	passwordHash string
	secret       string
	tokenTTL     time.Duration
}

func NewAdminHandler(svc booking.BookingService, passwordHash, secret string, tokenTTL time.Duration) *AdminHandler {
	return &AdminHandler{svc: svc, passwordHash: passwordHash, secret: secret, tokenTTL: tokenTTL}
}

// Login exchanges the operator password for a short-lived admin token.
func (ah *AdminHandler) Login(c *gin.Context) {
	logger := getLogger(c)
	var input struct {
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}
	if ah.passwordHash == "" || bcrypt.CompareHashAndPassword([]byte(ah.passwordHash), []byte(input.Password)) != nil {
		logger.Warn("admin login rejected")
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}
	token, err := utils.GenerateToken(ah.secret, "admin", utils.RoleAdmin, ah.tokenTTL)
	if err != nil {
		logger.Error("failed to issue admin token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, models.CodeInternal, "could not issue token", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(ah.tokenTTL.Seconds())})
}

// ConfirmBooking handles POST /api/admin/bookings/:id/confirm.
func (ah *AdminHandler) ConfirmBooking(c *gin.Context) {
	id, ok := resolveID(c, ah.svc)
	if !ok {
		return
	}
	r, err := ah.svc.Confirm(c.Request.Context(), id)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ModifyBooking handles PATCH /api/admin/bookings/:id, including status.
func (ah *AdminHandler) ModifyBooking(c *gin.Context) {
	var req models.ModifyReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := resolveID(c, ah.svc)
	if !ok {
		return
	}
	r, err := ah.svc.Modify(c.Request.Context(), id, req)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, r)
}
