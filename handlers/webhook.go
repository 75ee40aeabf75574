package handlers

import (
	"io"
	"net/http"

	"tourbooking/models"
	"tourbooking/services/payment"
	"tourbooking/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

type WebhookHandler struct {
	reconciler *payment.Reconciler
}

func NewWebhookHandler(reconciler *payment.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// StripeWebhook handles POST /api/webhooks/stripe. A 2xx tells Stripe to stop
// redelivering; anything else asks for another attempt.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	logger := getLogger(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("failed to read webhook body", zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, models.CodeTransientStorage, "could not read body", nil)
		return
	}

	if err := h.reconciler.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.WriteError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
