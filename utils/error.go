package utils

import (
	"errors"
	"net/http"

	"tourbooking/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    models.CodeInternal,
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message, Details: details})
}

// WriteError translates a domain error into its HTTP form. Anything that is
// not a known domain error is reported as an opaque internal failure.
func WriteError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		capacity   *models.CapacityExceededError
		state      *models.InvalidStateTransitionError
		signature  *models.SignatureVerificationError
		transient  *models.TransientStorageError
		provider   *models.PaymentProviderError
	)

	switch {
	case errors.As(err, &validation):
		JSONError(c, http.StatusBadRequest, validation.Code(), "invalid input", validation.Fields)
	case errors.As(err, &notFound):
		JSONError(c, http.StatusNotFound, notFound.Code(), notFound.Error(), nil)
	case errors.As(err, &capacity):
		JSONError(c, http.StatusConflict, capacity.Code(), "not enough seats left on this departure", gin.H{
			"date":      capacity.Date,
			"slot":      capacity.Slot,
			"requested": capacity.Requested,
			"remaining": capacity.Remaining,
		})
	case errors.As(err, &state):
		JSONError(c, http.StatusConflict, state.Code(), state.Error(), nil)
	case errors.As(err, &signature):
		logger.Warn("rejected webhook", zap.Error(err))
		JSONError(c, http.StatusBadRequest, signature.Code(), "invalid signature", nil)
	case errors.As(err, &transient), errors.Is(err, models.ErrVersionConflict):
		logger.Error("storage unavailable", zap.Error(err))
		JSONError(c, http.StatusServiceUnavailable, models.CodeTransientStorage, "temporarily unavailable, please retry", nil)
	case errors.As(err, &provider):
		logger.Error("payment provider failure", zap.Error(err))
		JSONError(c, http.StatusBadGateway, provider.Code(), "payment provider unavailable", nil)
	default:
		logger.Error("unhandled error", zap.Error(err))
		JSONError(c, http.StatusInternalServerError, models.CodeInternal, "internal error", nil)
	}
}
