package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	chargedomain "github.com/smallbiznis/patungan/internal/charge/domain"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
	"github.com/smallbiznis/patungan/internal/share"
	subscriptiondomain "github.com/smallbiznis/patungan/internal/subscription/domain"
	userdomain "github.com/smallbiznis/patungan/internal/user/domain"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrInvalidStateTransition),
		errors.Is(err, chargedomain.ErrChargeNotCancelable):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "state_error",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrSelfVerificationForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "permission_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, userdomain.ErrUserNotFound) ||
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) ||
		errors.Is(err, subscriptiondomain.ErrParticipantNotFound) ||
		errors.Is(err, chargedomain.ErrChargeNotFound) ||
		errors.Is(err, chargedomain.ErrChargeShareNotFound) ||
		errors.Is(err, paymentdomain.ErrPaymentNotFound)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, userdomain.ErrInvalidEmail) ||
		errors.Is(err, subscriptiondomain.ErrInvalidTitle) ||
		errors.Is(err, subscriptiondomain.ErrInvalidAmount) ||
		errors.Is(err, subscriptiondomain.ErrInvalidCurrency) ||
		errors.Is(err, subscriptiondomain.ErrInvalidBillingDay) ||
		errors.Is(err, subscriptiondomain.ErrInvalidShareValue) ||
		errors.Is(err, subscriptiondomain.ErrSubscriptionInactive) ||
		errors.Is(err, chargedomain.ErrInvalidPeriod) ||
		errors.Is(err, paymentdomain.ErrInvalidAmount) ||
		errors.Is(err, paymentdomain.ErrInvalidCurrency) ||
		errors.Is(err, paymentdomain.ErrInvalidScheduledDate) ||
		errors.Is(err, share.ErrMissingShareValue) ||
		errors.Is(err, share.ErrNoActiveParticipants)
}

func isConflictError(err error) bool {
	return errors.Is(err, userdomain.ErrDuplicateEmail) ||
		errors.Is(err, subscriptiondomain.ErrDuplicateParticipant) ||
		errors.Is(err, paymentdomain.ErrDuplicateScheduledDate) ||
		errors.Is(err, paymentdomain.ErrNoAvailableDateWithinWindow) ||
		errors.Is(err, paymentdomain.ErrPaymentExceedsAmountDue) ||
		errors.Is(err, share.ErrShareSumMismatch)
}
