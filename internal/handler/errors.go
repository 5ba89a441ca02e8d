package handler

import (
	"errors"
	"net/http"

	"millorders/internal/order"
	"millorders/internal/service"
	"millorders/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	var verrs order.ValidationErrors
	switch {
	case errors.As(err, &verrs),
		errors.Is(err, order.ErrMissingNotes),
		errors.Is(err, order.ErrInvalidDiscount),
		errors.Is(err, order.ErrInvalidTax),
		errors.Is(err, order.ErrInvalidPayment),
		errors.Is(err, service.ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrVisitNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, service.ErrOrderLocked),
		errors.Is(err, service.ErrInvalidVisitTransition),
		errors.Is(err, service.ErrDuplicateUser):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err in the standard envelope. Validation failures carry
// every failed check in details; internal errors hide their message.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var verrs order.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(status, response.ErrorWithDetails(status, "Validation failed", []order.ValidationError(verrs)))
		return
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
