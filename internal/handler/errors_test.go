package handler

import (
	"fmt"
	"net/http"
	"testing"

	"millorders/internal/order"
	"millorders/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{order.ValidationErrors{{Code: order.CodeMissingItems}}, http.StatusUnprocessableEntity},
		{order.ErrMissingNotes, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", order.ErrInvalidDiscount), http.StatusUnprocessableEntity},
		{order.ErrInvalidPayment, http.StatusUnprocessableEntity},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{order.ErrPermissionDenied, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrOrderNotFound, http.StatusNotFound},
		{service.ErrVisitNotFound, http.StatusNotFound},
		{fmt.Errorf("x: %w", order.ErrInvalidTransition), http.StatusConflict},
		{service.ErrOrderLocked, http.StatusConflict},
		{order.ErrEmptyOrder, http.StatusConflict},
		{service.ErrDuplicateUser, http.StatusConflict},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
