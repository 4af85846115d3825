package api

import (
	"errors"
	"net/http"

	"pharmacy-coverage/internal/response"
	"pharmacy-coverage/internal/services"
	"pharmacy-coverage/pkg/logging"
	"pharmacy-coverage/pkg/money"

	"github.com/gin-gonic/gin"
)

// statusForError maps service errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, money.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrPurchaseRejected):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrAlreadyInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Errorf("Request failed - %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.ErrorJSON(c, status, "Internal error")
		return
	}
	response.ErrorJSON(c, status, err.Error())
}
