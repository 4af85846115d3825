package api

import (
	"net/http"

	"pharmacy-coverage/internal/middleware"

	"github.com/gin-gonic/gin"
)

// InsuranceStatusResponse represents insurance status response
type InsuranceStatusResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Source  string              `json:"source"`
	Status  InsuranceStatusView `json:"status"`
}

// GetInsuranceStatus returns the caller's reconciled insurance status
// GET /api/insurance/status
func (h *Handler) GetInsuranceStatus(c *gin.Context) {
	status, source, err := h.Reconciler.InsuranceStatus(c.Request.Context(), middleware.AccountAddress(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, InsuranceStatusResponse{
		Success: true,
		Source:  string(source),
		Status:  newInsuranceStatusView(status),
	})
}
