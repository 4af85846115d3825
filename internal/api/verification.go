package api

import (
	"fmt"
	"net/http"

	"pharmacy-coverage/internal/services"

	"github.com/gin-gonic/gin"
)

// VerifyCoverageRequest represents coverage verification request
type VerifyCoverageRequest struct {
	MedicationID string `json:"medicationId" binding:"required"`
	UserAddress  string `json:"userAddress" binding:"required"`
}

// VerifyCoverageResponse represents coverage verification response
type VerifyCoverageResponse struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Source     string          `json:"source,omitempty"`
	Medication *MedicationView `json:"medication,omitempty"`
	Coverage   *CoverageView   `json:"coverage,omitempty"`
}

// VerifyCoverage returns what the user pays for a medication
// POST /api/verification
func (h *Handler) VerifyCoverage(c *gin.Context) {
	var req VerifyCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request format: %v", services.ErrInvalidInput, err))
		return
	}

	result, err := h.Verifier.VerifyCoverage(c.Request.Context(), req.MedicationID, req.UserAddress)
	if err != nil {
		writeError(c, err)
		return
	}

	medication := newMedicationView(result.Medication)
	coverage := newCoverageView(result.Coverage)
	c.JSON(http.StatusOK, VerifyCoverageResponse{
		Success:    true,
		Message:    "Coverage verified",
		Source:     string(result.Source),
		Medication: &medication,
		Coverage:   &coverage,
	})
}
