package api

import (
	"fmt"
	"net/http"

	"pharmacy-coverage/internal/middleware"
	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/internal/services"
	"pharmacy-coverage/pkg/money"

	"github.com/gin-gonic/gin"
)

// PurchaseInsuranceRequest represents insurance purchase request
type PurchaseInsuranceRequest struct {
	PlanType string `json:"planType" binding:"required"` // basic, standard or premium
	Price    string `json:"price" binding:"required"`    // decimal, e.g. "0.02"
}

// PurchaseMedicationRequest represents medication purchase request
type PurchaseMedicationRequest struct {
	MedicationID string `json:"medicationId" binding:"required"`
	Amount       string `json:"amount" binding:"required"` // co-pay due, decimal
}

// PurchaseResponse represents purchase response
type PurchaseResponse struct {
	Success     bool             `json:"success"`
	Message     string           `json:"message"`
	Warning     string           `json:"warning,omitempty"`
	Transaction *TransactionView `json:"transaction,omitempty"`
}

// PurchaseInsurance buys an insurance plan for the caller
// POST /api/purchases/insurance
func (h *Handler) PurchaseInsurance(c *gin.Context) {
	var req PurchaseInsuranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request format: %v", services.ErrInvalidInput, err))
		return
	}

	planType, ok := planTypeParam(req.PlanType)
	if !ok {
		writeError(c, fmt.Errorf("%w: unknown plan type %q", services.ErrInvalidInput, req.PlanType))
		return
	}
	price, err := money.Parse(req.Price)
	if err != nil {
		writeError(c, err)
		return
	}

	rec, err := h.Orchestrator.PurchaseInsurance(c.Request.Context(), middleware.AccountAddress(c), planType, price)
	h.writePurchase(c, rec, err, "Insurance purchased")
}

// PurchaseMedication buys a medication paying the caller's co-pay
// POST /api/purchases/medication
func (h *Handler) PurchaseMedication(c *gin.Context) {
	var req PurchaseMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request format: %v", services.ErrInvalidInput, err))
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	rec, err := h.Orchestrator.PurchaseMedication(c.Request.Context(), middleware.AccountAddress(c), req.MedicationID, amount)
	h.writePurchase(c, rec, err, "Medication purchased")
}

func (h *Handler) writePurchase(c *gin.Context, rec models.TransactionRecord, err error, message string) {
	if err != nil && rec.Hash == "" {
		writeError(c, err)
		return
	}

	views := newTransactionViews([]models.TransactionRecord{rec})
	resp := PurchaseResponse{
		Success:     true,
		Message:     message,
		Transaction: &views[0],
	}
	// confirmed by the ledger but the local log could not be saved
	if err != nil {
		resp.Warning = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
