package api

import (
	"net/http"

	"pharmacy-coverage/internal/middleware"

	"github.com/gin-gonic/gin"
)

// TransactionHistoryResponse represents transaction history response
type TransactionHistoryResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	Source       string            `json:"source,omitempty"`
	Transactions []TransactionView `json:"transactions"`
}

// GetTransactionHistory lists the caller's purchases, newest first
// GET /api/transactions
func (h *Handler) GetTransactionHistory(c *gin.Context) {
	records, source, err := h.History.PurchaseHistory(c.Request.Context(), middleware.AccountAddress(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionHistoryResponse{
		Success:      true,
		Source:       string(source),
		Transactions: newTransactionViews(records),
	})
}

// GetLocalTransactions returns the caller's local transaction log entries in append order
// GET /api/transactions/local
func (h *Handler) GetLocalTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, TransactionHistoryResponse{
		Success:      true,
		Source:       "local",
		Transactions: newTransactionViews(h.History.LocalLog(middleware.AccountAddress(c))),
	})
}
