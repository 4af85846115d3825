package api

import (
	"pharmacy-coverage/internal/middleware"
	"pharmacy-coverage/internal/services"
)

// Handler holds the services behind the HTTP surface
type Handler struct {
	Catalog      *services.PricingCatalog
	Ledger       services.LedgerClient
	Reconciler   *services.ReconciliationService
	Verifier     *services.VerificationService
	History      *services.HistoryService
	Orchestrator *services.PurchaseOrchestrator
	AccountFeed  *middleware.AccountFeed
}
