package services

import (
	"context"

	"pharmacy-coverage/internal/models"
)

// Receipt confirms a purchase accepted by the ledger
type Receipt struct {
	Hash string `json:"hash"`
}

// LedgerClient is the authoritative remote ledger. It holds no local state;
// every call reflects the ledger at call time.
//
// Failures to complete a call (network, timeout, protocol) wrap
// ErrRemoteUnavailable. A completed call may instead fail with ErrNotFound or,
// for submissions, ErrPurchaseRejected.
type LedgerClient interface {
	FetchPlans(ctx context.Context) ([]models.InsurancePlan, error)
	FetchUserInsurance(ctx context.Context, address string) (models.UserInsuranceStatus, error)
	IsMedicationAvailable(ctx context.Context, medicationID string) (bool, error)
	FetchMedication(ctx context.Context, medicationID string) (models.Medication, error)
	FetchMedicationCoverage(ctx context.Context, medicationID, address string) (models.Coverage, error)
	SubmitInsurancePurchase(ctx context.Context, address string, planType models.PlanType, amount int64) (Receipt, error)
	SubmitMedicationPurchase(ctx context.Context, address, medicationID string, amount int64) (Receipt, error)
	FetchPurchaseHistory(ctx context.Context, address string) ([]models.TransactionRecord, error)
}
