package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"pharmacy-coverage/internal/models"
)

// Compile-time check to ensure MockLedgerClient implements LedgerClient
var _ LedgerClient = (*MockLedgerClient)(nil)

// MockLedgerClient is a function-field mock of LedgerClient.
// Unset functions report the ledger as unavailable.
type MockLedgerClient struct {
	FetchPlansFunc               func(ctx context.Context) ([]models.InsurancePlan, error)
	FetchUserInsuranceFunc       func(ctx context.Context, address string) (models.UserInsuranceStatus, error)
	IsMedicationAvailableFunc    func(ctx context.Context, medicationID string) (bool, error)
	FetchMedicationFunc          func(ctx context.Context, medicationID string) (models.Medication, error)
	FetchMedicationCoverageFunc  func(ctx context.Context, medicationID, address string) (models.Coverage, error)
	SubmitInsurancePurchaseFunc  func(ctx context.Context, address string, planType models.PlanType, amount int64) (Receipt, error)
	SubmitMedicationPurchaseFunc func(ctx context.Context, address, medicationID string, amount int64) (Receipt, error)
	FetchPurchaseHistoryFunc     func(ctx context.Context, address string) ([]models.TransactionRecord, error)

	SubmitCallCount int32
}

var errMockUnavailable = fmt.Errorf("%w: mock offline", ErrRemoteUnavailable)

func (m *MockLedgerClient) FetchPlans(ctx context.Context) ([]models.InsurancePlan, error) {
	if m.FetchPlansFunc != nil {
		return m.FetchPlansFunc(ctx)
	}
	return nil, errMockUnavailable
}

func (m *MockLedgerClient) FetchUserInsurance(ctx context.Context, address string) (models.UserInsuranceStatus, error) {
	if m.FetchUserInsuranceFunc != nil {
		return m.FetchUserInsuranceFunc(ctx, address)
	}
	return models.UserInsuranceStatus{}, errMockUnavailable
}

func (m *MockLedgerClient) IsMedicationAvailable(ctx context.Context, medicationID string) (bool, error) {
	if m.IsMedicationAvailableFunc != nil {
		return m.IsMedicationAvailableFunc(ctx, medicationID)
	}
	return false, errMockUnavailable
}

func (m *MockLedgerClient) FetchMedication(ctx context.Context, medicationID string) (models.Medication, error) {
	if m.FetchMedicationFunc != nil {
		return m.FetchMedicationFunc(ctx, medicationID)
	}
	return models.Medication{}, errMockUnavailable
}

func (m *MockLedgerClient) FetchMedicationCoverage(ctx context.Context, medicationID, address string) (models.Coverage, error) {
	if m.FetchMedicationCoverageFunc != nil {
		return m.FetchMedicationCoverageFunc(ctx, medicationID, address)
	}
	return models.Coverage{}, errMockUnavailable
}

func (m *MockLedgerClient) SubmitInsurancePurchase(ctx context.Context, address string, planType models.PlanType, amount int64) (Receipt, error) {
	atomic.AddInt32(&m.SubmitCallCount, 1)
	if m.SubmitInsurancePurchaseFunc != nil {
		return m.SubmitInsurancePurchaseFunc(ctx, address, planType, amount)
	}
	return Receipt{}, errMockUnavailable
}

func (m *MockLedgerClient) SubmitMedicationPurchase(ctx context.Context, address, medicationID string, amount int64) (Receipt, error) {
	atomic.AddInt32(&m.SubmitCallCount, 1)
	if m.SubmitMedicationPurchaseFunc != nil {
		return m.SubmitMedicationPurchaseFunc(ctx, address, medicationID, amount)
	}
	return Receipt{}, errMockUnavailable
}

func (m *MockLedgerClient) FetchPurchaseHistory(ctx context.Context, address string) ([]models.TransactionRecord, error) {
	if m.FetchPurchaseHistoryFunc != nil {
		return m.FetchPurchaseHistoryFunc(ctx, address)
	}
	return nil, errMockUnavailable
}
