package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/money"

	"github.com/google/uuid"
)

// SimulatedLedger is an in-process LedgerClient with the insurance contract's rules.
// It backs development setups without a gateway and can be switched offline to
// exercise the local fallbacks.
type SimulatedLedger struct {
	mutex       sync.Mutex
	catalog     *PricingCatalog
	insurance   map[string]models.UserInsuranceStatus
	history     map[string][]models.TransactionRecord
	unavailable bool
	now         func() time.Time
}

// NewSimulatedLedger creates an empty ledger over the catalog
func NewSimulatedLedger(catalog *PricingCatalog, now func() time.Time) *SimulatedLedger {
	if now == nil {
		now = time.Now
	}
	return &SimulatedLedger{
		catalog:   catalog,
		insurance: make(map[string]models.UserInsuranceStatus),
		history:   make(map[string][]models.TransactionRecord),
		now:       now,
	}
}

// SetUnavailable makes every call fail with ErrRemoteUnavailable until reset
func (l *SimulatedLedger) SetUnavailable(unavailable bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.unavailable = unavailable
}

func (l *SimulatedLedger) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if l.unavailable {
		return fmt.Errorf("%w: simulated outage", ErrRemoteUnavailable)
	}
	return nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// statusLocked derives the current status; caller holds the mutex
func (l *SimulatedLedger) statusLocked(address string) models.UserInsuranceStatus {
	status, ok := l.insurance[normalizeAddress(address)]
	if !ok {
		return models.NoInsurance()
	}
	status.HasActiveInsurance = status.ActiveAt(l.now())
	return status
}

// FetchPlans returns the catalog plans
func (l *SimulatedLedger) FetchPlans(ctx context.Context) ([]models.InsurancePlan, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	return l.catalog.Plans(), nil
}

// FetchUserInsurance returns the user's current insurance
func (l *SimulatedLedger) FetchUserInsurance(ctx context.Context, address string) (models.UserInsuranceStatus, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return models.UserInsuranceStatus{}, err
	}
	return l.statusLocked(address), nil
}

// IsMedicationAvailable reports whether the medication is listed
func (l *SimulatedLedger) IsMedicationAvailable(ctx context.Context, medicationID string) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return false, err
	}
	_, err := l.catalog.Medication(medicationID)
	return err == nil, nil
}

// FetchMedication returns the listed medication
func (l *SimulatedLedger) FetchMedication(ctx context.Context, medicationID string) (models.Medication, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return models.Medication{}, err
	}
	return l.catalog.Medication(medicationID)
}

// FetchMedicationCoverage applies the user's current plan to the medication price
func (l *SimulatedLedger) FetchMedicationCoverage(ctx context.Context, medicationID, address string) (models.Coverage, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return models.Coverage{}, err
	}
	med, err := l.catalog.Medication(medicationID)
	if err != nil {
		return models.Coverage{}, err
	}
	return CoverageForStatus(med.OriginalPrice, l.statusLocked(address))
}

// SubmitInsurancePurchase activates the plan when amount equals its price
func (l *SimulatedLedger) SubmitInsurancePurchase(ctx context.Context, address string, planType models.PlanType, amount int64) (Receipt, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return Receipt{}, err
	}

	plan, err := l.catalog.Plan(planType)
	if err != nil {
		return Receipt{}, err
	}
	if !plan.IsActive {
		return Receipt{}, fmt.Errorf("%w: plan %s is not active", ErrPurchaseRejected, planType)
	}
	if amount != plan.Price {
		return Receipt{}, fmt.Errorf("%w: plan %s costs %s, got %s", ErrPurchaseRejected, planType, money.Format(plan.Price), money.Format(amount))
	}

	now := l.now()
	key := normalizeAddress(address)
	l.insurance[key] = models.UserInsuranceStatus{
		PlanType:  planType,
		StartTime: now,
		EndTime:   now.Add(plan.Duration()),
		IsActive:  true,
	}

	receipt := Receipt{Hash: newTransactionHash()}
	l.history[key] = append(l.history[key], models.TransactionRecord{
		Hash:      receipt.Hash,
		Type:      models.InsurancePurchase,
		Details:   models.TransactionDetails{PlanType: planType, Amount: amount, Account: address},
		Timestamp: now.UnixMilli(),
	})
	return receipt, nil
}

// SubmitMedicationPurchase records the purchase when amount equals the user's co-pay
func (l *SimulatedLedger) SubmitMedicationPurchase(ctx context.Context, address, medicationID string, amount int64) (Receipt, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return Receipt{}, err
	}

	med, err := l.catalog.Medication(medicationID)
	if err != nil {
		return Receipt{}, err
	}
	coverage, err := CoverageForStatus(med.OriginalPrice, l.statusLocked(address))
	if err != nil {
		return Receipt{}, err
	}
	if amount != coverage.CoPayAmount {
		return Receipt{}, fmt.Errorf("%w: amount due for %s is %s, got %s", ErrPurchaseRejected, med.ID, money.Format(coverage.CoPayAmount), money.Format(amount))
	}

	key := normalizeAddress(address)
	receipt := Receipt{Hash: newTransactionHash()}
	l.history[key] = append(l.history[key], models.TransactionRecord{
		Hash:      receipt.Hash,
		Type:      models.MedicationPurchase,
		Details:   models.TransactionDetails{MedicationID: med.ID, Amount: amount, Account: address},
		Timestamp: l.now().UnixMilli(),
	})
	return receipt, nil
}

// FetchPurchaseHistory returns the user's purchases in submission order
func (l *SimulatedLedger) FetchPurchaseHistory(ctx context.Context, address string) ([]models.TransactionRecord, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err := l.check(ctx); err != nil {
		return nil, err
	}
	return append([]models.TransactionRecord(nil), l.history[normalizeAddress(address)]...), nil
}

// newTransactionHash returns a 32-byte hex hash in the 0x-prefixed form used by the chain
func newTransactionHash() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return "0x" + hex.EncodeToString(sum[:])
}
