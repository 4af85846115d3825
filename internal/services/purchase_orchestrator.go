package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

const (
	purchaseKindInsurance  = "insurance"
	purchaseKindMedication = "medication"
)

// PurchaseOrchestrator submits purchases to the ledger and records confirmed
// ones in the local log. A record is appended only after the ledger confirms,
// and exactly once per receipt hash.
type PurchaseOrchestrator struct {
	ledger LedgerClient
	log    *TransactionLog
	guard  *InFlightGuard
	now    func() time.Time
}

// NewPurchaseOrchestrator creates the orchestrator; now defaults to time.Now
func NewPurchaseOrchestrator(ledger LedgerClient, log *TransactionLog, guard *InFlightGuard, now func() time.Time) *PurchaseOrchestrator {
	if guard == nil {
		guard = NewInFlightGuard()
	}
	if now == nil {
		now = time.Now
	}
	return &PurchaseOrchestrator{ledger: ledger, log: log, guard: guard, now: now}
}

// PurchaseInsurance buys planType for caller, paying price
func (o *PurchaseOrchestrator) PurchaseInsurance(ctx context.Context, caller string, planType models.PlanType, price int64) (models.TransactionRecord, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return models.TransactionRecord{}, fmt.Errorf("%w: caller address is required", ErrInvalidInput)
	}
	if !planType.Purchasable() {
		return models.TransactionRecord{}, fmt.Errorf("%w: plan type %q is not purchasable", ErrInvalidInput, planType)
	}
	if price <= 0 {
		return models.TransactionRecord{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	return o.execute(ctx, caller, purchaseKindInsurance, string(planType),
		func(ctx context.Context) (Receipt, error) {
			return o.ledger.SubmitInsurancePurchase(ctx, caller, planType, price)
		},
		models.TransactionRecord{
			Type:    models.InsurancePurchase,
			Details: models.TransactionDetails{PlanType: planType, Amount: price, Account: caller},
		})
}

// PurchaseMedication buys medicationID for caller, paying amountDue
func (o *PurchaseOrchestrator) PurchaseMedication(ctx context.Context, caller, medicationID string, amountDue int64) (models.TransactionRecord, error) {
	caller = strings.TrimSpace(caller)
	medicationID = strings.TrimSpace(medicationID)
	if caller == "" {
		return models.TransactionRecord{}, fmt.Errorf("%w: caller address is required", ErrInvalidInput)
	}
	if medicationID == "" {
		return models.TransactionRecord{}, fmt.Errorf("%w: medication id is required", ErrInvalidInput)
	}
	if amountDue < 0 {
		return models.TransactionRecord{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	return o.execute(ctx, caller, purchaseKindMedication, medicationID,
		func(ctx context.Context) (Receipt, error) {
			return o.ledger.SubmitMedicationPurchase(ctx, caller, medicationID, amountDue)
		},
		models.TransactionRecord{
			Type:    models.MedicationPurchase,
			Details: models.TransactionDetails{MedicationID: medicationID, Amount: amountDue, Account: caller},
		})
}

// execute runs guard -> submit -> append. Once submitted, the purchase is
// awaited to completion even if ctx is cancelled.
func (o *PurchaseOrchestrator) execute(ctx context.Context, caller, kind, target string, submit func(context.Context) (Receipt, error), rec models.TransactionRecord) (models.TransactionRecord, error) {
	release, err := o.guard.Acquire(caller, kind, target)
	if err != nil {
		return models.TransactionRecord{}, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return models.TransactionRecord{}, err
	}
	ctx = context.WithoutCancel(ctx)

	receipt, err := submit(ctx)
	if err != nil {
		logging.Errorf("Purchase failed - caller: %s, %s: %s, error: %v", caller, kind, target, err)
		return models.TransactionRecord{}, fmt.Errorf("%s purchase of %s failed: %w", kind, target, err)
	}
	if receipt.Hash == "" {
		return models.TransactionRecord{}, fmt.Errorf("%s purchase of %s failed: %w: empty receipt hash", kind, target, ErrRemoteUnavailable)
	}

	rec.Hash = receipt.Hash
	rec.Timestamp = o.now().UnixMilli()

	added, err := o.log.Append(ctx, rec)
	if err != nil {
		logging.Errorf("Purchase %s confirmed but not recorded locally: %v", receipt.Hash, err)
		return rec, fmt.Errorf("purchase %s confirmed but not recorded: %w", receipt.Hash, err)
	}
	if added {
		logging.Infof("Purchase recorded - caller: %s, %s: %s, hash: %s", caller, kind, target, receipt.Hash)
	}
	return rec, nil
}
