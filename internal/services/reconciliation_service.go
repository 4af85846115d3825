package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

// Source tells where a reconciled answer came from
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

const millisPerDay = int64(24 * time.Hour / time.Millisecond)

// ReconciliationService derives the user's insurance status from the remote
// ledger, falling back to the local transaction log when the ledger is
// unreachable. The two sources are never combined.
type ReconciliationService struct {
	ledger  LedgerClient
	log     *TransactionLog
	catalog *PricingCatalog
	now     func() time.Time
}

// NewReconciliationService creates the service; now defaults to time.Now
func NewReconciliationService(ledger LedgerClient, log *TransactionLog, catalog *PricingCatalog, now func() time.Time) *ReconciliationService {
	if now == nil {
		now = time.Now
	}
	return &ReconciliationService{ledger: ledger, log: log, catalog: catalog, now: now}
}

// InsuranceStatus returns the ledger's answer when it responds, otherwise the
// status projected from the most recent local insurance purchase.
func (s *ReconciliationService) InsuranceStatus(ctx context.Context, address string) (models.UserInsuranceStatus, Source, error) {
	if strings.TrimSpace(address) == "" {
		return models.UserInsuranceStatus{}, "", fmt.Errorf("%w: address is required", ErrInvalidInput)
	}

	status, err := s.ledger.FetchUserInsurance(ctx, address)
	if err == nil {
		return status, SourceRemote, nil
	}
	if !errors.Is(err, ErrRemoteUnavailable) {
		return models.UserInsuranceStatus{}, "", err
	}

	logging.Warnf("Ledger unavailable for insurance status of %s, using local log: %v", address, err)
	return s.localStatus(address), SourceLocal, nil
}

// localStatus projects the latest local insurance purchase of address.
// Ties on timestamp go to the record appended last.
func (s *ReconciliationService) localStatus(address string) models.UserInsuranceStatus {
	var (
		latest models.TransactionRecord
		plan   models.InsurancePlan
		found  bool
	)
	for _, rec := range s.log.OfType(models.InsurancePurchase) {
		if !ownedBy(rec, address) {
			continue
		}
		p, err := s.catalog.Plan(rec.Details.PlanType)
		if err != nil {
			logging.Warnf("Ignoring local insurance purchase %s with unknown plan %q", rec.Hash, rec.Details.PlanType)
			continue
		}
		if !found || rec.Timestamp >= latest.Timestamp {
			latest, plan, found = rec, p, true
		}
	}
	if !found {
		return models.NoInsurance()
	}

	endMillis := latest.Timestamp + int64(plan.DurationDays)*millisPerDay
	return models.UserInsuranceStatus{
		PlanType:           plan.PlanType,
		StartTime:          time.UnixMilli(latest.Timestamp),
		EndTime:            time.UnixMilli(endMillis),
		IsActive:           true,
		HasActiveInsurance: s.now().UnixMilli() < endMillis,
	}
}

// ownedBy reports whether rec belongs to address. Records written without an
// account predate per-account logging and belong to the session owner.
func ownedBy(rec models.TransactionRecord, address string) bool {
	return rec.Details.Account == "" || strings.EqualFold(rec.Details.Account, strings.TrimSpace(address))
}
