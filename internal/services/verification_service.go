package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

// CoverageVerification is the answer to a coverage check
type CoverageVerification struct {
	Medication models.Medication
	Coverage   models.Coverage
	Source     Source
}

// VerificationService answers "what do I owe for this medication".
// The ledger's coverage is authoritative; when it is unreachable the split is
// computed locally from the catalog price and the reconciled insurance status.
type VerificationService struct {
	ledger     LedgerClient
	catalog    *PricingCatalog
	reconciler *ReconciliationService
}

// NewVerificationService creates the service
func NewVerificationService(ledger LedgerClient, catalog *PricingCatalog, reconciler *ReconciliationService) *VerificationService {
	return &VerificationService{ledger: ledger, catalog: catalog, reconciler: reconciler}
}

// VerifyCoverage returns the coverage of medicationID for address
func (s *VerificationService) VerifyCoverage(ctx context.Context, medicationID, address string) (CoverageVerification, error) {
	medicationID = strings.TrimSpace(medicationID)
	address = strings.TrimSpace(address)
	if medicationID == "" || address == "" {
		return CoverageVerification{}, fmt.Errorf("%w: medication id and address are required", ErrInvalidInput)
	}

	coverage, err := s.ledger.FetchMedicationCoverage(ctx, medicationID, address)
	if err == nil {
		return CoverageVerification{
			Medication: s.medicationDetails(ctx, medicationID),
			Coverage:   coverage,
			Source:     SourceRemote,
		}, nil
	}
	if !errors.Is(err, ErrRemoteUnavailable) {
		return CoverageVerification{}, err
	}

	logging.Warnf("Ledger unavailable for coverage of %s, computing locally: %v", medicationID, err)

	med, err := s.catalog.Medication(medicationID)
	if err != nil {
		return CoverageVerification{}, err
	}
	status, _, err := s.reconciler.InsuranceStatus(ctx, address)
	if err != nil {
		return CoverageVerification{}, err
	}
	coverage, err = CoverageForStatus(med.OriginalPrice, status)
	if err != nil {
		return CoverageVerification{}, err
	}

	return CoverageVerification{Medication: med, Coverage: coverage, Source: SourceLocal}, nil
}

// medicationDetails prefers catalog data and asks the ledger for medications the catalog lacks
func (s *VerificationService) medicationDetails(ctx context.Context, medicationID string) models.Medication {
	if med, err := s.catalog.Medication(medicationID); err == nil {
		return med
	}
	med, err := s.ledger.FetchMedication(ctx, medicationID)
	if err != nil {
		logging.Warnf("Unable to fetch details of medication %s: %v", medicationID, err)
		return models.Medication{ID: medicationID}
	}
	return med
}
