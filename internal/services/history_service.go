package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

// HistoryService lists a user's purchases, newest first. The ledger is
// authoritative; the local log is used only while the ledger is unreachable.
type HistoryService struct {
	ledger LedgerClient
	log    *TransactionLog
}

// NewHistoryService creates the service
func NewHistoryService(ledger LedgerClient, log *TransactionLog) *HistoryService {
	return &HistoryService{ledger: ledger, log: log}
}

// PurchaseHistory returns the user's purchases sorted by timestamp, newest first
func (s *HistoryService) PurchaseHistory(ctx context.Context, address string) ([]models.TransactionRecord, Source, error) {
	if strings.TrimSpace(address) == "" {
		return nil, "", fmt.Errorf("%w: address is required", ErrInvalidInput)
	}

	records, err := s.ledger.FetchPurchaseHistory(ctx, address)
	source := SourceRemote
	if err != nil {
		if !errors.Is(err, ErrRemoteUnavailable) {
			return nil, "", err
		}
		logging.Warnf("Ledger unavailable for purchase history of %s, using local log: %v", address, err)

		records = nil
		for _, rec := range s.log.All() {
			if ownedBy(rec, address) {
				records = append(records, rec)
			}
		}
		source = SourceLocal
	}

	sortNewestFirst(records)
	return records, source, nil
}

// LocalLog returns the address's entries of the local log in append order
func (s *HistoryService) LocalLog(address string) []models.TransactionRecord {
	records := make([]models.TransactionRecord, 0)
	for _, rec := range s.log.All() {
		if ownedBy(rec, address) {
			records = append(records, rec)
		}
	}
	return records
}

// sortNewestFirst orders by timestamp descending; equal timestamps keep the later-appended record first
func sortNewestFirst(records []models.TransactionRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
}
