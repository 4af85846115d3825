package services

import (
	"context"
	"testing"

	"pharmacy-coverage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashes(records []models.TransactionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Hash
	}
	return out
}

func TestPurchaseHistoryPrefersRemote(t *testing.T) {
	ledger := &MockLedgerClient{
		FetchPurchaseHistoryFunc: func(context.Context, string) ([]models.TransactionRecord, error) {
			return []models.TransactionRecord{
				insuranceRecord("0xr1", models.PlanBasic, 10),
				medicationRecord("0xr2", "MED001", 30),
				medicationRecord("0xr3", "MED002", 20),
			}, nil
		},
	}
	svc := NewHistoryService(ledger, newTestLog(t, medicationRecord("0xlocal", "MED001", 99)))

	records, source, err := svc.PurchaseHistory(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	assert.Equal(t, []string{"0xr2", "0xr3", "0xr1"}, hashes(records))
}

func TestPurchaseHistoryFallsBackToLocalLog(t *testing.T) {
	other := medicationRecord("0xother", "MED001", 50)
	other.Details.Account = "0x2222222222222222222222222222222222222222"
	log := newTestLog(t,
		medicationRecord("0x1", "MED001", 10),
		other,
		insuranceRecord("0x2", models.PlanBasic, 30),
		medicationRecord("0x3", "MED002", 30),
	)
	svc := NewHistoryService(&MockLedgerClient{}, log)

	records, source, err := svc.PurchaseHistory(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, source)
	// equal timestamps: later append first
	assert.Equal(t, []string{"0x3", "0x2", "0x1"}, hashes(records))

	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, hashes(svc.LocalLog(testAddress)))
	assert.Equal(t, []string{"0x1", "0xother", "0x2", "0x3"}, hashes(svc.LocalLog(other.Details.Account)))
}

func TestPurchaseHistoryRequiresAddress(t *testing.T) {
	svc := NewHistoryService(&MockLedgerClient{}, newTestLog(t))
	_, _, err := svc.PurchaseHistory(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
