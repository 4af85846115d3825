package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedLedgerInsuranceLifecycle(t *testing.T) {
	now := testNow
	ledger := NewSimulatedLedger(DefaultPricingCatalog(), func() time.Time { return now })
	ctx := context.Background()

	status, err := ledger.FetchUserInsurance(ctx, testAddress)
	require.NoError(t, err)
	assert.False(t, status.HasActiveInsurance)

	_, err = ledger.SubmitInsurancePurchase(ctx, testAddress, models.PlanBasic, money.MustParse("0.02"))
	assert.ErrorIs(t, err, ErrPurchaseRejected)

	receipt, err := ledger.SubmitInsurancePurchase(ctx, testAddress, models.PlanBasic, money.MustParse("0.01"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.Hash, "0x"))
	assert.Len(t, receipt.Hash, 66)

	// addresses are case-insensitive
	status, err = ledger.FetchUserInsurance(ctx, strings.ToUpper(testAddress))
	require.NoError(t, err)
	assert.True(t, status.HasActiveInsurance)
	assert.Equal(t, models.PlanBasic, status.PlanType)

	now = testNow.Add(31 * 24 * time.Hour)
	status, err = ledger.FetchUserInsurance(ctx, testAddress)
	require.NoError(t, err)
	assert.False(t, status.HasActiveInsurance)
}

func TestSimulatedLedgerMedicationPurchaseRequiresCoPay(t *testing.T) {
	ledger := NewSimulatedLedger(DefaultPricingCatalog(), fixedClock(testNow))
	ctx := context.Background()

	_, err := ledger.SubmitInsurancePurchase(ctx, testAddress, models.PlanPremium, money.MustParse("0.03"))
	require.NoError(t, err)

	coverage, err := ledger.FetchMedicationCoverage(ctx, "MED002", testAddress)
	require.NoError(t, err)
	assert.Equal(t, 90, coverage.CoveragePercentage)

	_, err = ledger.SubmitMedicationPurchase(ctx, testAddress, "MED002", coverage.OriginalPrice)
	assert.ErrorIs(t, err, ErrPurchaseRejected)

	_, err = ledger.SubmitMedicationPurchase(ctx, testAddress, "MED002", coverage.CoPayAmount)
	require.NoError(t, err)

	_, err = ledger.SubmitMedicationPurchase(ctx, testAddress, "MED999", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := ledger.FetchPurchaseHistory(ctx, testAddress)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.InsurancePurchase, history[0].Type)
	assert.Equal(t, models.MedicationPurchase, history[1].Type)
}

func TestSimulatedLedgerOutage(t *testing.T) {
	ledger := NewSimulatedLedger(DefaultPricingCatalog(), fixedClock(testNow))
	ledger.SetUnavailable(true)

	_, err := ledger.FetchPlans(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	_, err = ledger.SubmitMedicationPurchase(context.Background(), testAddress, "MED001", 1)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	ledger.SetUnavailable(false)
	available, err := ledger.IsMedicationAvailable(context.Background(), "med001")
	require.NoError(t, err)
	assert.True(t, available)
}
