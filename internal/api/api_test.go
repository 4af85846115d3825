package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharmacy-coverage/internal/database"
	"pharmacy-coverage/internal/middleware"
	"pharmacy-coverage/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "0x1111111111111111111111111111111111111111"

type testServer struct {
	router *gin.Engine
	ledger *services.SimulatedLedger
	log    *services.TransactionLog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, database.NewMemoryBlobStore())
}

func newTestServerWithStore(t *testing.T, store database.BlobStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	catalog := services.DefaultPricingCatalog()
	ledger := services.NewSimulatedLedger(catalog, now)
	log, err := services.LoadTransactionLog(context.Background(), store, "")
	require.NoError(t, err)

	reconciler := services.NewReconciliationService(ledger, log, catalog, now)
	feed := middleware.NewAccountFeed()
	t.Cleanup(feed.Stop)
	h := &Handler{
		Catalog:      catalog,
		Ledger:       ledger,
		Reconciler:   reconciler,
		Verifier:     services.NewVerificationService(ledger, catalog, reconciler),
		History:      services.NewHistoryService(ledger, log),
		Orchestrator: services.NewPurchaseOrchestrator(ledger, log, services.NewInFlightGuard(), now),
		AccountFeed:  feed,
	}

	r := gin.New()
	SetupRoutes(r, h)
	return &testServer{router: r, ledger: ledger, log: log}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	return s.doAs(t, testAccount, method, path, body)
}

func (s *testServer) doAs(t *testing.T, account, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if account != "" {
		req.Header.Set("X-Account-Address", account)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetMedications(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/medications?search=amox", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	med := data[0].(map[string]interface{})
	assert.Equal(t, "MED002", med["id"])
	assert.Equal(t, "0.01", med["price"])

	_, body = s.do(t, http.MethodGet, "/api/medications", nil)
	assert.Len(t, body["data"], 5)

	code, body = s.do(t, http.MethodGet, "/api/medications?id=nope", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])
}

func TestGetMedicationAvailability(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodGet, "/api/medications/MED001/availability", nil)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, "remote", body["source"])

	s.ledger.SetUnavailable(true)
	_, body = s.do(t, http.MethodGet, "/api/medications/MED404/availability", nil)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, "local", body["source"])
}

func TestGetPlans(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "remote", body["source"])
	plans := body["data"].([]interface{})
	require.Len(t, plans, 3)
	standard := plans[1].(map[string]interface{})
	assert.Equal(t, "Standard", standard["planType"])
	assert.Equal(t, float64(80), standard["coveragePercentage"])
	assert.Equal(t, "0.02", standard["price"])

	s.ledger.SetUnavailable(true)
	_, body = s.do(t, http.MethodGet, "/api/plans", nil)
	assert.Equal(t, "local", body["source"])
	assert.Len(t, body["data"], 3)
}

func TestVerifyCoverage(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/verification", gin.H{"medicationId": "MED003", "userAddress": testAccount})
	require.Equal(t, http.StatusOK, code)
	coverage := body["coverage"].(map[string]interface{})
	assert.Equal(t, "0.02", coverage["coPayAmount"])
	assert.Equal(t, "0", coverage["coveredPrice"])
	assert.Equal(t, false, coverage["hasCoverage"])

	code, _ = s.do(t, http.MethodPost, "/api/verification", gin.H{"medicationId": "MED999", "userAddress": testAccount})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/api/verification", gin.H{"medicationId": "MED001"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestInsurancePurchaseFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/purchases/insurance", gin.H{"planType": "Standard", "price": "0.02"})
	require.Equal(t, http.StatusOK, code, body)
	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "InsurancePurchase", tx["type"])
	assert.Equal(t, "Standard", tx["planType"])
	assert.Equal(t, "0.02", tx["amount"])
	assert.Equal(t, 1, s.log.Len())

	_, body = s.do(t, http.MethodGet, "/api/insurance/status", nil)
	assert.Equal(t, "remote", body["source"])
	status := body["status"].(map[string]interface{})
	assert.Equal(t, true, status["hasActiveInsurance"])
	assert.Equal(t, float64(80), status["coveragePercentage"])

	_, body = s.do(t, http.MethodPost, "/api/verification", gin.H{"medicationId": "MED001", "userAddress": testAccount})
	coverage := body["coverage"].(map[string]interface{})
	assert.Equal(t, "0.004", coverage["coveredPrice"])
	assert.Equal(t, "0.001", coverage["coPayAmount"])

	code, _ = s.do(t, http.MethodPost, "/api/purchases/medication", gin.H{"medicationId": "MED001", "amount": "0.005"})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, 1, s.log.Len())

	code, _ = s.do(t, http.MethodPost, "/api/purchases/medication", gin.H{"medicationId": "MED001", "amount": "0.001"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, s.log.Len())

	_, body = s.do(t, http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, "remote", body["source"])
	assert.Len(t, body["transactions"], 2)
}

func TestStatusFallsBackToLocalLog(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/purchases/insurance", gin.H{"planType": "premium", "price": "0.03"})
	require.Equal(t, http.StatusOK, code)

	s.ledger.SetUnavailable(true)

	_, body := s.do(t, http.MethodGet, "/api/insurance/status", nil)
	assert.Equal(t, "local", body["source"])
	status := body["status"].(map[string]interface{})
	assert.Equal(t, "Premium", status["planType"])
	assert.Equal(t, true, status["hasActiveInsurance"])

	_, body = s.do(t, http.MethodPost, "/api/verification", gin.H{"medicationId": "MED004", "userAddress": testAccount})
	assert.Equal(t, "local", body["source"])
	coverage := body["coverage"].(map[string]interface{})
	assert.Equal(t, "0.0225", coverage["coveredPrice"])
	assert.Equal(t, "0.0025", coverage["coPayAmount"])

	_, body = s.do(t, http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, "local", body["source"])
	assert.Len(t, body["transactions"], 1)

	code, _ = s.do(t, http.MethodPost, "/api/purchases/medication", gin.H{"medicationId": "MED004", "amount": "0.0025"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, 1, s.log.Len())
}

func TestPurchaseValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body gin.H
	}{
		{"unknown plan", "/api/purchases/insurance", gin.H{"planType": "gold", "price": "0.01"}},
		{"none plan", "/api/purchases/insurance", gin.H{"planType": "none", "price": "0.01"}},
		{"bad price", "/api/purchases/insurance", gin.H{"planType": "basic", "price": "abc"}},
		{"too precise", "/api/purchases/insurance", gin.H{"planType": "basic", "price": "0.0000000000000000001"}},
		{"missing amount", "/api/purchases/medication", gin.H{"medicationId": "MED001"}},
		{"negative amount", "/api/purchases/medication", gin.H{"medicationId": "MED001", "amount": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, body["success"])
		})
	}
	assert.Equal(t, 0, s.log.Len())
}

func TestAccountRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/insurance/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLocalTransactions(t *testing.T) {
	s := newTestServer(t)
	other := "0x2222222222222222222222222222222222222222"

	code, _ := s.do(t, http.MethodPost, "/api/purchases/insurance", gin.H{"planType": "basic", "price": "0.01"})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.doAs(t, other, http.MethodPost, "/api/purchases/insurance", gin.H{"planType": "premium", "price": "0.03"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, s.log.Len())

	_, body := s.do(t, http.MethodGet, "/api/transactions/local", nil)
	assert.Equal(t, "local", body["source"])
	txs := body["transactions"].([]interface{})
	require.Len(t, txs, 1)
	assert.Equal(t, testAccount, txs[0].(map[string]interface{})["account"])

	code, _ = s.doAs(t, "", http.MethodGet, "/api/transactions/local", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

// readOnlyStore loads empty and refuses every write
type readOnlyStore struct{}

func (readOnlyStore) Get(context.Context, string) ([]byte, error) {
	return nil, database.ErrBlobNotFound
}

func (readOnlyStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestPurchaseConfirmedButNotRecordedWarns(t *testing.T) {
	s := newTestServerWithStore(t, readOnlyStore{})

	code, body := s.do(t, http.MethodPost, "/api/purchases/insurance", gin.H{"planType": "basic", "price": "0.01"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["warning"], "confirmed but not recorded")
	assert.NotEmpty(t, body["transaction"].(map[string]interface{})["hash"])
	assert.Equal(t, 0, s.log.Len())
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusForError(services.ErrAlreadyInProgress))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(services.ErrRemoteUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
}
