package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pharmacy-coverage/internal/config"
	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

// HTTPLedgerClient talks to a JSON gateway in front of the insurance contract.
// The contract address is fixed at construction and becomes part of every path.
type HTTPLedgerClient struct {
	httpClient  *http.Client
	baseURL     string
	contract    string
	secret      string
	readRetries int
	retryDelay  time.Duration
}

// NewHTTPLedgerClient creates a ledger client for the configured gateway and contract
func NewHTTPLedgerClient(cfg config.LedgerConfig) (*HTTPLedgerClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: ledger base URL is required", ErrInvalidInput)
	}
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("%w: ledger contract address is required", ErrInvalidInput)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: ledger base URL: %v", ErrInvalidInput, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retries := cfg.ReadRetries
	if retries < 1 {
		retries = 1
	}

	return &HTTPLedgerClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     cfg.BaseURL,
		contract:    cfg.ContractAddress,
		secret:      cfg.APISecret,
		readRetries: retries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

// LedgerHTTPError is a non-2xx answer from the gateway.
// It unwraps to the sentinel matching the status code.
type LedgerHTTPError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *LedgerHTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ledger returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("ledger returned status %d: %s", e.StatusCode, e.Message)
}

func (e *LedgerHTTPError) Unwrap() error {
	return e.kind
}

// wire types; amounts travel as decimal-integer strings of minor units

type wirePlan struct {
	PlanType           string `json:"planType"`
	CoveragePercentage int    `json:"coveragePercentage"`
	Price              int64  `json:"price,string"`
	Duration           int64  `json:"duration"` // seconds
	IsActive           bool   `json:"isActive"`
}

type wireStatus struct {
	PlanType           string `json:"planType"`
	StartDate          int64  `json:"startDate"` // unix seconds
	EndDate            int64  `json:"endDate"`
	IsActive           bool   `json:"isActive"`
	HasActiveInsurance bool   `json:"hasActiveInsurance"`
}

type wireMedication struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price,string"`
}

type wireCoverage struct {
	OriginalPrice      int64 `json:"originalPrice,string"`
	CoveredPrice       int64 `json:"coveredPrice,string"`
	CoPayAmount        int64 `json:"coPayAmount,string"`
	CoveragePercentage *int  `json:"coveragePercentage,omitempty"`
	HasCoverage        bool  `json:"hasCoverage"`
}

type wirePurchase struct {
	From         string `json:"from"`
	PlanType     string `json:"planType,omitempty"`
	MedicationID string `json:"medicationId,omitempty"`
	Value        int64  `json:"value,string"`
}

type wireTransaction struct {
	Hash         string `json:"hash"`
	Type         string `json:"type"`
	PlanType     string `json:"planType,omitempty"`
	MedicationID string `json:"medicationId,omitempty"`
	Amount       int64  `json:"amount,string"`
	Timestamp    int64  `json:"timestamp"` // epoch milliseconds
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchPlans returns the plans configured on the contract
func (c *HTTPLedgerClient) FetchPlans(ctx context.Context) ([]models.InsurancePlan, error) {
	var resp struct {
		Plans []wirePlan `json:"plans"`
	}
	if err := c.read(ctx, c.contractPath("plans"), nil, &resp); err != nil {
		return nil, err
	}

	plans := make([]models.InsurancePlan, 0, len(resp.Plans))
	for _, p := range resp.Plans {
		planType, ok := models.ParsePlanType(p.PlanType)
		if !ok || !planType.Purchasable() {
			return nil, fmt.Errorf("%w: unknown plan type %q", ErrRemoteUnavailable, p.PlanType)
		}
		plans = append(plans, models.InsurancePlan{
			PlanType:           planType,
			CoveragePercentage: p.CoveragePercentage,
			Price:              p.Price,
			DurationDays:       int(p.Duration / int64(24*time.Hour/time.Second)),
			IsActive:           p.IsActive,
		})
	}
	return plans, nil
}

// FetchUserInsurance returns the user's insurance as recorded on the contract
func (c *HTTPLedgerClient) FetchUserInsurance(ctx context.Context, address string) (models.UserInsuranceStatus, error) {
	var resp wireStatus
	if err := c.read(ctx, c.contractPath("insurance", address), nil, &resp); err != nil {
		return models.UserInsuranceStatus{}, err
	}

	planType, ok := models.ParsePlanType(resp.PlanType)
	if !ok {
		return models.UserInsuranceStatus{}, fmt.Errorf("%w: unknown plan type %q", ErrRemoteUnavailable, resp.PlanType)
	}
	return models.UserInsuranceStatus{
		PlanType:           planType,
		StartTime:          unixOrZero(resp.StartDate),
		EndTime:            unixOrZero(resp.EndDate),
		IsActive:           resp.IsActive,
		HasActiveInsurance: resp.HasActiveInsurance,
	}, nil
}

// IsMedicationAvailable reports whether the contract knows the medication
func (c *HTTPLedgerClient) IsMedicationAvailable(ctx context.Context, medicationID string) (bool, error) {
	var resp struct {
		Available bool `json:"available"`
	}
	if err := c.read(ctx, c.contractPath("medications", medicationID, "available"), nil, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return resp.Available, nil
}

// FetchMedication returns the medication details stored on the contract
func (c *HTTPLedgerClient) FetchMedication(ctx context.Context, medicationID string) (models.Medication, error) {
	var resp wireMedication
	if err := c.read(ctx, c.contractPath("medications", medicationID), nil, &resp); err != nil {
		return models.Medication{}, err
	}
	return models.Medication{
		ID:            resp.ID,
		Name:          resp.Name,
		OriginalPrice: resp.Price,
	}, nil
}

// FetchMedicationCoverage returns the contract's coverage split for the user
func (c *HTTPLedgerClient) FetchMedicationCoverage(ctx context.Context, medicationID, address string) (models.Coverage, error) {
	var resp wireCoverage
	query := url.Values{"address": {address}}
	if err := c.read(ctx, c.contractPath("medications", medicationID, "coverage"), query, &resp); err != nil {
		return models.Coverage{}, err
	}
	if resp.OriginalPrice < 0 || resp.CoveredPrice < 0 || resp.CoPayAmount < 0 {
		return models.Coverage{}, fmt.Errorf("%w: negative coverage amount", ErrRemoteUnavailable)
	}
	if resp.CoveredPrice+resp.CoPayAmount != resp.OriginalPrice {
		return models.Coverage{}, fmt.Errorf("%w: coverage parts do not add up to original price", ErrRemoteUnavailable)
	}

	coverage := models.Coverage{
		OriginalPrice: resp.OriginalPrice,
		CoveredPrice:  resp.CoveredPrice,
		CoPayAmount:   resp.CoPayAmount,
		HasCoverage:   resp.HasCoverage,
	}
	if resp.CoveragePercentage != nil {
		coverage.CoveragePercentage = *resp.CoveragePercentage
		return coverage, nil
	}

	// The contract's coverage call carries no percentage; take it from the user's plan
	status, err := c.FetchUserInsurance(ctx, address)
	if err != nil {
		return models.Coverage{}, err
	}
	if status.HasActiveInsurance {
		coverage.CoveragePercentage = status.PlanType.CoveragePercentage()
	}
	return coverage, nil
}

// SubmitInsurancePurchase sends a plan purchase paying amount. It is never retried.
func (c *HTTPLedgerClient) SubmitInsurancePurchase(ctx context.Context, address string, planType models.PlanType, amount int64) (Receipt, error) {
	return c.submit(ctx, c.contractPath("purchases", "insurance"), wirePurchase{
		From:     address,
		PlanType: string(planType),
		Value:    amount,
	})
}

// SubmitMedicationPurchase sends a medication purchase paying amount. It is never retried.
func (c *HTTPLedgerClient) SubmitMedicationPurchase(ctx context.Context, address, medicationID string, amount int64) (Receipt, error) {
	return c.submit(ctx, c.contractPath("purchases", "medication"), wirePurchase{
		From:         address,
		MedicationID: medicationID,
		Value:        amount,
	})
}

// FetchPurchaseHistory returns the purchases the contract recorded for the user
func (c *HTTPLedgerClient) FetchPurchaseHistory(ctx context.Context, address string) ([]models.TransactionRecord, error) {
	var resp struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	if err := c.read(ctx, c.contractPath("history", address), nil, &resp); err != nil {
		return nil, err
	}

	records := make([]models.TransactionRecord, 0, len(resp.Transactions))
	for _, tx := range resp.Transactions {
		txType := models.TransactionType(tx.Type)
		if tx.Hash == "" || !txType.Valid() {
			return nil, fmt.Errorf("%w: malformed history entry %q", ErrRemoteUnavailable, tx.Hash)
		}
		details := models.TransactionDetails{
			MedicationID: tx.MedicationID,
			Amount:       tx.Amount,
			Account:      address,
		}
		if tx.PlanType != "" {
			planType, ok := models.ParsePlanType(tx.PlanType)
			if !ok {
				return nil, fmt.Errorf("%w: unknown plan type %q", ErrRemoteUnavailable, tx.PlanType)
			}
			details.PlanType = planType
		}
		records = append(records, models.TransactionRecord{
			Hash:      tx.Hash,
			Type:      txType,
			Details:   details,
			Timestamp: tx.Timestamp,
		})
	}
	return records, nil
}

func (c *HTTPLedgerClient) contractPath(segments ...string) string {
	path := "/contracts/" + url.PathEscape(c.contract)
	for _, s := range segments {
		path += "/" + url.PathEscape(s)
	}
	return path
}

// read performs an idempotent GET, retrying while the ledger is unavailable
func (c *HTTPLedgerClient) read(ctx context.Context, path string, query url.Values, out interface{}) error {
	var err error
	for attempt := 0; attempt < c.readRetries; attempt++ {
		err = c.do(ctx, http.MethodGet, path, query, nil, out, false)
		if err == nil || !errors.Is(err, ErrRemoteUnavailable) {
			return err
		}

		logging.Warnf("Ledger read failed - path: %s, attempt: %d, error: %v", path, attempt+1, err)

		if attempt < c.readRetries-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(attempt+1)):
			}
		}
	}
	return err
}

func (c *HTTPLedgerClient) submit(ctx context.Context, path string, body wirePurchase) (Receipt, error) {
	var receipt Receipt
	if err := c.do(ctx, http.MethodPost, path, nil, body, &receipt, true); err != nil {
		return Receipt{}, err
	}
	if receipt.Hash == "" {
		return Receipt{}, fmt.Errorf("%w: ledger returned an empty transaction hash", ErrRemoteUnavailable)
	}
	return receipt, nil
}

// do sends a single request and classifies the outcome
func (c *HTTPLedgerClient) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}, mutation bool) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("X-Ledger-Signature", c.generateSignature(method, path, payload))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newLedgerHTTPError(resp.StatusCode, data, mutation)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

func newLedgerHTTPError(statusCode int, body []byte, mutation bool) *LedgerHTTPError {
	var we wireError
	_ = json.Unmarshal(body, &we)
	message := we.Error
	if message == "" {
		message = we.Message
	}

	kind := ErrRemoteUnavailable
	switch {
	case statusCode == http.StatusNotFound:
		kind = ErrNotFound
	case statusCode >= 500 || statusCode == http.StatusTooManyRequests || statusCode == http.StatusRequestTimeout:
		kind = ErrRemoteUnavailable
	case mutation:
		kind = ErrPurchaseRejected
	case statusCode == http.StatusBadRequest:
		kind = ErrInvalidInput
	}

	return &LedgerHTTPError{StatusCode: statusCode, Message: message, kind: kind}
}

// generateSignature generates HMAC-SHA256 signature over method, path and body
func (c *HTTPLedgerClient) generateSignature(method, path string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(method + "\n" + path + "\n"))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func unixOrZero(seconds int64) time.Time {
	if seconds == 0 {
		return time.Time{}
	}
	return time.Unix(seconds, 0)
}
