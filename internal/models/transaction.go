package models

import (
	"time"
)

// TransactionType is the kind of purchase a record describes
type TransactionType string

const (
	InsurancePurchase  TransactionType = "InsurancePurchase"
	MedicationPurchase TransactionType = "MedicationPurchase"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == InsurancePurchase || t == MedicationPurchase
}

// TransactionDetails holds the plan type for insurance purchases, or the
// medication id for medication purchases, plus the amount paid.
type TransactionDetails struct {
	PlanType     PlanType `json:"planType,omitempty"`
	MedicationID string   `json:"medicationId,omitempty"`
	Amount       int64    `json:"amount"`            // minor units
	Account      string   `json:"account,omitempty"` // purchasing address
}

// TransactionRecord is a purchase confirmed by the ledger.
// Append-only; the hash is the unique key.
type TransactionRecord struct {
	Hash      string             `json:"hash"`
	Type      TransactionType    `json:"type"`
	Details   TransactionDetails `json:"details"`
	Timestamp int64              `json:"timestamp"` // epoch milliseconds
}

// Time returns the record timestamp as a time.Time
func (r TransactionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}
