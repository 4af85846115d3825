package services

import "errors"

var (
	// ErrInvalidInput means a required field is missing or malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means the medication or plan id is unknown
	ErrNotFound = errors.New("not found")
	// ErrRemoteUnavailable means the ledger could not be reached or answered garbage
	ErrRemoteUnavailable = errors.New("remote ledger unavailable")
	// ErrPurchaseRejected means the ledger completed the call and declined the purchase
	ErrPurchaseRejected = errors.New("purchase rejected")
	// ErrAlreadyInProgress means the same purchase is already in flight for the caller
	ErrAlreadyInProgress = errors.New("purchase already in progress")
	// ErrPersistedLogCorrupt is reported, never returned, when the stored log cannot be parsed
	ErrPersistedLogCorrupt = errors.New("persisted transaction log corrupt")
)
