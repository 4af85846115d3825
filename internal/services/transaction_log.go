package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pharmacy-coverage/internal/database"
	"pharmacy-coverage/internal/models"
	"pharmacy-coverage/pkg/logging"
)

// DefaultLogKey is the name the serialized log is stored under
const DefaultLogKey = "transactions"

// TransactionLog is the local, append-only record of confirmed purchases.
// Records are unique by hash and kept in append order. Every append rewrites
// the whole serialized log in the BlobStore.
type TransactionLog struct {
	mutex   sync.RWMutex
	store   database.BlobStore
	key     string
	records []models.TransactionRecord
	hashes  map[string]struct{}
	loadErr error
}

// LoadTransactionLog reads the persisted log. A log that fails to parse is
// reported through Corruption and the log starts empty; only a failure to
// reach the store is returned as an error.
func LoadTransactionLog(ctx context.Context, store database.BlobStore, key string) (*TransactionLog, error) {
	if key == "" {
		key = DefaultLogKey
	}
	l := &TransactionLog{
		store:  store,
		key:    key,
		hashes: make(map[string]struct{}),
	}

	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, database.ErrBlobNotFound) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to load transaction log: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return l, nil
	}

	var records []models.TransactionRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		l.loadErr = fmt.Errorf("%w: %v", ErrPersistedLogCorrupt, err)
		logging.Errorf("Transaction log %s is corrupt, starting empty: %v", key, err)
		return l, nil
	}

	for _, rec := range records {
		if rec.Hash == "" || !rec.Type.Valid() {
			logging.Warnf("Dropping invalid transaction log entry - hash: %q, type: %q", rec.Hash, rec.Type)
			continue
		}
		if _, dup := l.hashes[rec.Hash]; dup {
			continue
		}
		l.hashes[rec.Hash] = struct{}{}
		l.records = append(l.records, rec)
	}

	logging.Infof("Transaction log %s loaded with %d records", key, len(l.records))
	return l, nil
}

// Corruption returns the parse failure seen at load time, or nil
func (l *TransactionLog) Corruption() error {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.loadErr
}

// Append adds rec unless a record with the same hash exists.
// It reports whether the record was added; a duplicate is not an error.
func (l *TransactionLog) Append(ctx context.Context, rec models.TransactionRecord) (bool, error) {
	if rec.Hash == "" {
		return false, fmt.Errorf("%w: transaction hash is required", ErrInvalidInput)
	}
	if !rec.Type.Valid() {
		return false, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, rec.Type)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if _, exists := l.hashes[rec.Hash]; exists {
		logging.Infof("Transaction %s already recorded, skipping append", rec.Hash)
		return false, nil
	}

	next := make([]models.TransactionRecord, len(l.records), len(l.records)+1)
	copy(next, l.records)
	next = append(next, rec)

	data, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("failed to encode transaction log: %w", err)
	}
	if err := l.store.Put(ctx, l.key, data); err != nil {
		return false, fmt.Errorf("failed to persist transaction log: %w", err)
	}

	l.records = next
	l.hashes[rec.Hash] = struct{}{}
	return true, nil
}

// All returns every record in append order
func (l *TransactionLog) All() []models.TransactionRecord {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return append([]models.TransactionRecord(nil), l.records...)
}

// OfType returns the records of type t in append order
func (l *TransactionLog) OfType(t models.TransactionType) []models.TransactionRecord {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var result []models.TransactionRecord
	for _, rec := range l.records {
		if rec.Type == t {
			result = append(result, rec)
		}
	}
	return result
}

// Len returns the number of records
func (l *TransactionLog) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.records)
}

// Contains reports whether a record with hash exists
func (l *TransactionLog) Contains(hash string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	_, ok := l.hashes[hash]
	return ok
}
