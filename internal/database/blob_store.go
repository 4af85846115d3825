package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pharmacy-coverage/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBlobNotFound is returned by BlobStore.Get when nothing is stored under the name
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists opaque documents under fixed names.
// Put replaces the whole value.
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, value []byte) error
}

// SQLBlobStore keeps blobs in the log_blob table
type SQLBlobStore struct {
	db *gorm.DB
}

// NewSQLBlobStore creates a blob store on top of an open gorm connection
func NewSQLBlobStore(db *gorm.DB) *SQLBlobStore {
	return &SQLBlobStore{db: db}
}

// Get loads a blob by name
func (s *SQLBlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	var row models.LogBlob
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return []byte(row.Value), nil
}

// Put upserts a blob by name
func (s *SQLBlobStore) Put(ctx context.Context, name string, value []byte) error {
	row := models.LogBlob{Name: name, Value: string(value)}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// RedisBlobStore keeps blobs as plain Redis string keys without expiration
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

// NewRedisBlobStore creates a blob store; keys are namespaced with prefix
func NewRedisBlobStore(client *redis.Client, prefix string) *RedisBlobStore {
	return &RedisBlobStore{client: client, prefix: prefix}
}

func (s *RedisBlobStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

// Get loads a blob by name
func (s *RedisBlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return value, nil
}

// Put replaces a blob by name
func (s *RedisBlobStore) Put(ctx context.Context, name string, value []byte) error {
	if err := s.client.Set(ctx, s.key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// MemoryBlobStore is a process-local BlobStore
type MemoryBlobStore struct {
	mutex sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

// Get loads a copy of the blob
func (s *MemoryBlobStore) Get(_ context.Context, name string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, ok := s.blobs[name]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put stores a copy of value
func (s *MemoryBlobStore) Put(_ context.Context, name string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.blobs[name] = append([]byte(nil), value...)
	return nil
}
