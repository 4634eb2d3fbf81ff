package expiry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

var (
	// ErrStoreNotFound is returned by a Store when no record exists for a key
	ErrStoreNotFound = errors.New("learning store not found")

	// ErrLoad wraps failures reading a learning store
	ErrLoad = errors.New("failed to load learning store")

	// ErrPersist wraps failures writing or deleting a learning store
	ErrPersist = errors.New("failed to persist learning store")
)

// Store persists one LearningStore record per key
type Store interface {
	Load(ctx context.Context, key string) (*models.LearningStore, error)
	Save(ctx context.Context, key string, store *models.LearningStore) error
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by stores that can enumerate their keys
type KeyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStore keeps serialized records in a map. Records are copied through
// JSON so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*models.LearningStore, error) {
	m.mu.RLock()
	data, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStoreNotFound
	}

	var store models.LearningStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, err
	}
	store.Normalize()
	return &store, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, store *models.LearningStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.records[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
