package expiry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

const badgerKeyPrefix = "learning:"

// BadgerStore keeps learning stores in an embedded BadgerDB, the single-device
// backend.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerDB at dir. An empty dir opens an
// in-memory database.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an already open BadgerDB
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the underlying database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Load(ctx context.Context, key string) (*models.LearningStore, error) {
	var store models.LearningStore

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrStoreNotFound
		}
		if err != nil {
			return fmt.Errorf("get learning store: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &store)
		})
	})
	if err != nil {
		return nil, err
	}

	store.Normalize()
	return &store, nil
}

func (s *BadgerStore) Save(ctx context.Context, key string, store *models.LearningStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshal learning store: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), data)
	})
}

func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(badgerKeyPrefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete learning store: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list learning stores: %w", err)
	}

	return keys, nil
}
