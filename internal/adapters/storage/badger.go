package storage

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// BadgerStore implements the persistence capability over an embedded badger
// database. Pass an empty dir for a purely in-memory store (used by tests
// and throwaway sessions).
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewBadgerStore(dir string, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.NewStorageError("open", dir, err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger.With("component", "badger-store"),
	}, nil
}

func (s *BadgerStore) Get(key string) (value []byte, exists bool, err error) {
	if err := s.guard(); err != nil {
		return nil, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		exists = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, domain.NewStorageError("get", key, err)
	}

	return value, exists, nil
}

func (s *BadgerStore) Put(key string, value []byte) error {
	if err := s.guard(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return domain.NewStorageError("put", key, err)
	}
	return nil
}

func (s *BadgerStore) Delete(key string) error {
	if err := s.guard(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return domain.NewStorageError("delete", key, err)
	}
	return nil
}

func (s *BadgerStore) ListByPrefix(prefix string) ([]ports.KeyValue, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var entries []ports.KeyValue
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, ports.KeyValue{
				Key:   string(item.KeyCopy(nil)),
				Value: value,
			})
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewStorageError("list", prefix, err)
	}

	return entries, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *BadgerStore) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrClosed
	}
	return nil
}
