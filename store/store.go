// Package store persists terminal verification results keyed by payment
// reference, backed by Badger. A cached result makes repeat verification of
// a matched reference idempotent without re-querying the ledger.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	blink402 "github.com/Blink402/blink402-mcp"
)

// resultPrefix namespaces verification result keys.
const resultPrefix = "result/"

// Store is a Badger-backed verification result cache. Results are terminal
// artifacts: written once per reference, never mutated.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store at the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an in-memory store, useful for tests and ephemeral
// deployments.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory result store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func resultKey(reference string) []byte {
	return []byte(resultPrefix + reference)
}

// Get returns the cached result for a reference, or (nil, nil) when none
// exists.
func (s *Store) Get(reference string) (*blink402.VerificationResult, error) {
	var result *blink402.VerificationResult
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(resultKey(reference))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return fmt.Errorf("query result: %w", err)
		}
		return entry.Value(func(val []byte) error {
			var r blink402.VerificationResult
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
			result = &r
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read result store: %w", err)
	}
	return result, nil
}

// Put stores a verification result under its reference. An existing entry is
// left untouched: the first result for a reference is the result, and a
// matched reference is never re-verified into something else.
func (s *Store) Put(result *blink402.VerificationResult) error {
	if result == nil || result.Reference == "" {
		return fmt.Errorf("result must carry a reference")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(resultKey(result.Reference))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing result: %w", err)
		}
		return txn.Set(resultKey(result.Reference), data)
	})
	if err != nil {
		return fmt.Errorf("write result store: %w", err)
	}
	return nil
}
