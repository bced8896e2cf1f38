// Package memory holds the ledger in process memory only, for tests and
// throwaway environments.
package memory

import (
	"sync"

	"github.com/sftlabs/sft-registry/internal/storage"
)

// Store keeps the latest saved snapshot. Load and Save exchange deep
// copies so callers never alias the stored document.
type Store struct {
	mu       sync.Mutex
	snapshot storage.Snapshot
	saves    int
}

func NewStore() *Store {
	return &Store{snapshot: storage.EmptySnapshot()}
}

func (s *Store) Load() (storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone(), nil
}

func (s *Store) Save(snapshot storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save has been called, letting tests
// assert that mutations persist.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ storage.Store = (*Store)(nil)
