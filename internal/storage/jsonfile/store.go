// Package jsonfile persists the ledger as a single human-readable JSON
// document, the default backend.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sftlabs/sft-registry/internal/storage"
)

// Store reads and writes one ledger document at a fixed path. Saves go
// through a temp file and rename so a crash mid-write never leaves a
// truncated ledger behind.
type Store struct {
	path string
}

// NewStore prepares a file-backed store at path, creating parent
// directories as needed.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "sft_registry.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Load reads the ledger document. A missing file means a fresh ledger
// and yields an empty snapshot.
func (s *Store) Load() (storage.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return storage.EmptySnapshot(), nil
	}
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("read ledger: %w", err)
	}

	snapshot := storage.EmptySnapshot()
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return storage.Snapshot{}, fmt.Errorf("decode ledger: %w", err)
	}
	return snapshot, nil
}

// Save rewrites the full ledger document atomically.
func (s *Store) Save(snapshot storage.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
