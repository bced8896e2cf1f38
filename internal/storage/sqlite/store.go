// Package sqlite persists the ledger in a single-table SQLite database,
// one JSON payload per bucket, for deployments that want transactional
// saves over a plain file.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/sftlabs/sft-registry/internal/storage"
)

const (
	bucketUsedNumbers  = "used_numbers"
	bucketApplications = "applications"
	bucketSFTMapping   = "sft_mapping"
)

var ledgerBuckets = []string{bucketUsedNumbers, bucketApplications, bucketSFTMapping}

// Store keeps the ledger in a `state` table keyed by bucket name. Save
// upserts every bucket inside one transaction, so a failed save leaves
// the previous document intact.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if necessary) the database at path and
// ensures the state table exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "sft_registry.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db}, nil
}

// Load assembles a snapshot from the stored buckets. An empty table
// yields an empty snapshot.
func (s *Store) Load() (storage.Snapshot, error) {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return storage.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := storage.EmptySnapshot()
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return storage.Snapshot{}, fmt.Errorf("scan state row: %w", err)
		}
		switch bucket {
		case bucketUsedNumbers:
			if err := json.Unmarshal(payload, &snapshot.UsedNumbers); err != nil {
				return storage.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		case bucketApplications:
			if err := json.Unmarshal(payload, &snapshot.Applications); err != nil {
				return storage.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		case bucketSFTMapping:
			if err := json.Unmarshal(payload, &snapshot.SFTMapping); err != nil {
				return storage.Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return storage.Snapshot{}, fmt.Errorf("iterate state rows: %w", err)
	}
	return snapshot, nil
}

// Save upserts all buckets in one transaction.
func (s *Store) Save(snapshot storage.Snapshot) (retErr error) {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, bucket := range ledgerBuckets {
		var payload []byte
		switch bucket {
		case bucketUsedNumbers:
			payload, err = json.Marshal(snapshot.UsedNumbers)
		case bucketApplications:
			payload, err = json.Marshal(snapshot.Applications)
		case bucketSFTMapping:
			payload, err = json.Marshal(snapshot.SFTMapping)
		}
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", bucket, err)
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, payload); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

var _ storage.Store = (*Store)(nil)
