package main

import (
	"fmt"

	"github.com/sftlabs/sft-registry/internal/config"
	"github.com/sftlabs/sft-registry/internal/storage"
	"github.com/sftlabs/sft-registry/internal/storage/jsonfile"
	"github.com/sftlabs/sft-registry/internal/storage/memory"
	"github.com/sftlabs/sft-registry/internal/storage/sqlite"
)

func noopClose() error { return nil }

// buildStore opens the configured ledger backend. The returned close
// func releases backend resources once the caller is done.
func buildStore(cfg config.Config) (storage.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendJSONFile:
		store, err := jsonfile.NewStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open json ledger: %w", err)
		}
		return store, noopClose, nil
	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, store.Close, nil
	case config.BackendMemory:
		return memory.NewStore(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
