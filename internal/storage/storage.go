// Package storage defines the persisted ledger document and the Store
// contract its backends implement. The registry rewrites the full
// snapshot after every successful mutation, so backends only need
// whole-document load and save.
package storage

import (
	"github.com/sftlabs/sft-registry/internal/sft"
)

// Snapshot is the complete ledger document. UsedNumbers is the issued
// set, Applications the registration records in insertion order, and
// SFTMapping a compact lookup keyed by formatted id.
type Snapshot struct {
	UsedNumbers  []int                       `json:"used_numbers"`
	Applications []sft.Registration          `json:"applications"`
	SFTMapping   map[string]sft.MappingEntry `json:"sft_mapping"`
}

// EmptySnapshot returns a snapshot with all collections initialized, the
// document a fresh ledger persists.
func EmptySnapshot() Snapshot {
	return Snapshot{
		UsedNumbers:  []int{},
		Applications: []sft.Registration{},
		SFTMapping:   map[string]sft.MappingEntry{},
	}
}

// Clone deep-copies the snapshot so callers can hold it without aliasing
// the source collections.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		UsedNumbers:  make([]int, len(s.UsedNumbers)),
		Applications: make([]sft.Registration, len(s.Applications)),
		SFTMapping:   make(map[string]sft.MappingEntry, len(s.SFTMapping)),
	}
	copy(out.UsedNumbers, s.UsedNumbers)
	copy(out.Applications, s.Applications)
	for k, v := range s.SFTMapping {
		out.SFTMapping[k] = v
	}
	return out
}

// Store loads and saves the ledger document. Load on a backend with no
// prior state returns an empty snapshot, not an error. Save replaces the
// whole document.
type Store interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
}
