// Package sft holds the core SFT number domain: the bounded number pool,
// the mnemonic prefix rule, and the registration record types shared by
// the registry service and the persistence layer.
package sft

import "time"

// Status tracks how a number was issued. Records are immutable once
// created except for this field.
type Status string

const (
	StatusActive   Status = "active"
	StatusReserved Status = "reserved"
)

// Registration is a single issued SFT number and the application it
// was issued to.
type Registration struct {
	NumericID   int       `json:"numeric_id"`
	FormattedID string    `json:"formatted_id"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Status      Status    `json:"status"`
}

// MappingEntry is the compact per-number view kept in the persisted
// sft_mapping document, keyed by formatted id.
type MappingEntry struct {
	AppName          string    `json:"app_name"`
	RegistrationDate time.Time `json:"registration_date"`
}
