// Package auditlog keeps an append-only trail of ledger mutations so
// admins can answer who issued or changed a number and when.
package auditlog

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sftlabs/sft-registry/internal/platform/identifier"
)

var ErrInvalidAuditLog = errors.New("invalid audit log input")

// Actions recorded by the API and the CLI.
const (
	ActionApplicationRegistered = "application_registered"
	ActionBulkRegistered        = "applications_bulk_registered"
	ActionNumberReserved        = "number_reserved"
	ActionStatusChanged         = "registration_status_changed"
	ActionLedgerExported        = "ledger_exported"
)

// Actor types recorded on entries.
const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

type Entry struct {
	ID           string          `json:"id"`
	ActorType    string          `json:"actor_type"`
	ActorID      string          `json:"actor_id"`
	ActorRole    string          `json:"actor_role,omitempty"`
	Action       string          `json:"action"`
	TargetType   string          `json:"target_type"`
	TargetID     string          `json:"target_id"`
	BeforeJSON   json.RawMessage `json:"before_json,omitempty"`
	AfterJSON    json.RawMessage `json:"after_json,omitempty"`
	MetadataJSON json.RawMessage `json:"metadata_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type RecordInput struct {
	ActorType  string
	ActorID    string
	ActorRole  string
	Action     string
	TargetType string
	TargetID   string
	Before     interface{}
	After      interface{}
	Metadata   interface{}
}

type ListInput struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Limit      int
	Offset     int
}

type ListResult struct {
	Items []Entry `json:"items"`
	Total int     `json:"total"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service stores entries in memory, newest appended last. Entries are
// never updated or removed.
type Service struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewService() *Service {
	return &Service{
		entries: make([]Entry, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Record(input RecordInput) (Entry, error) {
	actorType, err := requireField(input.ActorType, true)
	if err != nil {
		return Entry{}, err
	}
	actorID, err := requireField(input.ActorID, false)
	if err != nil {
		return Entry{}, err
	}
	action, err := requireField(input.Action, true)
	if err != nil {
		return Entry{}, err
	}
	targetType, err := requireField(input.TargetType, true)
	if err != nil {
		return Entry{}, err
	}
	targetID, err := requireField(input.TargetID, false)
	if err != nil {
		return Entry{}, err
	}

	beforeJSON, err := encodeOptionalJSON(input.Before)
	if err != nil {
		return Entry{}, err
	}
	afterJSON, err := encodeOptionalJSON(input.After)
	if err != nil {
		return Entry{}, err
	}
	metadataJSON, err := encodeOptionalJSON(input.Metadata)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:           identifier.New("aud"),
		ActorType:    actorType,
		ActorID:      actorID,
		ActorRole:    strings.ToLower(strings.TrimSpace(input.ActorRole)),
		Action:       action,
		TargetType:   targetType,
		TargetID:     targetID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		MetadataJSON: metadataJSON,
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *Service) List(input ListInput) ListResult {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	actorID := strings.TrimSpace(input.ActorID)
	action := strings.ToLower(strings.TrimSpace(input.Action))
	targetType := strings.ToLower(strings.TrimSpace(input.TargetType))
	targetID := strings.TrimSpace(input.TargetID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if actorID != "" && entry.ActorID != actorID {
			continue
		}
		if action != "" && entry.Action != action {
			continue
		}
		if targetType != "" && entry.TargetType != targetType {
			continue
		}
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		matches = append(matches, entry)
	}

	total := len(matches)
	if offset >= total {
		return ListResult{Items: []Entry{}, Total: total}
	}

	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]Entry, end-offset)
	copy(items, matches[offset:end])
	return ListResult{Items: items, Total: total}
}

func requireField(raw string, forceLower bool) (string, error) {
	value := strings.TrimSpace(raw)
	if forceLower {
		value = strings.ToLower(value)
	}
	if value == "" {
		return "", ErrInvalidAuditLog
	}
	return value, nil
}

// encodeOptionalJSON validates raw payloads by round-tripping them and
// marshals everything else.
func encodeOptionalJSON(value interface{}) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	if raw, ok := value.(json.RawMessage); ok {
		if len(strings.TrimSpace(string(raw))) == 0 {
			return nil, nil
		}
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, ErrInvalidAuditLog
		}
		value = decoded
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, ErrInvalidAuditLog
	}
	return json.RawMessage(encoded), nil
}
