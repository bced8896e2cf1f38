package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sftlabs/sft-registry/internal/metrics"
	"github.com/sftlabs/sft-registry/internal/sft"
	"github.com/sftlabs/sft-registry/internal/storage"
)

var (
	ErrEmptyName      = errors.New("application name is required")
	ErrNotFound       = errors.New("registration not found")
	ErrInvalidStatus  = errors.New("invalid registration status")
	ErrNoApplications = errors.New("no applications provided")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	defaultTimelineDays = 14
	maxTimelineDays     = 365
)

// Config carries the registry dependencies and issuing options.
type Config struct {
	Store storage.Store

	// PlainNumbers issues bare numeric ids instead of prefixed ones.
	PlainNumbers bool
}

// Service owns the ledger: it allocates numbers, keeps the registration
// records, and rewrites the persisted snapshot after every successful
// mutation. All access is serialized through the service lock.
type Service struct {
	mu           sync.RWMutex
	alloc        *sft.Allocator
	records      []sft.Registration
	byNumber     map[int]int
	byFormatted  map[string]int
	store        storage.Store
	plainNumbers bool

	now func() time.Time
}

// NewService loads the persisted ledger and rebuilds the allocator and
// lookup indexes from it.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("registry store is required")
	}

	snapshot, err := cfg.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	used := make([]int, 0, len(snapshot.UsedNumbers)+len(snapshot.Applications))
	used = append(used, snapshot.UsedNumbers...)
	for _, record := range snapshot.Applications {
		used = append(used, record.NumericID)
	}
	alloc, err := sft.NewAllocatorFromUsed(used)
	if err != nil {
		return nil, fmt.Errorf("rebuild allocator: %w", err)
	}

	s := &Service{
		alloc:        alloc,
		records:      append([]sft.Registration(nil), snapshot.Applications...),
		byNumber:     make(map[int]int, len(snapshot.Applications)),
		byFormatted:  make(map[string]int, len(snapshot.Applications)),
		store:        cfg.Store,
		plainNumbers: cfg.PlainNumbers,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for i, record := range s.records {
		s.byNumber[record.NumericID] = i
		s.byFormatted[record.FormattedID] = i
	}

	metrics.NumbersRemaining.Set(float64(alloc.Remaining()))
	return s, nil
}

// Register draws a random number for the named application and persists
// the updated ledger.
func (s *Service) Register(name, description string) (sft.Registration, error) {
	displayName := strings.TrimSpace(name)
	if displayName == "" {
		recordFailure(ErrEmptyName)
		return sft.Registration{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	number, err := s.alloc.Allocate()
	if err != nil {
		recordFailure(err)
		return sft.Registration{}, err
	}

	record := s.appendLocked(number, displayName, description, sft.StatusActive)
	if err := s.persistLocked(); err != nil {
		recordFailure(err)
		return sft.Registration{}, err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ModeRandom).Inc()
	metrics.NumbersRemaining.Set(float64(s.alloc.Remaining()))
	return record, nil
}

// Reserve issues a caller-chosen number for the named application.
func (s *Service) Reserve(number int, name, description string) (sft.Registration, error) {
	displayName := strings.TrimSpace(name)
	if displayName == "" {
		recordFailure(ErrEmptyName)
		return sft.Registration{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.alloc.Reserve(number); err != nil {
		recordFailure(err)
		return sft.Registration{}, err
	}

	record := s.appendLocked(number, displayName, description, sft.StatusReserved)
	if err := s.persistLocked(); err != nil {
		recordFailure(err)
		return sft.Registration{}, err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ModeReserved).Inc()
	metrics.NumbersRemaining.Set(float64(s.alloc.Remaining()))
	return record, nil
}

// BulkApplication is one entry in a bulk registration request.
type BulkApplication struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BulkResult reports the outcome for one bulk entry. Entries fail
// independently, a rejected name does not stop the rest of the batch.
type BulkResult struct {
	Application string `json:"application"`
	SFTNumber   string `json:"sft_number,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// BulkRegister registers each application in order, one ledger write per
// issued number.
func (s *Service) BulkRegister(applications []BulkApplication) ([]BulkResult, error) {
	if len(applications) == 0 {
		return nil, ErrNoApplications
	}

	results := make([]BulkResult, 0, len(applications))
	for _, application := range applications {
		record, err := s.Register(application.Name, application.Description)
		if err != nil {
			results = append(results, BulkResult{
				Application: strings.TrimSpace(application.Name),
				Error:       err.Error(),
			})
			continue
		}
		results = append(results, BulkResult{
			Application: record.DisplayName,
			SFTNumber:   record.FormattedID,
			Success:     true,
		})
	}
	return results, nil
}

// IsAvailable reports whether a number can still be reserved.
func (s *Service) IsAvailable(number int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alloc.IsAvailable(number)
}

// Get looks a registration up by its numeric id.
func (s *Service) Get(number int) (sft.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.byNumber[number]
	if !exists {
		return sft.Registration{}, false
	}
	return s.records[idx], true
}

// GetByFormatted looks a registration up by its formatted id. Lookup is
// case-insensitive.
func (s *Service) GetByFormatted(formattedID string) (sft.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, exists := s.byFormatted[strings.ToUpper(strings.TrimSpace(formattedID))]
	if !exists {
		return sft.Registration{}, false
	}
	return s.records[idx], true
}

// List returns registrations newest first, optionally filtered by
// status.
func (s *Service) List(statusFilter *sft.Status, limit, offset int) []sft.Registration {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]sft.Registration, 0, limit)
	skipped := 0
	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if statusFilter != nil && record.Status != *statusFilter {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		items = append(items, record)
		if len(items) == limit {
			break
		}
	}
	return items
}

// All returns every registration in issue order, the view exports
// render.
func (s *Service) All() []sft.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]sft.Registration(nil), s.records...)
}

// SetStatus updates the lifecycle status of a registration. The issued
// number and registration timestamp never change.
func (s *Service) SetStatus(number int, status sft.Status) (sft.Registration, error) {
	switch status {
	case sft.StatusActive, sft.StatusReserved:
	default:
		return sft.Registration{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byNumber[number]
	if !exists {
		return sft.Registration{}, ErrNotFound
	}

	s.records[idx].Status = status
	if err := s.persistLocked(); err != nil {
		return sft.Registration{}, err
	}
	return s.records[idx], nil
}

// Stats summarizes pool usage.
func (s *Service) Stats() sft.UsageSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alloc.Summarize()
}

// DayCount is the number of registrations recorded on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Timeline buckets registrations per UTC day over the trailing window,
// zero-filling days with no activity.
func (s *Service) Timeline(days int) []DayCount {
	if days <= 0 {
		days = defaultTimelineDays
	}
	if days > maxTimelineDays {
		days = maxTimelineDays
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	today := s.now().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	counts := make(map[string]int, days)
	for _, record := range s.records {
		day := record.Timestamp.UTC().Truncate(24 * time.Hour)
		if day.Before(start) || day.After(today) {
			continue
		}
		counts[day.Format("2006-01-02")]++
	}

	timeline := make([]DayCount, 0, days)
	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		timeline = append(timeline, DayCount{Date: key, Count: counts[key]})
	}
	return timeline
}

// appendLocked creates the record for an issued number and indexes it.
// Callers hold the write lock and have already claimed the number.
func (s *Service) appendLocked(number int, displayName, description string, status sft.Status) sft.Registration {
	record := sft.Registration{
		NumericID:   number,
		FormattedID: s.formatID(displayName, number),
		DisplayName: displayName,
		Description: strings.TrimSpace(description),
		Timestamp:   s.now(),
		Status:      status,
	}
	s.records = append(s.records, record)
	s.byNumber[record.NumericID] = len(s.records) - 1
	s.byFormatted[record.FormattedID] = len(s.records) - 1
	return record
}

func (s *Service) formatID(name string, number int) string {
	if s.plainNumbers {
		return strconv.Itoa(number)
	}
	return sft.DerivePrefix(name) + strconv.Itoa(number)
}

// persistLocked rewrites the full snapshot. On failure the in-memory
// ledger keeps the mutation; the next successful save carries it.
func (s *Service) persistLocked() error {
	snapshot := storage.Snapshot{
		UsedNumbers:  s.alloc.UsedNumbers(),
		Applications: append([]sft.Registration(nil), s.records...),
		SFTMapping:   make(map[string]sft.MappingEntry, len(s.records)),
	}
	for _, record := range s.records {
		snapshot.SFTMapping[record.FormattedID] = sft.MappingEntry{
			AppName:          record.DisplayName,
			RegistrationDate: record.Timestamp,
		}
	}
	if err := s.store.Save(snapshot); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func recordFailure(err error) {
	reason := "persist"
	switch {
	case errors.Is(err, sft.ErrRangeExhausted):
		reason = "range_exhausted"
	case errors.Is(err, sft.ErrOutOfRange):
		reason = "out_of_range"
	case errors.Is(err, sft.ErrAlreadyUsed):
		reason = "already_used"
	case errors.Is(err, ErrEmptyName):
		reason = "empty_name"
	}
	metrics.RegistrationFailuresTotal.WithLabelValues(reason).Inc()
}
