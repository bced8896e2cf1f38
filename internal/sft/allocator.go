package sft

import (
	"errors"
	"fmt"
	"math/rand"
)

// The inclusive number range the allocator hands out from. The pool is
// fixed at construction and numbers are never returned to it.
const (
	MinNumber = 3000
	MaxNumber = 9999

	// TotalNumbers is the pool size, 7000.
	TotalNumbers = MaxNumber - MinNumber + 1
)

var (
	ErrRangeExhausted = errors.New("sft number range exhausted")
	ErrOutOfRange     = errors.New("sft number out of range")
	ErrAlreadyUsed    = errors.New("sft number already used")
)

// Allocator draws unique numbers from [MinNumber, MaxNumber] without
// replacement. Remaining numbers live in a slice with a position index so
// both random draws and targeted reservations are O(1) swap removals.
//
// The zero value is not usable; construct with NewAllocator or
// NewAllocatorFromUsed. Allocator is not safe for concurrent use, callers
// serialize access.
type Allocator struct {
	remaining []int
	position  map[int]int

	// intn is swapped for a deterministic function in tests.
	intn func(n int) int
}

// NewAllocator returns an allocator with the entire range available.
func NewAllocator() *Allocator {
	a := &Allocator{
		remaining: make([]int, 0, TotalNumbers),
		position:  make(map[int]int, TotalNumbers),
		intn:      rand.Intn,
	}
	for n := MinNumber; n <= MaxNumber; n++ {
		a.position[n] = len(a.remaining)
		a.remaining = append(a.remaining, n)
	}
	return a
}

// NewAllocatorFromUsed rebuilds an allocator from a persisted used set.
// Duplicates collapse, set semantics. A used number outside the range
// means the persisted ledger is corrupt and is reported as an error.
func NewAllocatorFromUsed(used []int) (*Allocator, error) {
	a := NewAllocator()
	for _, n := range used {
		if n < MinNumber || n > MaxNumber {
			return nil, fmt.Errorf("used number %d: %w", n, ErrOutOfRange)
		}
		if idx, ok := a.position[n]; ok {
			a.removeAt(idx)
		}
	}
	return a, nil
}

// Allocate draws a uniformly random number from the remaining pool and
// marks it used. Returns ErrRangeExhausted once the pool is empty.
func (a *Allocator) Allocate() (int, error) {
	if len(a.remaining) == 0 {
		return 0, ErrRangeExhausted
	}
	idx := a.intn(len(a.remaining))
	n := a.remaining[idx]
	a.removeAt(idx)
	return n, nil
}

// Reserve marks a specific number used. Returns ErrOutOfRange when the
// number falls outside the pool bounds and ErrAlreadyUsed when it was
// issued earlier.
func (a *Allocator) Reserve(n int) error {
	if n < MinNumber || n > MaxNumber {
		return ErrOutOfRange
	}
	idx, ok := a.position[n]
	if !ok {
		return ErrAlreadyUsed
	}
	a.removeAt(idx)
	return nil
}

// IsAvailable reports whether n is inside the pool bounds and not yet
// issued. Out of range numbers are never available.
func (a *Allocator) IsAvailable(n int) bool {
	if n < MinNumber || n > MaxNumber {
		return false
	}
	_, ok := a.position[n]
	return ok
}

// Remaining reports how many numbers are still available.
func (a *Allocator) Remaining() int {
	return len(a.remaining)
}

// Used reports how many numbers have been issued.
func (a *Allocator) Used() int {
	return TotalNumbers - len(a.remaining)
}

// UsedNumbers returns the issued set in ascending order.
func (a *Allocator) UsedNumbers() []int {
	used := make([]int, 0, a.Used())
	for n := MinNumber; n <= MaxNumber; n++ {
		if _, ok := a.position[n]; !ok {
			used = append(used, n)
		}
	}
	return used
}

// removeAt swap-removes remaining[idx] and repairs the position index for
// the element moved into its slot.
func (a *Allocator) removeAt(idx int) {
	n := a.remaining[idx]
	last := len(a.remaining) - 1
	moved := a.remaining[last]
	a.remaining[idx] = moved
	a.position[moved] = idx
	a.remaining = a.remaining[:last]
	delete(a.position, n)
}

// UsageSummary aggregates the issued set for dashboards and reports.
type UsageSummary struct {
	TotalAvailable  int     `json:"total_available"`
	UsedCount       int     `json:"used_count"`
	Remaining       int     `json:"remaining"`
	UsagePercentage float64 `json:"usage_percentage"`
	LowestUsed      int     `json:"lowest_used,omitempty"`
	HighestUsed     int     `json:"highest_used,omitempty"`
	MeanUsed        float64 `json:"mean_used,omitempty"`
}

// Summarize computes usage statistics over the issued set.
func (a *Allocator) Summarize() UsageSummary {
	summary := UsageSummary{
		TotalAvailable: TotalNumbers,
		UsedCount:      a.Used(),
		Remaining:      a.Remaining(),
	}
	if summary.UsedCount == 0 {
		return summary
	}
	summary.UsagePercentage = float64(summary.UsedCount) / float64(TotalNumbers) * 100

	used := a.UsedNumbers()
	summary.LowestUsed = used[0]
	summary.HighestUsed = used[len(used)-1]

	total := 0
	for _, n := range used {
		total += n
	}
	summary.MeanUsed = float64(total) / float64(len(used))
	return summary
}
