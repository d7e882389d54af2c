// Package scenario holds the bounded set of estimates a user compares side by side.
package scenario

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of scenarios compared at once.
const DefaultCapacity = 3

// Policy decides what Add does when the store is full.
type Policy int

// Eviction policies.
const (
	// RejectWhenFull fails the Add with common.ErrCapacity.
	RejectWhenFull Policy = iota
	// EvictOldest drops the earliest scenario to make room.
	EvictOldest
)

func (p Policy) String() string {
	switch p {
	case EvictOldest:
		return "evict-oldest"
	default:
		return "reject-when-full"
	}
}

// Scenario is an immutable snapshot of one input and its estimate.
type Scenario struct {
	createdAt time.Time
	result    *model.EstimationResult
	id        string
	name      string
	input     model.InputSnapshot
}

// ID is the unique identifier assigned on Add.
func (s Scenario) ID() string { return s.id }

// Name is the display label.
func (s Scenario) Name() string { return s.name }

// CreatedAt is when the scenario was added.
func (s Scenario) CreatedAt() time.Time { return s.createdAt }

// Input is the input the estimate was produced from.
func (s Scenario) Input() model.InputSnapshot { return s.input }

// Result is the estimate.
func (s Scenario) Result() *model.EstimationResult { return s.result }

// AutoName labels a scenario like "Germany (36mo)".
func AutoName(in model.InputSnapshot) string {
	country := in.HostCountry
	if country == "" {
		country = "Unknown"
	}
	return fmt.Sprintf("%s (%dmo)", country, in.DurationMonths)
}

// Store is a capacity-bounded, insertion-ordered set of scenarios. It is safe for concurrent use.
type Store struct {
	now      func() time.Time
	items    []Scenario
	capacity int
	policy   Policy
	mu       sync.RWMutex
}

// NewStore creates an empty store. A non-positive capacity uses DefaultCapacity.
func NewStore(capacity int, policy Policy) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, policy: policy, now: time.Now}
}

// Capacity is the maximum number of scenarios held.
func (s *Store) Capacity() int { return s.capacity }

// Add snapshots in and result under name, or AutoName when name is empty.
func (s *Store) Add(name string, in *model.PayrollInput, result *model.EstimationResult) (Scenario, error) {
	if in == nil || result == nil {
		return Scenario{}, fmt.Errorf("%w: scenario needs an input and a result", common.ErrValidation)
	}

	snap := in.Snapshot()
	if name == "" {
		name = AutoName(snap)
	}

	sc := Scenario{
		id:        uuid.NewString(),
		name:      name,
		input:     snap,
		result:    result,
		createdAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) >= s.capacity {
		if s.policy != EvictOldest {
			return Scenario{}, fmt.Errorf("%w: at most %d scenarios, remove one to add another", common.ErrCapacity, s.capacity)
		}
		s.items = slices.Delete(s.items, 0, len(s.items)-s.capacity+1)
	}
	s.items = append(s.items, sc)
	return sc, nil
}

// Remove deletes the scenario with id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.items, func(sc Scenario) bool { return sc.id == id })
	if i < 0 {
		return fmt.Errorf("%w: scenario %s", common.ErrNotFound, id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// RemoveAt deletes the scenario at position i.
func (s *Store) RemoveAt(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: scenario index %d", common.ErrNotFound, i)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Clear removes every scenario.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Get returns the scenario with id.
func (s *Store) Get(id string) (Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.items {
		if sc.id == id {
			return sc, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: scenario %s", common.ErrNotFound, id)
}

// List returns the scenarios oldest first.
func (s *Store) List() []Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len is the number of scenarios held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
