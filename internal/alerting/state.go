package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the in-memory record of one open threshold violation. At most one
// exists per mapping id.
type State struct {
	MappingID      uuid.UUID
	StartUtc       time.Time
	MinValue       float64
	MaxValue       float64
	IsActive       bool
	LastUpdatedUtc time.Time
}

// Outcome of a sample applied to the state machine.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeStarted
	OutcomeUpdated
	OutcomeResolved
)

// StateStore keys alert state by mapping id. Each key owns a lazily created
// mutex so evaluation for different mappings never contends while operations
// on the same mapping are strictly ordered. The lock map grows with distinct
// mapping ids seen, which is bounded by configured devices.
type StateStore struct {
	mu     sync.RWMutex
	locks  map[uuid.UUID]*sync.Mutex
	states map[uuid.UUID]*State
}

func NewStateStore() *StateStore {
	return &StateStore{
		locks:  map[uuid.UUID]*sync.Mutex{},
		states: map[uuid.UUID]*State{},
	}
}

func (s *StateStore) lockFor(mappingID uuid.UUID) *sync.Mutex {
	s.mu.RLock()
	l, ok := s.locks[mappingID]
	s.mu.RUnlock()
	if ok {
		return l
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = s.locks[mappingID]; ok {
		return l
	}
	l = &sync.Mutex{}
	s.locks[mappingID] = l
	return l
}

func (s *StateStore) load(mappingID uuid.UUID) *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[mappingID]
}

func (s *StateStore) store(mappingID uuid.UUID, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == nil {
		delete(s.states, mappingID)
		return
	}
	s.states[mappingID] = st
}

// Get returns a snapshot of the current state, or nil if none exists.
func (s *StateStore) Get(mappingID uuid.UUID) *State {
	st := s.load(mappingID)
	if st == nil {
		return nil
	}
	l := s.lockFor(mappingID)
	l.Lock()
	defer l.Unlock()
	cp := *st
	return &cp
}

// SetActive creates a fresh active state, overwriting any stale entry.
func (s *StateStore) SetActive(mappingID uuid.UUID, startUtc time.Time, initialValue float64) {
	l := s.lockFor(mappingID)
	l.Lock()
	defer l.Unlock()
	s.store(mappingID, &State{
		MappingID:      mappingID,
		StartUtc:       startUtc,
		MinValue:       initialValue,
		MaxValue:       initialValue,
		IsActive:       true,
		LastUpdatedUtc: startUtc,
	})
}

// UpdateActive widens min/max and advances the timestamp on an existing
// active state. No-op when absent or inactive.
func (s *StateStore) UpdateActive(mappingID uuid.UUID, value float64, timestamp time.Time) {
	l := s.lockFor(mappingID)
	l.Lock()
	defer l.Unlock()
	st := s.load(mappingID)
	if st == nil || !st.IsActive {
		return
	}
	if value < st.MinValue {
		st.MinValue = value
	}
	if value > st.MaxValue {
		st.MaxValue = value
	}
	st.LastUpdatedUtc = timestamp
}

// ClearActive atomically removes the state and returns the final snapshot,
// or nil if nothing was active.
func (s *StateStore) ClearActive(mappingID uuid.UUID, endUtc time.Time) *State {
	l := s.lockFor(mappingID)
	l.Lock()
	defer l.Unlock()
	st := s.load(mappingID)
	if st == nil {
		return nil
	}
	s.store(mappingID, nil)
	cp := *st
	cp.IsActive = false
	cp.LastUpdatedUtc = endUtc
	return &cp
}

// Transition applies one sample to the per-mapping state machine while
// holding the key lock across the whole decision, so two concurrent samples
// for the same mapping can never both start an alert. Returns what happened
// and the resulting snapshot (the final state for OutcomeResolved).
func (s *StateStore) Transition(mappingID uuid.UUID, outOfRange bool, value float64, timestamp time.Time) (Outcome, *State) {
	l := s.lockFor(mappingID)
	l.Lock()
	defer l.Unlock()

	st := s.load(mappingID)
	active := st != nil && st.IsActive

	switch {
	case outOfRange && !active:
		next := &State{
			MappingID:      mappingID,
			StartUtc:       timestamp,
			MinValue:       value,
			MaxValue:       value,
			IsActive:       true,
			LastUpdatedUtc: timestamp,
		}
		s.store(mappingID, next)
		cp := *next
		return OutcomeStarted, &cp

	case outOfRange && active:
		if value < st.MinValue {
			st.MinValue = value
		}
		if value > st.MaxValue {
			st.MaxValue = value
		}
		st.LastUpdatedUtc = timestamp
		cp := *st
		return OutcomeUpdated, &cp

	case !outOfRange && active:
		s.store(mappingID, nil)
		cp := *st
		cp.IsActive = false
		cp.LastUpdatedUtc = timestamp
		return OutcomeResolved, &cp

	default:
		return OutcomeNone, nil
	}
}
