package http

import (
	"sync"

	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/score"
)

// State holds the latest scoring snapshot served by the API. Updates come
// from ingestion passes; reads come from request handlers and the websocket
// hub, so access is guarded.
type State struct {
	mu       sync.RWMutex
	snapshot score.Snapshot
	records  map[string]*deposit.Record
	loaded   bool

	onUpdate []func(score.Snapshot)
}

// NewState creates an empty state.
func NewState() *State {
	return &State{records: make(map[string]*deposit.Record)}
}

// OnUpdate registers a callback invoked after every state update. Used by
// the websocket hub to push fresh rankings.
func (s *State) OnUpdate(fn func(score.Snapshot)) {
	s.mu.Lock()
	s.onUpdate = append(s.onUpdate, fn)
	s.mu.Unlock()
}

// Update replaces the served snapshot and record set.
func (s *State) Update(snap score.Snapshot, records map[string]*deposit.Record) {
	s.mu.Lock()
	s.snapshot = snap
	s.records = records
	s.loaded = true
	callbacks := make([]func(score.Snapshot), len(s.onUpdate))
	copy(callbacks, s.onUpdate)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap)
	}
}

// Snapshot returns the current snapshot and whether one has been loaded.
func (s *State) Snapshot() (score.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.loaded
}

// Deposit returns one record by name.
func (s *State) Deposit(name string) (*deposit.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	return rec, ok
}

// Count returns the number of records currently held.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
