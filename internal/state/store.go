package state

import (
	"sync"

	"github.com/five82/tick/internal/todo"
)

// Snapshot is a copy of the state at one point in time.
type Snapshot struct {
	AppState
	// Version increases with every dispatch.
	Version uint64
}

// Pending returns how many items still wait for backend confirmation.
func (s Snapshot) Pending() int {
	n := 0
	for _, item := range s.Items {
		if item.Pending() {
			n++
		}
	}
	return n
}

// Store serialises dispatches from the UI and the sync goroutines.
type Store struct {
	mu      sync.RWMutex
	state   AppState
	version uint64
}

// NewStore returns a store holding Initial().
func NewStore() *Store {
	return &Store{state: Initial()}
}

// Dispatch applies action to the stored state.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Apply(s.state, action)
	s.version++
}

// Modify derives an action from the current state and applies it while the
// lock is held, so the read and the write cannot interleave with other
// dispatches. Nothing is applied when derive returns false.
func (s *Store) Modify(derive func(AppState) (Action, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.state
	view.Items = cloneItems(s.state.Items)
	action, ok := derive(view)
	if !ok {
		return false
	}
	s.state = Apply(s.state, action)
	s.version++
	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{AppState: s.state, Version: s.version}
	snap.Items = cloneItems(s.state.Items)
	return snap
}

// Item returns the confirmed item with id.
func (s *Store) Item(id string) (todo.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := IndexByID(s.state.Items, id)
	if idx < 0 {
		return todo.Item{}, false
	}
	return s.state.Items[idx], true
}
