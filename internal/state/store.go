package state

import "sync"

// Observer sees every dispatched action with the states around it. It must
// not retain or modify the states.
type Observer func(prev *AppState, action Action, next *AppState)

// Store owns the AppState and serializes transitions.
type Store struct {
	dispatchMu sync.Mutex // serializes Dispatch including notification

	mu        sync.RWMutex
	state     *AppState
	observers []Observer
	subs      map[*subscription]struct{}
}

type subscription struct {
	fn func(*AppState)
}

// NewStore creates a store in the initial state.
func NewStore(observers ...Observer) *Store {
	return &Store{state: Initial(), observers: observers}
}

// Snapshot returns the current state. The result is shared and read-only.
func (s *Store) Snapshot() *AppState {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	if st == nil {
		return Initial()
	}
	return st
}

// Dispatch reduces action into the state and notifies observers and
// subscribers. Subscribers run only when the state changed; they must not
// block or dispatch.
func (s *Store) Dispatch(action Action) *AppState {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	if prev == nil {
		prev = Initial()
	}
	next := Reduce(prev, action)
	s.state = next
	observers := s.observers
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, obs := range observers {
		obs(prev, action, next)
	}
	if next != prev {
		for _, sub := range subs {
			sub.fn(next)
		}
	}
	return next
}

// Subscribe registers fn for state changes and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (s *Store) Subscribe(fn func(*AppState)) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[*subscription]struct{})
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
		})
	}
}
