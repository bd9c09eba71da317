// Package session keeps per-visitor dashboard state, currently just the
// selected year, keyed by a random session ID.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is one visitor's session
type State struct {
	ID       string
	Year     int
	Created  time.Time
	LastSeen time.Time
}

// HasYear reports whether the visitor picked a year yet
func (s State) HasYear() bool {
	return s.Year != 0
}

// Store holds sessions in memory. Sessions idle for longer than the TTL are
// discarded the next time a session is started.
type Store struct {
	ttl    time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*State
}

// NewStore creates a store whose sessions expire after ttl of inactivity
func NewStore(ttl time.Duration, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*State),
	}
}

// Start creates a new session
func (s *Store) Start() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	now := s.now()
	st := &State{
		ID:       uuid.NewString(),
		Created:  now,
		LastSeen: now,
	}
	s.sessions[st.ID] = st
	s.logger.Debugf("session %s started", st.ID)
	return *st
}

// Get returns the session for id and marks it as seen. Unknown, malformed
// or expired IDs report false.
func (s *Store) Get(id string) (State, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return State{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return State{}, false
	}
	now := s.now()
	if s.expired(st, now) {
		delete(s.sessions, id)
		return State{}, false
	}
	st.LastSeen = now
	return *st, true
}

// SetYear records the year selection for id. It reports false when the
// session no longer exists.
func (s *Store) SetYear(id string, year int) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok || s.expired(st, s.now()) {
		return State{}, false
	}
	st.Year = year
	st.LastSeen = s.now()
	return *st, true
}

// End removes a session
func (s *Store) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close discards every session
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.sessions); n > 0 {
		s.logger.Infof("discarding %d dashboard sessions", n)
	}
	s.sessions = make(map[string]*State)
}

func (s *Store) expired(st *State, now time.Time) bool {
	return s.ttl > 0 && now.Sub(st.LastSeen) > s.ttl
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, st := range s.sessions {
		if s.expired(st, now) {
			delete(s.sessions, id)
		}
	}
}
