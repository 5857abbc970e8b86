package search

import (
	"sync"
	"time"

	"tripscout/query"
	"tripscout/services"
)

// Session is the stored result set for one requester's most recent
// successful search. It backs pagination and the save action; a new
// successful search for the same requester replaces it wholesale.
type Session struct {
	Query     query.ParsedQuery
	Flights   []services.FlightOffer
	Hotels    []services.HotelOffer
	Ranking   services.Ranking
	Nights    int
	CreatedAt time.Time
}

// SessionStore holds at most one Session per requester, in memory, for the
// process lifetime. It also hands out a per-requester slot lock so two
// searches for the same requester never run concurrently: the slower one
// cannot clobber the session written by a newer search.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	slots    map[int64]*sync.Mutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		slots:    make(map[int64]*sync.Mutex),
	}
}

func (s *SessionStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put overwrites any prior session for the requester.
func (s *SessionStore) Put(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *SessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Slot returns the lock serializing searches for one requester. Slots are
// created lazily and never removed; the per-user footprint is one mutex.
func (s *SessionStore) Slot(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[userID]
	if !ok {
		slot = &sync.Mutex{}
		s.slots[userID] = slot
	}
	return slot
}
