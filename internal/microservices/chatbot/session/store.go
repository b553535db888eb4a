package session

import (
	"sort"
	"sync"
	"time"
)

type Session struct {
	Phone        string
	State        State
	LastActiveAt time.Time
}

// Store holds dialog sessions in memory. Every method is atomic per call;
// callers serialize whole turns per phone themselves.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewStore uses now for activity stamps; nil means time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{sessions: make(map[string]Session), now: now}
}

func (s *Store) copyOf(sess Session) Session {
	sess.State = sess.State.clone()
	return sess
}

// GetOrCreate returns the phone's session, starting one at AskName if absent.
func (s *Store) GetOrCreate(phone string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[phone]
	if !ok {
		sess = Session{Phone: phone, State: AskName{}, LastActiveAt: s.now()}
		s.sessions[phone] = sess
	}
	return s.copyOf(sess)
}

func (s *Store) Get(phone string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[phone]
	if !ok {
		return Session{}, false
	}
	return s.copyOf(sess), true
}

// Save replaces the state and counts as activity.
func (s *Store) Save(phone string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[phone] = Session{Phone: phone, State: st.clone(), LastActiveAt: s.now()}
}

func (s *Store) Remove(phone string) {
	s.mu.Lock()
	delete(s.sessions, phone)
	s.mu.Unlock()
}

func (s *Store) Touch(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[phone]; ok {
		sess.LastActiveAt = s.now()
		s.sessions[phone] = sess
	}
}

// Sweep removes sessions idle for longer than ttl at now and returns their
// phones, sorted.
func (s *Store) Sweep(now time.Time, ttl time.Duration) []string {
	cutoff := now.Add(-ttl)
	s.mu.Lock()
	var evicted []string
	for phone, sess := range s.sessions {
		if sess.LastActiveAt.Before(cutoff) {
			delete(s.sessions, phone)
			evicted = append(evicted, phone)
		}
	}
	s.mu.Unlock()
	sort.Strings(evicted)
	return evicted
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Now exposes the store clock so the sweeper and the store agree on time.
func (s *Store) Now() time.Time { return s.now() }
