package session

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Store holds live sessions. A session expires after idle time without
// being looked up.
type Store struct {
	sessions *gocache.Cache
	idle     time.Duration
	deps     Deps
}

// NewStore returns a Store that creates sessions with deps.
func NewStore(deps Deps, idle time.Duration) *Store {
	return &Store{
		sessions: gocache.New(idle, idle/2+time.Second),
		idle:     idle,
		deps:     deps,
	}
}

// Create starts and registers a new session.
func (st *Store) Create() *Session {
	s := New(st.deps)
	st.sessions.Set(s.ID, s, gocache.DefaultExpiration)
	return s
}

// Get returns the session and extends its lifetime.
func (st *Store) Get(id string) (*Session, error) {
	v, ok := st.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	st.sessions.Set(id, s, gocache.DefaultExpiration)
	return s, nil
}

// Delete drops a session and its staged files.
func (st *Store) Delete(id string) bool {
	if _, ok := st.sessions.Get(id); !ok {
		return false
	}
	st.sessions.Delete(id)
	return true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.sessions.ItemCount()
}
