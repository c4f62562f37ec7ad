// ABOUTME: In-memory operator session holding the credential after a confirmed login
// ABOUTME: Never persisted; generations let callers discard responses that outlive a logout

package session

import (
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned when a credential is requested while no
// operator is logged in.
var ErrNotAuthenticated = errors.New("not authenticated")

// State is the authentication state of the session.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session holds the operator secret for the lifetime of the process.
type Session struct {
	mu         sync.RWMutex
	credential []byte
	state      State
	generation uint64
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{}
}

// Establish stores the credential. Callers invoke it only after the
// authority has confirmed the login.
func (s *Session) Establish(password string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	s.credential = []byte(password)
	s.state = Authenticated
	s.generation++
	return s.generation
}

// Credential returns the stored secret.
func (s *Session) Credential() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return "", ErrNotAuthenticated
	}
	return string(s.credential), nil
}

// Destroy wipes the credential and returns to Unauthenticated.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	s.state = Unauthenticated
	s.generation++
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Generation changes on every Establish and Destroy.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Current reports whether gen is still the live authenticated generation.
func (s *Session) Current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == Authenticated && s.generation == gen
}

// wipeLocked must be called with mu held.
func (s *Session) wipeLocked() {
	for i := range s.credential {
		s.credential[i] = 0
	}
	s.credential = nil
}
