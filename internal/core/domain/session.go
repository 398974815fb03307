package domain

import "sync"

// Session is the process-wide record of the current user, role, and active
// location. It is constructor-injected wherever needed rather than held as a
// package global, and guards its fields with a mutex because services and the
// socket listener run on separate goroutines.
//
// Lifecycle: empty at cold start; populated after a successful login or a
// profile fetch using a stored token; cleared on logout or unrecoverable
// auth failure.
type Session struct {
	mu         sync.RWMutex
	user       *User
	role       string
	locationID string
}

func NewSession() *Session { return &Session{} }

// SetUser records the current user and derives the role from the profile.
func (s *Session) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	if u != nil && u.Role != "" {
		s.role = u.Role
	}
}

// User returns the current user, or nil when no session is active.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the current user's id, or "" when no session is active.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) SetRole(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) SetLocationID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationID = id
}

// LocationID returns the active location identifier, or "" when none is set.
func (s *Session) LocationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locationID
}

// Active reports whether a user is currently associated with the session.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Clear empties the session. Called on logout and on unrecoverable auth
// failure.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.role = ""
	s.locationID = ""
}
