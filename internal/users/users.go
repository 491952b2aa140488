// Package users tracks the logged-in user.
package users

import "sync"

// User is the account the client is logged in as.
type User struct {
	ID    int
	Name  string
	Motto string
	Look  string
}

// Manager holds the current user. Safe for concurrent use so that the
// admin endpoint and the CLI can read it while the session writes.
type Manager struct {
	mu      sync.RWMutex
	current *User
}

// NewManager creates a Manager with no current user.
func NewManager() *Manager {
	return &Manager{}
}

// SetCurrentUser records the logged-in user and returns it.
func (m *Manager) SetCurrentUser(id int, name, motto, look string) User {
	u := User{ID: id, Name: name, Motto: motto, Look: look}

	m.mu.Lock()
	m.current = &u
	m.mu.Unlock()
	return u
}

// Current returns the current user, if any.
func (m *Manager) Current() (User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return User{}, false
	}
	return *m.current, true
}

// Clear forgets the current user.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}
