package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionUser is the authenticated account as returned by the login and
// /me endpoints.
type SessionUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	Role       string `json:"role"`
	CompanyID  string `json:"companyId,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
}

// Impersonation is present while a super admin is acting inside a tenant.
type Impersonation struct {
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
	ReadOnly    bool   `json:"readOnly"`
	// OriginalToken restores the super admin session when impersonation ends.
	OriginalToken string `json:"originalToken"`
}

// ActiveLocation marks a location-tracking session that survives restarts
// so the tracker can resume or close it.
type ActiveLocation struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
}

// FailedImport records a row that a partial bulk save could not create, so
// it can be retried after the rest of the batch succeeded.
type FailedImport struct {
	Payload json.RawMessage `json:"payload"`
	Reason  string          `json:"reason"`
	At      time.Time       `json:"at"`
}

// Session is everything the client persists between runs.
type Session struct {
	AccessToken    string          `json:"accessToken,omitempty"`
	RefreshToken   string          `json:"refreshToken,omitempty"`
	User           *SessionUser    `json:"user,omitempty"`
	Impersonation  *Impersonation  `json:"impersonation,omitempty"`
	ActiveLocation *ActiveLocation `json:"activeLocation,omitempty"`
	FailedImports  []FailedImport  `json:"failedImports,omitempty"`
}

// SessionStore holds the current session and mirrors it to disk. Every
// mutation replaces the whole session atomically; readers always see either
// the previous or the new state, never a partial one.
type SessionStore struct {
	mu      sync.RWMutex
	path    string
	current *Session
}

func NewSessionStore(path string) (*SessionStore, error) {
	store := &SessionStore{path: path}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		// A corrupt session file means starting logged out, not failing.
		return store, nil
	}
	store.current = &session
	return store, nil
}

// Current returns a copy of the session, or nil when logged out.
func (s *SessionStore) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Replace swaps the whole session and persists it.
func (s *SessionStore) Replace(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &session
	return s.persistLocked()
}

// Update applies fn to a copy of the current session (zero session when
// logged out) and installs the result.
func (s *SessionStore) Update(fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var session Session
	if s.current != nil {
		session = *s.current
	}
	fn(&session)
	s.current = &session
	return s.persistLocked()
}

// Clear drops the session entirely, including the on-disk copy.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *SessionStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Decision is the outcome of a route guard check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

// Gate decides whether the current session may enter a view that requires
// one of the given roles. No session means login; a session with the wrong
// role is sent to its own landing page rather than an error screen.
func (s *SessionStore) Gate(requiredRoles ...string) (Decision, string) {
	session := s.Current()
	if session == nil || session.AccessToken == "" || session.User == nil {
		return RedirectLogin, "/login"
	}
	if len(requiredRoles) == 0 {
		return Allow, ""
	}
	for _, role := range requiredRoles {
		if session.User.Role == role {
			return Allow, ""
		}
	}
	return RedirectHome, HomeFor(session.User.Role)
}

// HomeFor maps a role to its landing route.
func HomeFor(role string) string {
	if role == "super_admin" {
		return "/superadmin"
	}
	return "/"
}
