// Package auth gates the HTTP surface behind a session cookie. Credentials
// come from an injected Provider; sessions live server-side keyed by an
// opaque token with no expiry (valid until logout or process restart).
package auth

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/Gibrhan/Autoconf/internal/config"
)

// Roles understood by the authorization gates.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// CookieName carries the session token.
const CookieName = "autoconf_session"

// User is one entry in the credential table.
type User struct {
	Username string
	Password string
	Role     string
}

// Session records an authenticated principal.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Provider validates login credentials.
type Provider interface {
	// Login returns the matched user. ok is false on any mismatch; callers
	// must not reveal whether the username or the password was wrong.
	Login(username, password string) (User, bool)
}

// StaticProvider holds a fixed in-memory credential table.
type StaticProvider struct {
	users map[string]User
}

// NewStaticProvider builds a provider from the auth.users config subtree
// (username -> {password, role}).
func NewStaticProvider(cfg *config.Config) *StaticProvider {
	users := make(map[string]User)
	for username := range cfg.GetStringMap("auth.users") {
		sub := cfg.Sub("auth.users." + username)
		users[username] = User{
			Username: username,
			Password: sub.GetString("password"),
			Role:     sub.GetString("role"),
		}
	}
	return &StaticProvider{users: users}
}

// Login implements Provider with an exact-match lookup.
func (p *StaticProvider) Login(username, password string) (User, bool) {
	u, ok := p.users[username]
	if !ok || u.Password != password {
		return User{}, false
	}
	return u, true
}

// SessionStore holds live sessions keyed by token.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Create registers a new session and returns its token.
func (s *SessionStore) Create(username, role string) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = Session{Username: username, Role: role}
	s.mu.Unlock()
	return token
}

// Get returns the session for token.
func (s *SessionStore) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Delete destroys the session for token.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// FromRequest resolves the session referenced by the request cookie.
func (s *SessionStore) FromRequest(r *http.Request) (Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, false
	}
	return s.Get(c.Value)
}

// RequireSession returns the request's session, or ok=false when the
// request is unauthenticated.
func (s *SessionStore) RequireSession(r *http.Request) (Session, bool) {
	return s.FromRequest(r)
}

// RequireAdmin returns the request's session only when it carries the
// admin role. forbidden distinguishes "logged in but not admin" (403)
// from "not logged in at all" (401).
func (s *SessionStore) RequireAdmin(r *http.Request) (sess Session, ok, forbidden bool) {
	sess, ok = s.FromRequest(r)
	if !ok {
		return Session{}, false, false
	}
	if sess.Role != RoleAdmin {
		return Session{}, false, true
	}
	return sess, true, false
}
