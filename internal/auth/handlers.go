package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/server"
)

// Module serves the authentication routes.
type Module struct {
	provider Provider
	sessions *SessionStore
	logger   *zap.Logger
}

// NewModule wires the auth provider and session store into HTTP handlers.
func NewModule(provider Provider, sessions *SessionStore, logger *zap.Logger) *Module {
	return &Module{provider: provider, sessions: sessions, logger: logger}
}

// Routes lists the authentication endpoints.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/login", Handler: m.handleLogin},
		{Method: "POST", Path: "/logout", Handler: m.handleLogout},
		{Method: "GET", Path: "/check_auth", Handler: m.handleCheckAuth},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, ok := m.provider.Login(req.Username, req.Password)
	if !ok {
		// Deliberately does not say which field was wrong.
		server.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "incorrect username or password",
		})
		return
	}

	token := m.sessions.Create(user.Username, user.Role)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.Info("user logged in", zap.String("username", user.Username), zap.String("role", user.Role))
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"role":     user.Role,
		"username": user.Username,
	})
}

func (m *Module) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		m.sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	server.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (m *Module) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	sess, ok := m.sessions.FromRequest(r)
	if !ok {
		server.WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      sess.Username,
		"role":          sess.Role,
	})
}
