// Package security serves the admin routes that push configuration to
// devices: password rotation, device user management, ACLs, and the fixed
// security audit, plus the operation audit log listing.
package security

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/audit"
	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/metrics"
	"github.com/Gibrhan/Autoconf/internal/server"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

// auditCommands is the fixed inspection list run by the security audit.
var auditCommands = []string{
	"show running-config",
	"show users",
	"show privilege",
}

// Module serves the security routes.
type Module struct {
	inventory *inventory.FileStore
	transport transport.Opener
	sessions  *auth.SessionStore
	recorder  *audit.Recorder
	logger    *zap.Logger
}

// NewModule wires the security dependencies into HTTP handlers.
func NewModule(inv *inventory.FileStore, tc transport.Opener, sessions *auth.SessionStore,
	recorder *audit.Recorder, logger *zap.Logger) *Module {
	return &Module{
		inventory: inv,
		transport: tc,
		sessions:  sessions,
		recorder:  recorder,
		logger:    logger,
	}
}

// Routes lists the security endpoints.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/security/change_password", Handler: m.handleChangePassword},
		{Method: "POST", Path: "/security/manage_users", Handler: m.handleManageUsers},
		{Method: "POST", Path: "/security/configure_acls", Handler: m.handleConfigureACLs},
		{Method: "POST", Path: "/security/audit", Handler: m.handleAudit},
		{Method: "GET", Path: "/audit_log", Handler: m.handleAuditLog},
	}
}

func (m *Module) gate(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok, forbidden := m.sessions.RequireAdmin(r)
	if !ok {
		if forbidden {
			server.Forbidden(w)
		} else {
			server.Unauthenticated(w)
		}
		return auth.Session{}, false
	}
	return sess, true
}

// resolve decodes nothing; it maps a device name onto an open session with
// the shared gate-order semantics (404 before any transport I/O).
func (m *Module) resolve(w http.ResponseWriter, name string) (*inventory.Device, transport.Conn, bool) {
	dev, err := m.inventory.FindByName(name)
	if err != nil {
		server.DeviceNotFound(w)
		return nil, nil, false
	}

	sess, err := m.transport.Open(*dev)
	if err != nil {
		metrics.TransportSessionsTotal.WithLabelValues("error").Inc()
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return nil, nil, false
	}
	metrics.TransportSessionsTotal.WithLabelValues("ok").Inc()
	return dev, sess, true
}

type changePasswordRequest struct {
	DeviceName       string `json:"device_name"`
	NewPassword      string `json:"new_password"`
	UsernameToChange string `json:"username_to_change"`
}

func (m *Module) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UsernameToChange == "" {
		req.UsernameToChange = "admin"
	}

	dev, sess, ok := m.resolve(w, req.DeviceName)
	if !ok {
		return
	}
	defer sess.Close()

	output, err := sess.RunConfigSet([]string{
		fmt.Sprintf("username %s password %s", req.UsernameToChange, req.NewPassword),
	})
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	saveOutput, err := sess.Persist()
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "security.change_password",
		Device:   dev.Name,
		Detail:   fmt.Sprintf("user %s", req.UsernameToChange),
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"device":      dev.Name,
		"message":     fmt.Sprintf("password changed for user %s", req.UsernameToChange),
		"output":      output,
		"save_output": saveOutput,
		"timestamp":   server.Timestamp(),
	})
}

type manageUsersRequest struct {
	DeviceName string `json:"device_name"`
	Action     string `json:"action"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (m *Module) handleManageUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req manageUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var commands []string
	var message string
	switch req.Action {
	case "add":
		commands = []string{fmt.Sprintf("username %s privilege 15 password %s", req.Username, req.Password)}
		message = fmt.Sprintf("user %s added", req.Username)
	case "remove":
		commands = []string{fmt.Sprintf("no username %s", req.Username)}
		message = fmt.Sprintf("user %s removed", req.Username)
	default:
		server.WriteError(w, http.StatusBadRequest, "invalid action")
		return
	}

	dev, sess, ok := m.resolve(w, req.DeviceName)
	if !ok {
		return
	}
	defer sess.Close()

	output, err := sess.RunConfigSet(commands)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "security.manage_users",
		Device:   dev.Name,
		Detail:   fmt.Sprintf("%s %s", req.Action, req.Username),
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"output":    output,
		"timestamp": server.Timestamp(),
	})
}

type configureACLsRequest struct {
	DeviceName  string   `json:"device_name"`
	ACLCommands []string `json:"acl_commands"`
}

// handleConfigureACLs pushes the caller-supplied lines without any
// allow-listing, matching the original surface. See DESIGN.md before
// tightening this.
func (m *Module) handleConfigureACLs(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req configureACLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dev, sess, ok := m.resolve(w, req.DeviceName)
	if !ok {
		return
	}
	defer sess.Close()

	output, err := sess.RunConfigSet(req.ACLCommands)
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "security.configure_acls",
		Device:   dev.Name,
		Detail:   fmt.Sprintf("%d lines", len(req.ACLCommands)),
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "ACLs configured",
		"output":    output,
		"timestamp": server.Timestamp(),
	})
}

type deviceRequest struct {
	DeviceName string `json:"device_name"`
}

// handleAudit runs the fixed inspection commands and returns a map of
// command to raw output. Per-command errors are recorded inline.
func (m *Module) handleAudit(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dev, sess, ok := m.resolve(w, req.DeviceName)
	if !ok {
		return
	}
	defer sess.Close()

	results := make(map[string]string, len(auditCommands))
	for _, command := range auditCommands {
		output, err := sess.Run(command)
		if err != nil {
			results[command] = err.Error()
			continue
		}
		results[command] = output
	}

	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "security.audit",
		Device:   dev.Name,
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "security audit completed",
		"results":   results,
		"timestamp": server.Timestamp(),
	})
}

// handleAuditLog lists recent operation audit entries.
func (m *Module) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.gate(w, r); !ok {
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	entries, err := m.recorder.List(r.Context(), limit)
	if err != nil {
		m.logger.Warn("failed to list audit entries", zap.Error(err))
		server.WriteError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
