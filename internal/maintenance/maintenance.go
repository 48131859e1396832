// Package maintenance serves the admin maintenance routes: the patch
// simulation narrative, YAML command templates, and configuration backups.
package maintenance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Gibrhan/Autoconf/internal/audit"
	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/metrics"
	"github.com/Gibrhan/Autoconf/internal/server"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

// patchSteps is the fixed narrative returned by the patch simulation. No
// device I/O happens beyond resolving the name.
var patchSteps = []string{
	"Checking current system version...",
	"Downloading patch file...",
	"Verifying file integrity...",
	"Creating configuration backup...",
	"Applying security patch...",
	"Restarting services...",
	"Verifying operation...",
	"Patch applied successfully",
}

// Module serves the maintenance routes.
type Module struct {
	inventory *inventory.FileStore
	transport transport.Opener
	sessions  *auth.SessionStore
	recorder  *audit.Recorder
	backupDir string
	logger    *zap.Logger
}

// NewModule wires the maintenance dependencies into HTTP handlers.
func NewModule(inv *inventory.FileStore, tc transport.Opener, sessions *auth.SessionStore,
	recorder *audit.Recorder, backupDir string, logger *zap.Logger) *Module {
	return &Module{
		inventory: inv,
		transport: tc,
		sessions:  sessions,
		recorder:  recorder,
		backupDir: backupDir,
		logger:    logger,
	}
}

// Routes lists the maintenance endpoints.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/maintenance/patch_simulation", Handler: m.handlePatchSimulation},
		{Method: "POST", Path: "/maintenance/apply_template", Handler: m.handleApplyTemplate},
		{Method: "POST", Path: "/maintenance/backup", Handler: m.handleBackup},
	}
}

// gate runs the admin check shared by every maintenance route.
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

type deviceRequest struct {
	DeviceName string `json:"device_name"`
}

func (m *Module) handlePatchSimulation(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.gate(w, r); !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dev, err := m.inventory.FindByName(req.DeviceName)
	if err != nil {
		server.DeviceNotFound(w)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"device":           dev.Name,
		"simulation_steps": patchSteps,
		"status":           "completed",
		"timestamp":        server.Timestamp(),
	})
}

type applyTemplateRequest struct {
	DeviceName      string `json:"device_name"`
	TemplateContent string `json:"template_content"`
}

// commandTemplate is the YAML document shape accepted by apply_template.
type commandTemplate struct {
	Commands []string `yaml:"commands"`
}

// commandResult is one entry in the per-command outcome sequence.
type commandResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
	Status  string `json:"status"`
}

// handleApplyTemplate applies a YAML command template. Failures are
// per-command: a failing line records an error entry and execution
// continues with the next line.
func (m *Module) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req applyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dev, err := m.inventory.FindByName(req.DeviceName)
	if err != nil {
		server.DeviceNotFound(w)
		return
	}

	var tmpl commandTemplate
	if err := yaml.Unmarshal([]byte(req.TemplateContent), &tmpl); err != nil {
		server.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid YAML template: %v", err))
		return
	}
	if len(tmpl.Commands) == 0 {
		server.WriteError(w, http.StatusBadRequest, `template must contain a "commands" section`)
		return
	}

	sess, err := m.transport.Open(*dev)
	if err != nil {
		metrics.TransportSessionsTotal.WithLabelValues("error").Inc()
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()
	metrics.TransportSessionsTotal.WithLabelValues("ok").Inc()

	results := make([]commandResult, 0, len(tmpl.Commands))
	for _, command := range tmpl.Commands {
		output, err := sess.Run(command)
		if err != nil {
			results = append(results, commandResult{
				Command: command,
				Output:  err.Error(),
				Status:  "error",
			})
			continue
		}
		results = append(results, commandResult{
			Command: command,
			Output:  output,
			Status:  "success",
		})
	}

	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "maintenance.apply_template",
		Device:   dev.Name,
		Detail:   fmt.Sprintf("%d commands", len(tmpl.Commands)),
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"device":    dev.Name,
		"results":   results,
		"timestamp": server.Timestamp(),
	})
}

// handleBackup pulls the running configuration and writes it to a
// timestamped file under the backup directory.
func (m *Module) handleBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := m.gate(w, r)
	if !ok {
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dev, err := m.inventory.FindByName(req.DeviceName)
	if err != nil {
		server.DeviceNotFound(w)
		return
	}

	sess, err := m.transport.Open(*dev)
	if err != nil {
		metrics.TransportSessionsTotal.WithLabelValues("error").Inc()
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close()
	metrics.TransportSessionsTotal.WithLabelValues("ok").Inc()

	output, err := sess.Run("show running-config")
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := os.MkdirAll(m.backupDir, 0o750); err != nil {
		server.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("create backup dir: %v", err))
		return
	}
	filename := filepath.Join(m.backupDir,
		fmt.Sprintf("backup_%s_%s.txt", dev.Name, time.Now().Format("20060102150405")))
	if err := os.WriteFile(filename, []byte(output), 0o600); err != nil {
		server.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("write backup: %v", err))
		return
	}

	m.logger.Info("configuration backed up",
		zap.String("device", dev.Name),
		zap.String("file", filename),
	)
	m.recorder.Record(r.Context(), audit.Entry{
		Username: user.Username,
		Action:   "maintenance.backup",
		Device:   dev.Name,
		Detail:   filename,
	})

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   fmt.Sprintf("backup saved as %s", filename),
		"timestamp": server.Timestamp(),
	})
}
