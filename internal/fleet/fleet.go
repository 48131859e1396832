// Package fleet serves the device listing and reachability routes. These
// require an authenticated session but not the admin role.
package fleet

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/metrics"
	"github.com/Gibrhan/Autoconf/internal/probe"
	"github.com/Gibrhan/Autoconf/internal/server"
)

// Module serves the fleet routes.
type Module struct {
	inventory *inventory.FileStore
	prober    probe.Prober
	sessions  *auth.SessionStore
	logger    *zap.Logger
}

// NewModule wires the inventory store and prober into HTTP handlers.
func NewModule(inv *inventory.FileStore, prober probe.Prober, sessions *auth.SessionStore, logger *zap.Logger) *Module {
	return &Module{inventory: inv, prober: prober, sessions: sessions, logger: logger}
}

// Routes lists the fleet endpoints.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "GET", Path: "/devices", Handler: m.handleListDevices},
		{Method: "GET", Path: "/ping", Handler: m.handlePingList},
		{Method: "POST", Path: "/ping", Handler: m.handlePing},
	}
}

// deviceView is the listing shape; credentials never leave the server.
type deviceView struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	DeviceType string `json:"device_type,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (m *Module) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.sessions.RequireSession(r); !ok {
		server.Unauthenticated(w)
		return
	}

	devices := m.inventory.Load()
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{Name: d.Name, Host: d.Host, DeviceType: d.DeviceType})
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"devices": views})
}

// handlePingList returns the fleet with unknown status; no probing happens
// on the GET side.
func (m *Module) handlePingList(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.sessions.RequireSession(r); !ok {
		server.Unauthenticated(w)
		return
	}

	devices := m.inventory.Load()
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{Name: d.Name, Host: d.Host, Status: "unknown"})
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"devices": views})
}

type pingRequest struct {
	Target string `json:"target"`
}

// pingResult pairs one device with its probe outcome.
type pingResult struct {
	Name      string       `json:"name"`
	Host      string       `json:"host"`
	Result    probe.Result `json:"result"`
	Timestamp string       `json:"timestamp"`
}

// handlePing probes one named device, or every device sequentially when the
// target is "all" (the default). Latency scales linearly with fleet size.
func (m *Module) handlePing(w http.ResponseWriter, r *http.Request) {
	if _, ok := m.sessions.RequireSession(r); !ok {
		server.Unauthenticated(w)
		return
	}

	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Target == "" {
		req.Target = "all"
	}

	devices := m.inventory.Load()

	var targets []inventory.Device
	if req.Target == "all" {
		targets = devices
	} else {
		dev, err := m.inventory.FindByName(req.Target)
		if err != nil {
			server.DeviceNotFound(w)
			return
		}
		targets = []inventory.Device{*dev}
	}

	results := make([]pingResult, 0, len(targets))
	for _, d := range targets {
		m.logger.Info("probing device", zap.String("name", d.Name), zap.String("host", d.Host))
		res := m.prober.Probe(r.Context(), d.Host)
		metrics.ProbesTotal.WithLabelValues(res.Status).Inc()
		results = append(results, pingResult{
			Name:      d.Name,
			Host:      d.Host,
			Result:    res,
			Timestamp: server.Timestamp(),
		})
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
