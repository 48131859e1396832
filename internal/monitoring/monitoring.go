// Package monitoring serves the read-only device inspection routes. All of
// them are admin-only and run exactly one show command per request.
package monitoring

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/metrics"
	"github.com/Gibrhan/Autoconf/internal/server"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

// Module serves the monitoring routes.
type Module struct {
	inventory *inventory.FileStore
	transport transport.Opener
	sessions  *auth.SessionStore
	logger    *zap.Logger
}

// NewModule wires the inventory store and transport client into handlers.
func NewModule(inv *inventory.FileStore, tc transport.Opener, sessions *auth.SessionStore, logger *zap.Logger) *Module {
	return &Module{inventory: inv, transport: tc, sessions: sessions, logger: logger}
}

// Routes lists the monitoring endpoints.
func (m *Module) Routes() []server.Route {
	return []server.Route{
		{Method: "POST", Path: "/monitoring/config", Handler: m.showHandler("show running-config", "config")},
		{Method: "POST", Path: "/monitoring/interfaces", Handler: m.showHandler("show ip interface brief", "interfaces")},
		{Method: "POST", Path: "/monitoring/cdp", Handler: m.showHandler("show cdp neighbors detail", "cdp_neighbors")},
		{Method: "POST", Path: "/monitoring/traffic", Handler: m.showHandler("show interfaces", "traffic_info")},
	}
}

type deviceRequest struct {
	DeviceName string `json:"device_name"`
}

// showHandler builds the fixed pipeline shared by every monitoring route:
// authenticate, authorize, resolve device, run one command, envelope.
func (m *Module) showHandler(command, payloadKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok, forbidden := m.sessions.RequireAdmin(r); !ok {
			if forbidden {
				server.Forbidden(w)
			} else {
				server.Unauthenticated(w)
			}
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

		output, err := sess.Run(command)
		if err != nil {
			m.logger.Warn("monitoring command failed",
				zap.String("device", dev.Name),
				zap.String("command", command),
				zap.Error(err),
			)
			server.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}

		server.WriteJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"device":    dev.Name,
			payloadKey:  output,
			"timestamp": server.Timestamp(),
		})
	}
}
