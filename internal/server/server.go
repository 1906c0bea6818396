package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kelder/breeze/internal/config"
	"github.com/kelder/breeze/internal/engine"
	"github.com/kelder/breeze/internal/logging"
	"github.com/kelder/breeze/internal/protocol"
)

// Config holds the bridge server configuration
type Config struct {
	Addr string // Listen address, host:port
}

// Server bridges the UDP device engine onto HTTP and WebSocket. It
// exposes the session table as JSON, accepts commands, and pushes a
// device snapshot to every WebSocket client whenever a session's cache
// changes.
type Server struct {
	config     *Config
	controller *engine.Controller
	registry   *config.Registry
	httpServer *http.Server
	hub        *hub
}

// New creates a new Server instance. Wire PushUpdate into the
// controller's update callback before starting the controller.
func New(cfg *Config, controller *engine.Controller, registry *config.Registry) *Server {
	s := &Server{
		config:     cfg,
		controller: controller,
		registry:   registry,
		hub:        newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", s.handleListDevices)
	mux.HandleFunc("GET /devices/{mac}", s.handleGetDevice)
	mux.HandleFunc("POST /devices/{mac}/command", s.handleCommand)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start starts the server and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	logging.Info("Starting bridge server",
		zap.String("addr", s.config.Addr),
	)

	go s.hub.run()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge server...")
	s.hub.close()
	return s.httpServer.Shutdown(ctx)
}

// PushUpdate broadcasts a device snapshot to every WebSocket client.
// Hook this into the controller's update callback.
func (s *Server) PushUpdate(sess *engine.Session) {
	s.hub.broadcast(s.deviceView(sess))
}

// deviceView is the JSON shape of one device, shared by the REST
// endpoints and the WebSocket push.
type deviceView struct {
	MAC       string         `json:"mac"`
	Nickname  string         `json:"nickname,omitempty"`
	Brand     string         `json:"brand,omitempty"`
	Model     string         `json:"model,omitempty"`
	Firmware  string         `json:"firmware,omitempty"`
	Address   string         `json:"address"`
	Bound     bool           `json:"bound"`
	Available bool           `json:"available"`
	Status    map[string]any `json:"status"`
}

// deviceView snapshots one session. Reading the status here counts as an
// observation, so polling a device over HTTP keeps its refresh loop
// alive just like the command-line client does.
func (s *Server) deviceView(sess *engine.Session) deviceView {
	id := sess.Identity()
	status, err := sess.Status()

	return deviceView{
		MAC:       id.MAC,
		Nickname:  s.registry.DisplayName(id.MAC, id.Name),
		Brand:     id.Brand,
		Model:     id.Model,
		Firmware:  id.Firmware,
		Address:   id.Addr.String(),
		Bound:     sess.Bound(),
		Available: err == nil,
		Status:    decodeStatus(status),
	}
}

// decodeStatus renders raw wire columns as capability names, with
// categorical values spelled out and numeric values passed through.
func decodeStatus(status map[string]int) map[string]any {
	out := make(map[string]any, len(status))
	for code, v := range status {
		name, ok := protocol.LookupCode(code)
		if !ok {
			continue
		}
		f, _ := protocol.Lookup(name)
		if vn, ok := f.ValueName(v); ok {
			out[name] = vn
		} else {
			out[name] = v
		}
	}
	return out
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	sessions := s.controller.Sessions()
	views := make([]deviceView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, s.deviceView(sess))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.controller.Session(r.PathValue("mac"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown device")
		return
	}
	writeJSON(w, http.StatusOK, s.deviceView(sess))
}

// commandRequest is the POST body for a device command. Assignments are
// a list, not an object, so the request order is the wire order.
type commandRequest struct {
	Set []struct {
		Capability string `json:"capability"`
		Value      string `json:"value"`
	} `json:"set"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.controller.Session(r.PathValue("mac"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown device")
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Set) == 0 {
		writeError(w, http.StatusBadRequest, "empty command")
		return
	}

	var fields []protocol.FieldValue
	for _, assign := range req.Set {
		fv, err := protocol.ParseSetting(assign.Capability, assign.Value)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fields = append(fields, fv...)
	}

	if err := sess.Command(fields); err != nil {
		if errors.Is(err, engine.ErrNotBound) {
			writeError(w, http.StatusConflict, "device not bound yet")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Commands are fire-and-forget; the acknowledgement arrives over the
	// WebSocket push when the device answers
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
