// Package dashboard serves the local operator surface: a websocket feed
// of hub events plus a small REST API consumed by posctl and the web UI.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"posguard/app/services/diagnostics"
	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/internal/configstore"
	"posguard/internal/netguard"
	"posguard/internal/hub"
	"posguard/internal/netprobe"
)

// clientBuffer sizes each subscriber channel. A dashboard that cannot
// drain this many events loses the oldest ones.
const clientBuffer = 64

// ConfigStore exposes the device inventory
type ConfigStore interface {
	Snapshot() configstore.Config
	Mutate(fn func(*configstore.Config) bool) error
}

// StatusReader reports the most recent monitoring pass
type StatusReader interface {
	LastStatus() (netstatus.NetworkStatus, netstatus.Vitals)
}

// DiagnosticsRunner runs an on-demand ping burst. Results arrive over
// the hub, not the return value, so the websocket handler fires and forgets.
type DiagnosticsRunner interface {
	Run(ctx context.Context, target string) (netprobe.BurstResult, error)
}

// inboundMessage is what dashboard clients may send over the socket. Older
// dashboard builds key the message kind on "type", newer ones on "action";
// both are accepted.
type inboundMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Target string `json:"target"`
}

func (m inboundMessage) kind() string {
	if m.Type != "" {
		return m.Type
	}
	return m.Action
}

type (
	Handler struct {
		store    ConfigStore
		status   StatusReader
		diag     DiagnosticsRunner
		events   *hub.Hub
		agentID  string
		upgrader websocket.Upgrader
	}
	StatusResponse struct {
		Network netstatus.NetworkStatus `json:"network"`
		Vitals  netstatus.Vitals        `json:"vitals"`
	}
	MonitorRequest struct {
		IsMonitored bool `json:"is_monitored"`
	}
	DiagnoseRequest struct {
		Target string `json:"target"`
	}
)

func NewHandler(store ConfigStore, status StatusReader, diag DiagnosticsRunner, events *hub.Hub, agentID string) *Handler {
	return &Handler{
		store:   store,
		status:  status,
		diag:    diag,
		events:  events,
		agentID: agentID,
		upgrader: websocket.Upgrader{
			// Local-only surface, the browser dashboard may come from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Status returns the latest network status and vitals
func (h *Handler) Status(c echo.Context) error {
	network, vitals := h.status.LastStatus()
	return c.JSON(http.StatusOK, StatusResponse{Network: network, Vitals: vitals})
}

// Devices returns the current inventory
func (h *Handler) Devices(c echo.Context) error {
	cfg := h.store.Snapshot()
	return c.JSON(http.StatusOK, cfg.Devices)
}

// SetMonitored toggles monitoring for one device by MAC
func (h *Handler) SetMonitored(c echo.Context) error {
	var req MonitorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	mac := device.CanonicalMAC(c.Param("mac"))
	var updated *device.Device
	err := h.store.Mutate(func(cfg *configstore.Config) bool {
		d := cfg.FindDevice(mac)
		if d == nil || d.IsMonitored == req.IsMonitored {
			return false
		}
		d.IsMonitored = req.IsMonitored
		copied := *d
		updated = &copied
		return true
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to save device: " + err.Error(),
		})
	}

	if updated == nil {
		snapshot := h.store.Snapshot()
		if snapshot.FindDevice(mac) == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Device not found"})
		}
		// no change requested, echo the current state back
		d := snapshot.FindDevice(mac)
		return c.JSON(http.StatusOK, d)
	}

	h.events.Broadcast(hub.UpdateDevice(h.agentID, *updated))
	return c.JSON(http.StatusOK, updated)
}

// Diagnose runs a synchronous ping burst for posctl and other REST callers
func (h *Handler) Diagnose(c echo.Context) error {
	var req DiagnoseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	result, err := h.diag.Run(c.Request().Context(), req.Target)
	if err != nil {
		switch {
		case errors.Is(err, netguard.ErrBusy):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, diagnostics.ErrInvalidTarget):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, result)
}

// Connect upgrades to a websocket and bridges the hub to the client
func (h *Handler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	clientID := uuid.NewString()
	ch := make(chan hub.Event, clientBuffer)
	h.events.Register(clientID, ch)
	log.WithField("client", clientID).Info("dashboard client connected")

	defer func() {
		h.events.Unregister(clientID)
		conn.Close()
		log.WithField("client", clientID).Info("dashboard client disconnected")
	}()

	cfg := h.store.Snapshot()
	if err := h.writeEvent(conn, hub.DeviceList(h.agentID, cfg.Devices)); err != nil {
		return nil
	}

	done := make(chan struct{})
	go h.readLoop(c.Request().Context(), conn, done)

	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := h.writeEvent(conn, ev); err != nil {
				return nil
			}
		}
	}
}

func (h *Handler) writeEvent(conn *websocket.Conn, ev hub.Event) error {
	raw, err := ev.Marshal()
	if err != nil {
		log.WithError(err).Warn("dropping unmarshalable event")
		return nil
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}

// readLoop handles inbound client messages until the socket closes
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithError(err).Debug("ignoring malformed dashboard message")
			continue
		}

		switch msg.kind() {
		case "run_diagnostics":
			// result and errors travel back over the hub broadcast
			go h.diag.Run(ctx, msg.Target) //nolint:errcheck
		default:
			log.WithField("action", msg.kind()).Debug("ignoring unknown dashboard action")
		}
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.Status)
	g.GET("/devices", h.Devices)
	g.POST("/devices/:mac/monitor", h.SetMonitored)
	g.POST("/diagnostics", h.Diagnose)
	g.GET("/ws", h.Connect)
}
