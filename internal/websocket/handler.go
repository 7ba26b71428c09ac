package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"vahanpulse/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to a Hub.
type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	allowAll       bool
	timing         Timing
	logger         *slog.Logger
}

// HandlerConfig configures the upgrade handler.
type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// AllowedOrigins lists permitted Origin headers; "*" allows any.
	AllowedOrigins []string
	Timing         Timing
}

// NewHandler creates the /ws handler.
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Handler{
		hub:            hub,
		allowedOrigins: make(map[string]bool, len(cfg.AllowedOrigins)),
		timing:         cfg.Timing,
		logger:         logger.With(slog.String("component", "websocket.handler")),
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			h.allowAll = true
		}
		h.allowedOrigins[origin] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// same-origin requests and non-browser clients send no Origin
	if origin == "" || h.allowAll {
		return true
	}
	if h.allowedOrigins[origin] {
		return true
	}
	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin))
	return false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	client := NewClient(h.hub, gorillaConn{conn}, traceID, h.timing, h.logger)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
