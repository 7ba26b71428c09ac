package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"vahanpulse/internal/infrastructure"
	"vahanpulse/pkg/contracts/domain"
)

// Message types
const (
	TypeConnection    = "connection"
	TypePipelineEvent = "pipeline:event"
)

const broadcastQueue = 64

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	clientCount atomic.Int64
	dropped     atomic.Int64

	metrics *HubMetrics
	logger  *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubMetrics records hub activity.
func WithHubMetrics(m *HubMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves register, unregister and broadcast requests until ctx ends,
// then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	h.logger.InfoContext(ctx, "Hub started")

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.remove(ctx, client)
			}
			h.logger.Info("Hub shutting down", slog.Int64("dropped_messages", h.dropped.Load()))
			return nil

		case client := <-h.register:
			h.clients[client] = true
			count := h.clientCount.Add(1)
			h.metrics.recordConnect(ctx)

			h.logger.InfoContext(client.context(), "Client registered",
				slog.Int64("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			welcome, err := encode(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"message":   "Connected to vahanpulse pipeline feed",
				"client_id": client.id,
			}, client.traceID)
			if err == nil {
				h.deliver(ctx, client, welcome)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(ctx, client)
			}

		case message := <-h.broadcast:
			sent := 0
			for client := range h.clients {
				if h.deliver(ctx, client, message) {
					sent++
				}
			}
			h.metrics.recordSent(ctx, sent)
			h.logger.DebugContext(ctx, "Broadcast message",
				slog.Int("client_count", sent),
				slog.Int("message_size", len(message)))
		}
	}
}

// deliver queues message for client, disconnecting it when its buffer is full.
func (h *Hub) deliver(ctx context.Context, client *Client, message []byte) bool {
	select {
	case client.send <- message:
		return true
	default:
		h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		h.metrics.recordDropped(ctx, "client")
		h.remove(ctx, client)
		return false
	}
}

func (h *Hub) remove(ctx context.Context, client *Client) {
	delete(h.clients, client)
	close(client.send)
	count := h.clientCount.Add(-1)
	lifetime := time.Since(client.connectedAt)
	h.metrics.recordDisconnect(ctx, lifetime)

	h.logger.InfoContext(client.context(), "Client unregistered",
		slog.Int64("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", lifetime))
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish broadcasts a pipeline event. It never blocks; when the queue is
// full the event is dropped.
func (h *Hub) Publish(event domain.PipelineEvent) {
	message, err := encode(TypePipelineEvent, event, event.RunID)
	if err != nil {
		h.logger.Error("Error marshaling pipeline event",
			slog.String("error", err.Error()),
			slog.String("stage", string(event.Stage)))
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.dropped.Add(1)
		h.metrics.recordDropped(context.Background(), "broadcast")
		h.logger.Warn("Broadcast queue full, dropping pipeline event",
			slog.String("run_id", event.RunID),
			slog.String("stage", string(event.Stage)),
			slog.String("status", string(event.Status)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// Dropped returns the number of events dropped on a full broadcast queue.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func encode(msgType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	})
}
