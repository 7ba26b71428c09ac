package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HubMetrics instruments the hub. A nil *HubMetrics records nothing.
type HubMetrics struct {
	connections   metric.Int64Counter
	activeClients metric.Int64UpDownCounter
	messagesSent  metric.Int64Counter
	dropped       metric.Int64Counter
	connDuration  metric.Float64Histogram
}

// NewHubMetrics creates the websocket instruments from meter.
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	connections, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"websocket_active_clients",
		metric.WithDescription("Currently connected WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	sent, err := meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Messages queued to WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"websocket_messages_dropped_total",
		metric.WithDescription("Messages dropped because a queue was full"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("WebSocket connection lifetime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &HubMetrics{
		connections:   connections,
		activeClients: active,
		messagesSent:  sent,
		dropped:       dropped,
		connDuration:  duration,
	}, nil
}

func (m *HubMetrics) recordConnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, 1)
	m.activeClients.Add(ctx, 1)
}

func (m *HubMetrics) recordDisconnect(ctx context.Context, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.activeClients.Add(ctx, -1)
	m.connDuration.Record(ctx, lifetime.Seconds())
}

func (m *HubMetrics) recordSent(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.messagesSent.Add(ctx, int64(n))
}

func (m *HubMetrics) recordDropped(ctx context.Context, where string) {
	if m == nil {
		return
	}
	m.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", where)))
}
