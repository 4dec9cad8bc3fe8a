package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

const meterName = "sportz"

// HubMetrics records hub activity. It satisfies hub.Metrics.
type HubMetrics struct {
	ConnectionsOpen   metric.Int64UpDownCounter
	ConnectionsClosed metric.Int64Counter
	EventsPublished   metric.Int64Counter
	Recipients        metric.Int64Histogram
	FramesDropped     metric.Int64Counter
	HeartbeatsMissed  metric.Int64Counter
}

// NewHubMetrics creates all metric instruments on the global meter provider.
func NewHubMetrics() (*HubMetrics, error) {
	meter := otel.Meter(meterName)
	m := &HubMetrics{}
	var err error

	m.ConnectionsOpen, err = meter.Int64UpDownCounter("sportz.ws.connections",
		metric.WithDescription("Number of open live connections"))
	if err != nil {
		return nil, err
	}

	m.ConnectionsClosed, err = meter.Int64Counter("sportz.ws.connections.closed",
		metric.WithDescription("Number of closed live connections by reason"))
	if err != nil {
		return nil, err
	}

	m.EventsPublished, err = meter.Int64Counter("sportz.events.published",
		metric.WithDescription("Number of events published by type"))
	if err != nil {
		return nil, err
	}

	m.Recipients, err = meter.Int64Histogram("sportz.events.recipients",
		metric.WithDescription("Subscribers offered each published event"))
	if err != nil {
		return nil, err
	}

	m.FramesDropped, err = meter.Int64Counter("sportz.ws.frames.dropped",
		metric.WithDescription("Frames dropped by the drop-oldest backpressure policy"))
	if err != nil {
		return nil, err
	}

	m.HeartbeatsMissed, err = meter.Int64Counter("sportz.ws.heartbeats.missed",
		metric.WithDescription("Failed heartbeat probes"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *HubMetrics) ConnectionOpened() {
	m.ConnectionsOpen.Add(context.Background(), 1)
}

func (m *HubMetrics) ConnectionClosed(reason string) {
	ctx := context.Background()
	m.ConnectionsOpen.Add(ctx, -1)
	m.ConnectionsClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *HubMetrics) Published(eventType feed.EventType, recipients int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("event.type", string(eventType)))
	m.EventsPublished.Add(ctx, 1, attrs)
	m.Recipients.Record(ctx, int64(recipients), attrs)
}

func (m *HubMetrics) Dropped(count int) {
	m.FramesDropped.Add(context.Background(), int64(count))
}

func (m *HubMetrics) HeartbeatMissed() {
	m.HeartbeatsMissed.Add(context.Background(), 1)
}
