package hub

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// MonitorConfig configures the heartbeat monitor. Zero values select
// defaults.
type MonitorConfig struct {
	Interval    time.Duration // time between sweeps
	Timeout     time.Duration // how long a single probe may wait for a pong
	MaxMissed   int           // consecutive failed probes before eviction
	Concurrency int           // probes in flight per sweep
}

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultHeartbeatTimeout  = 10 * time.Second
	defaultMaxMissed         = 2
	defaultProbeConcurrency  = 64
)

// Monitor probes every OPEN connection on a fixed interval and evicts those
// that stop answering. Probes are control traffic and never consume a topic
// sequence number.
type Monitor struct {
	hub *Hub
	cfg MonitorConfig
	log *slog.Logger
}

// NewMonitor creates a heartbeat monitor for h.
func NewMonitor(h *Hub, cfg MonitorConfig) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHeartbeatTimeout
	}
	if cfg.MaxMissed <= 0 {
		cfg.MaxMissed = defaultMaxMissed
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultProbeConcurrency
	}
	return &Monitor{hub: h, cfg: cfg, log: h.log.With("component", "heartbeat")}
}

// Run sweeps every Interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.cfg.Interval)
	defer t.Stop()

	m.log.Info("heartbeat monitor started",
		"interval", m.cfg.Interval, "timeout", m.cfg.Timeout, "max_missed", m.cfg.MaxMissed)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep probes all OPEN connections once and returns how many were evicted.
func (m *Monitor) Sweep(ctx context.Context) int {
	var evicted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for _, c := range m.hub.List() {
		if c.State() != StateOpen {
			continue
		}
		g.Go(func() error {
			if m.probe(gctx, c) {
				evicted.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := evicted.Load(); n > 0 {
		m.log.Info("heartbeat sweep evicted connections", "count", n)
	}
	return int(evicted.Load())
}

// probe reports whether c was evicted by this probe.
func (m *Monitor) probe(ctx context.Context, c *Connection) bool {
	pctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	err := c.transport.Ping(pctx)
	if err == nil {
		c.MarkAlive(m.hub.now())
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	m.hub.metrics.HeartbeatMissed()
	missed := int(c.missed.Add(1))
	m.log.Debug("heartbeat missed", "conn_id", c.id, "missed", missed, "error", err)
	if missed < m.cfg.MaxMissed {
		return false
	}
	return m.hub.close(c, CloseGoingAway, reasonHeartbeat)
}
