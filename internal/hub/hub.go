// Package hub is the in-process real-time broadcast hub. It tracks live
// connections, groups them into topics and fans published events out to each
// topic's subscribers.
//
// All shared state (registry, subscription index, per-topic sequence
// counters) lives behind one mutex. No network I/O happens while it is held:
// each connection has a bounded outbound queue drained by its own writer
// goroutine, and heartbeat probes run outside the lock.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

// BackpressurePolicy decides what happens when a connection's outbound queue
// is full.
type BackpressurePolicy string

const (
	// DropOldest evicts the oldest unsent frame to make room.
	DropOldest BackpressurePolicy = "drop_oldest"
	// CloseSlow closes the connection instead.
	CloseSlow BackpressurePolicy = "close"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (BackpressurePolicy, error) {
	switch BackpressurePolicy(s) {
	case DropOldest, CloseSlow:
		return BackpressurePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown backpressure policy %q", s)
	}
}

// Close reasons reported to logs and metrics.
const (
	reasonClient       = "client"
	reasonHeartbeat    = "heartbeat"
	reasonBackpressure = "backpressure"
	reasonWriteError   = "write_error"
	reasonShutdown     = "shutdown"
)

// Options configures a Hub. Zero values select defaults.
type Options struct {
	QueueCapacity          int
	Policy                 BackpressurePolicy
	WriteTimeout           time.Duration
	MaxTopicsPerConnection int
	Logger                 *slog.Logger
	Metrics                Metrics
	Now                    func() time.Time
	NewID                  func() string
}

const (
	defaultQueueCapacity = 64
	defaultWriteTimeout  = 10 * time.Second
)

// Hub is the broadcast hub.
type Hub struct {
	mu        sync.Mutex
	reg       registry
	idx       index
	sequences map[feed.Topic]uint64
	capacity  int
	policy    BackpressurePolicy
	maxTopics int
	closed    bool

	writeTimeout time.Duration
	log          *slog.Logger
	metrics      Metrics
	now          func() time.Time
	newID        func() string
}

// New creates a Hub.
func New(opts Options) *Hub {
	h := &Hub{
		reg:          newRegistry(),
		idx:          newIndex(),
		sequences:    make(map[feed.Topic]uint64),
		capacity:     opts.QueueCapacity,
		policy:       opts.Policy,
		maxTopics:    opts.MaxTopicsPerConnection,
		writeTimeout: opts.WriteTimeout,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if h.capacity <= 0 {
		h.capacity = defaultQueueCapacity
	}
	if h.policy == "" {
		h.policy = DropOldest
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.log = h.log.With("component", "hub")
	if h.metrics == nil {
		h.metrics = nopMetrics{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h
}

// SetBackpressure replaces the queue capacity for new connections and the
// policy applied from the next publish on.
func (h *Hub) SetBackpressure(capacity int, policy BackpressurePolicy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if capacity > 0 {
		h.capacity = capacity
	}
	if policy != "" {
		h.policy = policy
	}
}

// Register admits a connection, subscribes it to the initial topics and
// queues a WELCOME frame, all in one critical section so that no event
// published after Register returns can be missed. The connection is OPEN
// on return.
func (h *Hub) Register(t Transport, remoteAddr string, topics []feed.Topic) (*Connection, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if h.maxTopics > 0 && len(topics) > h.maxTopics {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %d initial topics exceed limit %d", ErrHandshake, len(topics), h.maxTopics)
	}

	c := newConnection(t, remoteAddr, h.capacity, h.now())
	c.id = h.newID()
	h.reg.add(c)
	c.state.Store(int32(StateOpen))
	for _, topic := range topics {
		h.idx.add(c, topic)
	}
	if welcome, err := json.Marshal(feed.Reply{
		Type:         feed.ReplyWelcome,
		ConnectionID: c.id,
		Topics:       h.idx.topicsOf(c.id),
	}); err == nil {
		c.enqueue(welcome, true)
	}
	h.mu.Unlock()

	go c.writeLoop(h)

	h.metrics.ConnectionOpened()
	h.log.Info("connection registered",
		"conn_id", c.id, "remote", remoteAddr, "topics", len(topics))
	return c, nil
}

// close is the only destruction path. Registry removal and index cleanup
// happen in one critical section together with the move to CLOSING. It
// reports false when c was already closing.
func (h *Hub) close(c *Connection, code CloseCode, reason string) bool {
	h.mu.Lock()
	closed := h.closeLocked(c, code, reason)
	h.mu.Unlock()
	if closed {
		h.logClosed(c, reason)
	}
	return closed
}

func (h *Hub) closeLocked(c *Connection, code CloseCode, reason string) bool {
	if !c.beginClose(code, reason) {
		return false
	}
	if cur, ok := h.reg.get(c.id); ok && cur == c {
		h.reg.remove(c.id)
	}
	h.idx.removeAll(c.id)
	return true
}

// logClosed must be called without h.mu held.
func (h *Hub) logClosed(c *Connection, reason string) {
	h.metrics.ConnectionClosed(reason)
	switch reason {
	case reasonBackpressure:
		h.log.Warn("connection closed", "conn_id", c.id, "reason", reason, "error", ErrBackpressure)
	case reasonWriteError:
		h.log.Warn("connection closed", "conn_id", c.id, "reason", reason)
	default:
		h.log.Info("connection closed", "conn_id", c.id, "reason", reason)
	}
}

// Shutdown closes every connection and rejects further registrations. It
// waits for writers to release their transports or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	conns := h.reg.list()
	var closed []*Connection
	for _, c := range conns {
		if h.closeLocked(c, CloseGoingAway, reasonShutdown) {
			closed = append(closed, c)
		}
	}
	h.mu.Unlock()

	for _, c := range closed {
		h.logClosed(c, reasonShutdown)
	}
	for _, c := range conns {
		select {
		case <-c.Done():
		case <-ctx.Done():
			return fmt.Errorf("hub shutdown: %w", ctx.Err())
		}
	}
	return nil
}
