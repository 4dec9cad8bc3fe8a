package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// enqueueResult reports what happened to a frame handed to a connection.
type enqueueResult int

const (
	enqueued enqueueResult = iota
	enqueuedDroppedOldest
	queueFull
	connClosed
)

// Connection is a registered client. All exported methods are safe for
// concurrent use.
type Connection struct {
	id          string
	transport   Transport
	remoteAddr  string
	connectedAt time.Time

	state    atomic.Int32
	lastPong atomic.Int64 // unix nanoseconds
	missed   atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu          sync.Mutex
	queue       [][]byte
	capacity    int
	dropped     uint64
	closeCode   CloseCode
	closeReason string
}

func newConnection(t Transport, remoteAddr string, capacity int, now time.Time) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		transport:   t,
		remoteAddr:  remoteAddr,
		connectedAt: now,
		ctx:         ctx,
		cancel:      cancel,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		capacity:    capacity,
	}
	c.state.Store(int32(StateConnecting))
	c.lastPong.Store(now.UnixNano())
	return c
}

// ID returns the connection's unique id.
func (c *Connection) ID() string { return c.id }

// RemoteAddr returns the peer address recorded at handshake.
func (c *Connection) RemoteAddr() string { return c.remoteAddr }

// ConnectedAt returns when the connection was accepted.
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

// State returns the current lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// LastPong returns the last time the peer proved it was alive.
func (c *Connection) LastPong() time.Time { return time.Unix(0, c.lastPong.Load()) }

// MarkAlive records liveness observed outside the heartbeat probe, such as
// an inbound frame.
func (c *Connection) MarkAlive(now time.Time) {
	c.lastPong.Store(now.UnixNano())
	c.missed.Store(0)
}

// QueueDepth returns the number of frames waiting to be written.
func (c *Connection) QueueDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Dropped returns how many frames were evicted by the drop-oldest policy.
func (c *Connection) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Done is closed once the writer has stopped and the transport is released.
func (c *Connection) Done() <-chan struct{} { return c.done }

// enqueue appends frame to the outbound queue without blocking. When the
// queue is full and dropOldest is set, the oldest unsent frame is discarded.
func (c *Connection) enqueue(frame []byte, dropOldest bool) enqueueResult {
	c.mu.Lock()
	if c.State() != StateOpen {
		c.mu.Unlock()
		return connClosed
	}

	result := enqueued
	if len(c.queue) >= c.capacity {
		if !dropOldest {
			c.mu.Unlock()
			return queueFull
		}
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.dropped++
		result = enqueuedDroppedOldest
	}
	c.queue = append(c.queue, frame)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return result
}

// pop removes the next frame. It reports false once the queue is empty or the
// connection is closing.
func (c *Connection) pop() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx.Err() != nil || len(c.queue) == 0 {
		return nil, false
	}
	frame := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return frame, true
}

// beginClose moves an OPEN or CONNECTING connection to CLOSING, discards
// pending frames and cancels in-flight writes. It reports false if the
// connection was already closing.
func (c *Connection) beginClose(code CloseCode, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		cur := c.state.Load()
		if cur == int32(StateClosing) || cur == int32(StateClosed) {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(StateClosing)) {
			break
		}
	}
	c.closeCode = code
	c.closeReason = reason
	c.queue = nil
	c.cancel()
	return true
}

// writeLoop drains the outbound queue in FIFO order until the connection is
// closed, then releases the transport.
func (c *Connection) writeLoop(h *Hub) {
	defer close(c.done)
	defer c.release(h)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.wake:
		}

		for {
			frame, ok := c.pop()
			if !ok {
				break
			}
			if err := c.write(frame, h.writeTimeout); err != nil {
				if c.ctx.Err() != nil {
					return
				}
				h.log.Warn("dispatch: write failed, closing connection",
					"conn_id", c.id, "error", err)
				h.close(c, CloseInternalError, reasonWriteError)
				return
			}
		}
	}
}

func (c *Connection) write(frame []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	return c.transport.Write(ctx, frame)
}

func (c *Connection) release(h *Hub) {
	c.mu.Lock()
	code, reason := c.closeCode, c.closeReason
	c.mu.Unlock()

	if err := c.transport.Close(code, reason); err != nil {
		h.log.Debug("transport close", "conn_id", c.id, "error", err)
	}
	c.state.Store(int32(StateClosed))
}
