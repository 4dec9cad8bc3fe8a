package hub

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

// PublishResult describes the fan-out of one envelope.
type PublishResult struct {
	Topic      feed.Topic
	Sequence   uint64
	Recipients int // members the envelope was offered to
	Dropped    int // members that lost an older frame to make room
	Closed     int // members closed by the close-on-full policy
}

// Publish assigns the next sequence number of topic, wraps payload in an
// envelope and offers it to every current member of topic. It never blocks on
// a slow consumer. Publishing to a topic without members still advances its
// counter.
//
// A payload that cannot be serialized fails with ErrDispatch before a
// sequence number is consumed. Backpressure is logged after the lock is
// released.
func (h *Hub) Publish(topic feed.Topic, eventType feed.EventType, payload any) (PublishResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return PublishResult{Topic: topic}, fmt.Errorf("%w: marshal %s payload: %w", ErrDispatch, eventType, err)
	}

	h.mu.Lock()
	h.sequences[topic]++
	seq := h.sequences[topic]
	frame, err := json.Marshal(feed.Envelope{
		Type:      eventType,
		Topic:     topic,
		Payload:   raw,
		Sequence:  seq,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.sequences[topic]--
		h.mu.Unlock()
		return PublishResult{Topic: topic}, fmt.Errorf("%w: marshal envelope: %w", ErrDispatch, err)
	}

	res := PublishResult{Topic: topic, Sequence: seq}
	var dropped, closed []*Connection
	dropOldest := h.policy == DropOldest
	for _, c := range h.idx.membersOf(topic) {
		res.Recipients++
		switch c.enqueue(frame, dropOldest) {
		case enqueuedDroppedOldest:
			res.Dropped++
			dropped = append(dropped, c)
		case queueFull:
			if h.closeLocked(c, CloseTryAgainLater, reasonBackpressure) {
				res.Closed++
				closed = append(closed, c)
			}
		case enqueued, connClosed:
		}
	}
	h.mu.Unlock()

	for _, c := range dropped {
		h.log.Warn("backpressure: dropped oldest frame",
			"conn_id", c.id, "topic", topic, "sequence", seq, "capacity", c.capacity,
			"error", ErrBackpressure)
	}
	for _, c := range closed {
		h.logClosed(c, reasonBackpressure)
	}
	if res.Dropped > 0 {
		h.metrics.Dropped(res.Dropped)
	}
	h.metrics.Published(eventType, res.Recipients)
	return res, nil
}

// Sequence returns the last sequence number assigned on topic, or zero if
// nothing was published to it yet.
func (h *Hub) Sequence(topic feed.Topic) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sequences[topic]
}
