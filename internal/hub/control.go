package hub

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

// Control applies a client control frame and queues the reply on the same
// connection inside one critical section, so an acknowledgement always
// precedes the first envelope of a newly subscribed topic.
//
// Rejected frames are answered with an ERROR reply and reported as
// ErrSubscription; the connection stays open.
func (h *Hub) Control(id string, frame feed.ControlFrame) error {
	h.mu.Lock()
	c, ok := h.reg.get(id)
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: control %s: %w", ErrSubscription, id, ErrUnknownConnection)
	}

	reply := feed.Reply{Action: frame.Action, Topic: frame.Topic}
	var opErr error
	switch frame.Action {
	case feed.ActionPing:
		reply.Type = feed.ReplyPong
	case feed.ActionSubscribe, feed.ActionUnsubscribe:
		topic, err := feed.ParseTopic(frame.Topic)
		if err != nil {
			opErr = fmt.Errorf("%w: %w", ErrSubscription, err)
			break
		}
		if frame.Action == feed.ActionSubscribe {
			_, opErr = h.subscribeLocked(id, topic)
			reply.Type = feed.ReplySubscribed
		} else {
			_, opErr = h.unsubscribeLocked(id, topic)
			reply.Type = feed.ReplyUnsubscribed
		}
	default:
		opErr = fmt.Errorf("%w: unknown action %q", ErrSubscription, frame.Action)
	}

	if opErr != nil {
		reply.Type = feed.ReplyError
		reply.Error = opErr.Error()
	}
	closed, replyErr := h.replyLocked(c, reply)
	h.mu.Unlock()

	h.afterReply(c, closed, replyErr)
	return opErr
}

// Reject queues an ERROR reply for a frame that could not be decoded.
func (h *Hub) Reject(id string, cause error) error {
	h.mu.Lock()
	c, ok := h.reg.get(id)
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: reject %s: %w", ErrSubscription, id, ErrUnknownConnection)
	}
	err := fmt.Errorf("%w: %w", ErrSubscription, cause)
	closed, replyErr := h.replyLocked(c, feed.Reply{Type: feed.ReplyError, Error: err.Error()})
	h.mu.Unlock()

	h.afterReply(c, closed, replyErr)
	return err
}

// replyLocked queues reply on c and reports whether the close-on-full
// policy closed c. It does no logging; callers pass the result to
// afterReply once h.mu is released.
func (h *Hub) replyLocked(c *Connection, reply feed.Reply) (bool, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return false, err
	}
	if c.enqueue(data, h.policy == DropOldest) == queueFull {
		return h.closeLocked(c, CloseTryAgainLater, reasonBackpressure), nil
	}
	return false, nil
}

func (h *Hub) afterReply(c *Connection, closed bool, err error) {
	if err != nil {
		h.log.Error("marshal control reply", "conn_id", c.id, "error", err)
	}
	if closed {
		h.logClosed(c, reasonBackpressure)
	}
}
