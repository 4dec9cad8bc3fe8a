package hub

import (
	"errors"
	"testing"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

func TestControlSubscribeAcknowledgesBeforeEnvelopes(t *testing.T) {
	h := newTestHub(Options{})
	c, tr := register(t, h)
	nextFrame(t, tr) // welcome

	if err := h.Control(c.ID(), feed.ControlFrame{Action: feed.ActionSubscribe, Topic: "match:42"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Publish(feed.MatchTopic(42), feed.CommentaryCreated, "x"); err != nil {
		t.Fatal(err)
	}

	ack := nextFrame(t, tr)
	if ack.Type != feed.ReplySubscribed || ack.Topic != "match:42" {
		t.Fatalf("expected SUBSCRIBED ack, got %+v", ack)
	}
	if env := nextFrame(t, tr); env.Sequence != 1 {
		t.Fatalf("expected envelope after ack, got %+v", env)
	}
}

func TestControlUnsubscribe(t *testing.T) {
	h := newTestHub(Options{})
	c, tr := register(t, h, feed.Global)
	nextFrame(t, tr)

	if err := h.Control(c.ID(), feed.ControlFrame{Action: feed.ActionUnsubscribe, Topic: "global"}); err != nil {
		t.Fatal(err)
	}
	if fr := nextFrame(t, tr); fr.Type != feed.ReplyUnsubscribed {
		t.Fatalf("expected UNSUBSCRIBED, got %+v", fr)
	}
	if len(h.MembersOf(feed.Global)) != 0 {
		t.Fatal("expected no members")
	}
}

func TestControlRejectsBadFramesWithoutClosing(t *testing.T) {
	h := newTestHub(Options{})
	c, tr := register(t, h)
	other, otherTr := register(t, h)
	nextFrame(t, tr)
	nextFrame(t, otherTr)

	tests := []feed.ControlFrame{
		{Action: feed.ActionSubscribe, Topic: "match:abc"},
		{Action: feed.ActionSubscribe, Topic: ""},
		{Action: "shout", Topic: "global"},
	}
	for _, frame := range tests {
		err := h.Control(c.ID(), frame)
		if !errors.Is(err, ErrSubscription) {
			t.Fatalf("frame %+v: expected ErrSubscription, got %v", frame, err)
		}
		reply := nextFrame(t, tr)
		if reply.Type != feed.ReplyError || reply.Error == "" {
			t.Fatalf("frame %+v: expected ERROR reply, got %+v", frame, reply)
		}
	}

	if c.State() != StateOpen {
		t.Fatal("control errors must not close the connection")
	}
	if other.State() != StateOpen {
		t.Fatal("control errors must not affect other connections")
	}
	select {
	case data := <-otherTr.written:
		t.Fatalf("other connection received %s", data)
	default:
	}
}

func TestControlPing(t *testing.T) {
	h := newTestHub(Options{})
	c, tr := register(t, h)
	nextFrame(t, tr)

	if err := h.Control(c.ID(), feed.ControlFrame{Action: feed.ActionPing}); err != nil {
		t.Fatal(err)
	}
	if fr := nextFrame(t, tr); fr.Type != feed.ReplyPong {
		t.Fatalf("expected PONG, got %+v", fr)
	}
}

func TestRejectAndUnknownConnection(t *testing.T) {
	h := newTestHub(Options{})
	c, tr := register(t, h)
	nextFrame(t, tr)

	if err := h.Reject(c.ID(), errors.New("malformed json")); !errors.Is(err, ErrSubscription) {
		t.Fatalf("expected ErrSubscription, got %v", err)
	}
	if fr := nextFrame(t, tr); fr.Type != feed.ReplyError {
		t.Fatalf("expected ERROR, got %+v", fr)
	}

	err := h.Control("missing", feed.ControlFrame{Action: feed.ActionPing})
	if !errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("expected ErrUnknownConnection, got %v", err)
	}
}
