package ws

import (
	"context"
	"fmt"

	"github.com/coder/websocket"

	"github.com/Strob0t/sportz/internal/hub"
)

// transport adapts a coder/websocket connection to hub.Transport.
type transport struct {
	conn *websocket.Conn
}

func (t *transport) Write(ctx context.Context, data []byte) error {
	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("ws write: %w", err)
	}
	return nil
}

// Ping needs the handler's read loop running to receive the pong.
func (t *transport) Ping(ctx context.Context) error {
	if err := t.conn.Ping(ctx); err != nil {
		return fmt.Errorf("ws ping: %w", err)
	}
	return nil
}

func (t *transport) Close(code hub.CloseCode, reason string) error {
	return t.conn.Close(statusFor(code), reason)
}

func statusFor(code hub.CloseCode) websocket.StatusCode {
	switch code {
	case hub.CloseNormal:
		return websocket.StatusNormalClosure
	case hub.CloseGoingAway:
		return websocket.StatusGoingAway
	case hub.CloseTryAgainLater:
		return websocket.StatusTryAgainLater
	case hub.ClosePolicyViolation:
		return websocket.StatusPolicyViolation
	default:
		return websocket.StatusInternalError
	}
}
