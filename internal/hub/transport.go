package hub

import "context"

// Transport is the network handle behind a connection. The hub owns it
// exclusively once registered. Write is called only from the connection's
// writer goroutine, but Ping runs on the heartbeat monitor's goroutines and
// must be safe to call concurrently with Write. Close is called exactly once.
type Transport interface {
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close(code CloseCode, reason string) error
}

// CloseCode tells the transport why the hub is closing a connection.
type CloseCode int

const (
	CloseNormal CloseCode = iota
	CloseGoingAway
	CloseTryAgainLater
	ClosePolicyViolation
	CloseInternalError
)

func (c CloseCode) String() string {
	switch c {
	case CloseNormal:
		return "normal"
	case CloseGoingAway:
		return "going_away"
	case CloseTryAgainLater:
		return "try_again_later"
	case ClosePolicyViolation:
		return "policy_violation"
	case CloseInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}
