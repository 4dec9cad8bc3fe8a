// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for exporting committed events to downstream
// consumers. It is not used for hub fan-out.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the queue connection.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for exported events.
const (
	SubjectMatchCreated      = "sportz.matches.created"
	SubjectCommentaryCreated = "sportz.commentary.created"
)

// Nop is a Queue that discards every message. It stands in when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, []byte) error { return nil }
func (Nop) Close() error                                  { return nil }
func (Nop) IsConnected() bool                             { return false }
