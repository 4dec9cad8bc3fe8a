// Package broadcast defines the port for pushing committed domain events to
// live subscribers.
package broadcast

import (
	"context"

	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
)

// Outcome reports what happened to one published event. A non-nil Err has
// already been logged; callers must not fail their write because of it.
type Outcome struct {
	Topic      string
	Sequence   uint64
	Recipients int
	Err        error
}

// OK reports whether the event reached the dispatcher.
func (o Outcome) OK() bool { return o.Err == nil }

// Broadcaster publishes committed matches and commentary to live clients.
// Call each method exactly once per successfully persisted record.
type Broadcaster interface {
	PublishMatchCreated(ctx context.Context, m match.Match) Outcome
	PublishCommentaryCreated(ctx context.Context, matchID int64, c commentary.Commentary) Outcome
}
