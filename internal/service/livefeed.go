// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/sportz/internal/adapter/otel"
	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/feed"
	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/hub"
	"github.com/Strob0t/sportz/internal/port/broadcast"
)

// Dispatcher fans an event out to a topic's subscribers. *hub.Hub
// implements it.
type Dispatcher interface {
	Publish(topic feed.Topic, eventType feed.EventType, payload any) (hub.PublishResult, error)
}

var _ broadcast.Broadcaster = (*LiveFeed)(nil)

// LiveFeed is the publish facade the REST services call after a write has
// committed. It maps domain events to topics and never lets a hub failure
// escape into the caller's request.
type LiveFeed struct {
	dispatcher Dispatcher
	log        *slog.Logger
}

// NewLiveFeed creates a LiveFeed publishing through d.
func NewLiveFeed(d Dispatcher, log *slog.Logger) *LiveFeed {
	if log == nil {
		log = slog.Default()
	}
	return &LiveFeed{dispatcher: d, log: log.With("component", "livefeed")}
}

// PublishMatchCreated sends MATCH_CREATED to the global topic.
func (l *LiveFeed) PublishMatchCreated(ctx context.Context, m match.Match) broadcast.Outcome {
	return l.publish(ctx, feed.Global, feed.MatchCreated, m)
}

// PublishCommentaryCreated sends COMMENTARY_CREATED to match:<matchID>.
func (l *LiveFeed) PublishCommentaryCreated(ctx context.Context, matchID int64, c commentary.Commentary) broadcast.Outcome {
	if matchID <= 0 {
		err := fmt.Errorf("%w: invalid match id %d", hub.ErrDispatch, matchID)
		l.log.WarnContext(ctx, "live publish skipped", "event", feed.CommentaryCreated, "error", err)
		return broadcast.Outcome{Err: err}
	}
	return l.publish(ctx, feed.MatchTopic(matchID), feed.CommentaryCreated, c)
}

func (l *LiveFeed) publish(ctx context.Context, topic feed.Topic, eventType feed.EventType, payload any) (out broadcast.Outcome) {
	_, span := otel.StartPublishSpan(ctx, string(eventType), topic.String())
	out.Topic = topic.String()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: panic: %v", hub.ErrDispatch, r)
		}
		if out.Err != nil {
			l.log.WarnContext(ctx, "live publish failed",
				"event", eventType, "topic", topic, "error", out.Err)
		} else {
			l.log.DebugContext(ctx, "live publish",
				"event", eventType, "topic", topic, "sequence", out.Sequence, "recipients", out.Recipients)
		}
		otel.EndSpan(span, out.Err)
	}()

	res, err := l.dispatcher.Publish(topic, eventType, payload)
	out.Sequence = res.Sequence
	out.Recipients = res.Recipients
	out.Err = err
	return out
}
