package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/sportz/internal/adapter/otel"
	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/port/messagequeue"
	"github.com/Strob0t/sportz/internal/resilience"
)

const exportTimeout = 5 * time.Second

// Exporter forwards committed records to the message queue for downstream
// consumers. Failures are logged and never reach the caller.
type Exporter struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	log     *slog.Logger
	now     func() time.Time
}

// NewExporter creates an Exporter. A nil queue selects messagequeue.Nop.
func NewExporter(q messagequeue.Queue, b *resilience.Breaker, log *slog.Logger) *Exporter {
	if q == nil {
		q = messagequeue.Nop{}
	}
	if b == nil {
		b = resilience.NewBreaker(5, 30*time.Second)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{queue: q, breaker: b, log: log.With("component", "export"), now: time.Now}
}

// MatchCreated exports a committed match.
func (e *Exporter) MatchCreated(ctx context.Context, m match.Match, sequence uint64) error {
	return e.send(ctx, messagequeue.SubjectMatchCreated, messagequeue.MatchCreatedPayload{
		MatchID:    m.ID,
		Match:      m,
		Sequence:   sequence,
		ExportedAt: e.now().UTC(),
	})
}

// CommentaryCreated exports a committed commentary entry.
func (e *Exporter) CommentaryCreated(ctx context.Context, c commentary.Commentary, sequence uint64) error {
	return e.send(ctx, messagequeue.SubjectCommentaryCreated, messagequeue.CommentaryCreatedPayload{
		MatchID:    c.MatchID,
		Commentary: c,
		Sequence:   sequence,
		ExportedAt: e.now().UTC(),
	})
}

func (e *Exporter) send(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		err = fmt.Errorf("export %s: %w", subject, err)
		e.log.ErrorContext(ctx, "export marshal failed", "subject", subject, "error", err)
		return err
	}

	// The record is committed; the export must outlive the request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()
	ctx, span := otel.StartExportSpan(ctx, subject)

	err = e.breaker.Execute(ctx, func(ctx context.Context) error {
		return e.queue.Publish(ctx, subject, data)
	})
	otel.EndSpan(span, err)
	if err != nil {
		e.log.WarnContext(ctx, "export failed", "subject", subject, "breaker", e.breaker.State(), "error", err)
	}
	return err
}
