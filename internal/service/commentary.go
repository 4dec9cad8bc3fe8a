package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/port/broadcast"
	"github.com/Strob0t/sportz/internal/port/database"
)

// CommentaryService handles commentary business logic.
type CommentaryService struct {
	store   database.Store
	matches *MatchService
	feed    broadcast.Broadcaster
	export  *Exporter
	log     *slog.Logger
}

// NewCommentaryService creates a new CommentaryService. Matches are resolved
// through ms so its cache is shared.
func NewCommentaryService(store database.Store, ms *MatchService, fb broadcast.Broadcaster, exp *Exporter) *CommentaryService {
	if exp == nil {
		exp = NewExporter(nil, nil, nil)
	}
	return &CommentaryService{
		store:   store,
		matches: ms,
		feed:    fb,
		export:  exp,
		log:     slog.Default().With("component", "commentary_service"),
	}
}

// List returns the newest commentary of a match. Unknown matches yield
// domain.ErrNotFound.
func (s *CommentaryService) List(ctx context.Context, matchID int64, limit int) ([]commentary.Commentary, error) {
	if _, err := s.matches.Get(ctx, matchID); err != nil {
		return nil, err
	}
	return s.store.ListCommentary(ctx, matchID, commentary.ListLimit(limit))
}

// Create stores a commentary entry for an existing match and pushes it to
// the match's live subscribers.
func (s *CommentaryService) Create(ctx context.Context, matchID int64, req *commentary.CreateRequest) (*commentary.Commentary, error) {
	if _, err := s.matches.Get(ctx, matchID); err != nil {
		return nil, err
	}
	if err := commentary.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	c, err := s.store.CreateCommentary(ctx, matchID, req)
	if err != nil {
		return nil, err
	}

	out := s.feed.PublishCommentaryCreated(ctx, matchID, *c)
	_ = s.export.CommentaryCreated(ctx, *c, out.Sequence)

	s.log.InfoContext(ctx, "commentary created",
		"match_id", matchID, "commentary_id", c.ID, "event_type", c.EventType, "live_recipients", out.Recipients)
	return c, nil
}
