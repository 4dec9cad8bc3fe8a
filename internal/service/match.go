package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/port/broadcast"
	"github.com/Strob0t/sportz/internal/port/cache"
	"github.com/Strob0t/sportz/internal/port/database"
)

const matchCacheTTL = 5 * time.Minute

// MatchService handles match business logic.
type MatchService struct {
	store  database.Store
	cache  cache.Cache
	feed   broadcast.Broadcaster
	export *Exporter
	log    *slog.Logger
}

// NewMatchService creates a new MatchService. c may be nil to disable
// caching; exp may be nil to disable export.
func NewMatchService(store database.Store, c cache.Cache, fb broadcast.Broadcaster, exp *Exporter) *MatchService {
	if exp == nil {
		exp = NewExporter(nil, nil, nil)
	}
	return &MatchService{
		store:  store,
		cache:  c,
		feed:   fb,
		export: exp,
		log:    slog.Default().With("component", "match_service"),
	}
}

func matchCacheKey(id int64) string {
	return "match:" + strconv.FormatInt(id, 10)
}

// List returns the newest matches, at most match.MaxListLimit.
func (s *MatchService) List(ctx context.Context, limit int) ([]match.Match, error) {
	return s.store.ListMatches(ctx, match.ListLimit(limit))
}

// Get returns a match by ID, consulting the cache first.
func (s *MatchService) Get(ctx context.Context, id int64) (*match.Match, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, matchCacheKey(id)); err == nil && ok {
			var m match.Match
			if err := json.Unmarshal(data, &m); err == nil {
				return &m, nil
			}
		}
	}

	m, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, m)
	return m, nil
}

// Create validates and stores a match, then announces it on the live feed
// and exports it. Live and export failures do not fail the request.
func (s *MatchService) Create(ctx context.Context, req *match.CreateRequest) (*match.Match, error) {
	if err := match.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	m, err := s.store.CreateMatch(ctx, req)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, m)

	out := s.feed.PublishMatchCreated(ctx, *m)
	_ = s.export.MatchCreated(ctx, *m, out.Sequence)

	s.log.InfoContext(ctx, "match created", "match_id", m.ID, "sport", m.Sport, "live_recipients", out.Recipients)
	return m, nil
}

func (s *MatchService) remember(ctx context.Context, m *match.Match) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, matchCacheKey(m.ID), data, matchCacheTTL); err != nil {
		s.log.WarnContext(ctx, "match cache set failed", "match_id", m.ID, "error", err)
	}
}
