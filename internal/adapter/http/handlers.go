package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LiveStats exposes the live feed counters shown by /health and /api/v1/live/stats.
type LiveStats interface {
	Count() int
	TopicCount() int
}

// Handlers holds the service dependencies for HTTP handlers.
type Handlers struct {
	Matches    *service.MatchService
	Commentary *service.CommentaryService
	DB         Pinger
	Live       LiveStats
	Version    string
}

const healthPingTimeout = 2 * time.Second

// Root handles GET /
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Sportz API!"})
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type healthStatus struct {
		Status      string `json:"status"`
		Postgres    string `json:"postgres"`
		Connections int    `json:"connections"`
	}

	status := healthStatus{Status: "ok", Postgres: "up"}
	if h.Live != nil {
		status.Connections = h.Live.Count()
	}
	code := http.StatusOK
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Postgres = "down"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

// APIVersion handles GET /api/v1/
func (h *Handlers) APIVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
}

// LiveStats handles GET /api/v1/live/stats
func (h *Handlers) LiveStats(w http.ResponseWriter, _ *http.Request) {
	type liveStats struct {
		Connections int `json:"connections"`
		Topics      int `json:"topics"`
	}
	var s liveStats
	if h.Live != nil {
		s.Connections = h.Live.Count()
		s.Topics = h.Live.TopicCount()
	}
	writeData(w, http.StatusOK, s)
}

// ListMatches handles GET /api/v1/matches
func (h *Handlers) ListMatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r, match.MaxListLimit)
	if !ok {
		return
	}
	matches, err := h.Matches.List(r.Context(), limit)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if matches == nil {
		matches = []match.Match{}
	}
	writeData(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/{id}
func (h *Handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Matches.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "match not found")
		return
	}
	writeData(w, http.StatusOK, m)
}

// CreateMatch handles POST /api/v1/matches
func (h *Handlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[match.CreateRequest](w, r)
	if !ok {
		return
	}
	m, err := h.Matches.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err, "match not found")
		return
	}
	writeData(w, http.StatusCreated, m)
}

// ListCommentary handles GET /api/v1/matches/{id}/commentary
func (h *Handlers) ListCommentary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	limit, ok := limitParam(w, r, commentary.MaxListLimit)
	if !ok {
		return
	}
	entries, err := h.Commentary.List(r.Context(), id, limit)
	if err != nil {
		writeDomainError(w, r, err, "match not found")
		return
	}
	if entries == nil {
		entries = []commentary.Commentary{}
	}
	writeData(w, http.StatusOK, entries)
}

// CreateCommentary handles POST /api/v1/matches/{id}/commentary
func (h *Handlers) CreateCommentary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[commentary.CreateRequest](w, r)
	if !ok {
		return
	}
	c, err := h.Commentary.Create(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, r, err, "match not found")
		return
	}
	writeData(w, http.StatusCreated, c)
}
