package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/sportz/internal/domain/match"
)

const matchColumns = `id, sport, home_team, away_team, start_time, end_time, home_score, away_score, created_at`

// ListMatches returns the newest matches first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]match.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY created_at DESC, id DESC LIMIT $1`,
		match.ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := []match.Match{}
	for rows.Next() {
		m, err := s.scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *Store) GetMatch(ctx context.Context, id int64) (*match.Match, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := s.scanMatch(row)
	if err != nil {
		return nil, notFoundWrap(err, "get match %d", id)
	}
	return &m, nil
}

// CreateMatch inserts a match. The stored status is the one in effect at
// insert time; reads always derive it again from the time window.
func (s *Store) CreateMatch(ctx context.Context, req *match.CreateRequest) (*match.Match, error) {
	var home, away int
	if req.HomeScore != nil {
		home = *req.HomeScore
	}
	if req.AwayScore != nil {
		away = *req.AwayScore
	}
	status := match.StatusAt(req.StartTime, req.EndTime, s.now())

	row := s.pool.QueryRow(ctx,
		`INSERT INTO matches (sport, home_team, away_team, status, start_time, end_time, home_score, away_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+matchColumns,
		req.Sport, req.HomeTeam, req.AwayTeam, string(status), req.StartTime, req.EndTime, home, away)
	m, err := s.scanMatch(row)
	if err != nil {
		return nil, writeErr(err, "create match")
	}
	return &m, nil
}

func (s *Store) scanMatch(row scannable) (match.Match, error) {
	var m match.Match
	err := row.Scan(&m.ID, &m.Sport, &m.HomeTeam, &m.AwayTeam,
		&m.StartTime, &m.EndTime, &m.HomeScore, &m.AwayScore, &m.CreatedAt)
	if err != nil {
		return m, err
	}
	m.Status = match.StatusAt(m.StartTime, m.EndTime, s.now())
	return m, nil
}
