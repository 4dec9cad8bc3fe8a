package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/sportz/internal/domain/commentary"
)

const commentaryColumns = `id, match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags, created_at`

// ListCommentary returns the newest entries of one match first.
func (s *Store) ListCommentary(ctx context.Context, matchID int64, limit int) ([]commentary.Commentary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentaryColumns+` FROM commentary
		 WHERE match_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		matchID, commentary.ListLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list commentary for match %d: %w", matchID, err)
	}
	defer rows.Close()

	entries := []commentary.Commentary{}
	for rows.Next() {
		c, err := scanCommentary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commentary: %w", err)
		}
		entries = append(entries, c)
	}
	return entries, rows.Err()
}

// CreateCommentary inserts an entry. A missing match surfaces as
// domain.ErrNotFound through the foreign key.
func (s *Store) CreateCommentary(ctx context.Context, matchID int64, req *commentary.CreateRequest) (*commentary.Commentary, error) {
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	var seq int
	if req.Sequence != nil {
		seq = *req.Sequence
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO commentary (match_id, minute, sequence, period, event_type, actor, team, message, metadata, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+commentaryColumns,
		matchID, req.Minute, seq, req.Period, req.EventType, req.Actor, req.Team, req.Message,
		metaJSON, pgTextArray(req.Tags))
	c, err := scanCommentary(row)
	if err != nil {
		return nil, writeErr(err, "create commentary for match %d", matchID)
	}
	return &c, nil
}

func scanCommentary(row scannable) (commentary.Commentary, error) {
	var (
		c        commentary.Commentary
		metaJSON []byte
	)
	err := row.Scan(&c.ID, &c.MatchID, &c.Minute, &c.Sequence, &c.Period, &c.EventType,
		&c.Actor, &c.Team, &c.Message, &metaJSON, &c.Tags, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &c.Metadata); err != nil {
			return c, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(c.Metadata) == 0 {
		c.Metadata = nil
	}
	if len(c.Tags) == 0 {
		c.Tags = nil
	}
	return c, nil
}
