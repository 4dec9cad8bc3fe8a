package messagequeue

import (
	"time"

	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
)

// MatchCreatedPayload is the schema for messages on sportz.matches.created.
type MatchCreatedPayload struct {
	MatchID    int64       `json:"match_id"`
	Match      match.Match `json:"match"`
	Sequence   uint64      `json:"sequence"`
	ExportedAt time.Time   `json:"exported_at"`
}

// CommentaryCreatedPayload is the schema for messages on sportz.commentary.created.
type CommentaryCreatedPayload struct {
	MatchID    int64                 `json:"match_id"`
	Commentary commentary.Commentary `json:"commentary"`
	Sequence   uint64                `json:"sequence"`
	ExportedAt time.Time             `json:"exported_at"`
}
