// Package commentary defines the timestamped play-by-play entries of a match.
package commentary

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/sportz/internal/domain"
)

// Commentary is one play-by-play entry attached to a match.
type Commentary struct {
	ID        int64          `json:"id"`
	MatchID   int64          `json:"matchId"`
	Minute    *int           `json:"minute,omitempty"`
	Sequence  int            `json:"sequence"`
	Period    string         `json:"period,omitempty"`
	EventType string         `json:"eventType"`
	Actor     string         `json:"actor,omitempty"`
	Team      string         `json:"team,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CreateRequest holds the fields needed to add commentary to a match.
// Sequence orders entries that share a minute; it is supplied by the author.
type CreateRequest struct {
	Minute    *int           `json:"minute,omitempty"`
	Sequence  *int           `json:"sequence"`
	Period    string         `json:"period,omitempty"`
	EventType string         `json:"eventType"`
	Actor     string         `json:"actor,omitempty"`
	Team      string         `json:"team,omitempty"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
}

const (
	maxMessageLength = 2000
	maxFieldLength   = 255
	maxTags          = 32
)

// ValidateCreateRequest validates the fields of a commentary creation request.
func ValidateCreateRequest(req *CreateRequest) error {
	if req.Minute != nil && *req.Minute < 0 {
		return fmt.Errorf("minute must be a non-negative integer: %w", domain.ErrValidation)
	}
	if req.Sequence == nil {
		return fmt.Errorf("sequence is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(req.EventType) == "" {
		return fmt.Errorf("eventType is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}
	if len(req.Message) > maxMessageLength {
		return fmt.Errorf("message exceeds %d characters: %w", maxMessageLength, domain.ErrValidation)
	}
	for field, v := range map[string]string{
		"eventType": req.EventType,
		"period":    req.Period,
		"actor":     req.Actor,
		"team":      req.Team,
	} {
		if len(v) > maxFieldLength {
			return fmt.Errorf("%s exceeds %d characters: %w", field, maxFieldLength, domain.ErrValidation)
		}
	}
	if len(req.Tags) > maxTags {
		return fmt.Errorf("at most %d tags are allowed: %w", maxTags, domain.ErrValidation)
	}
	for _, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags must not be empty: %w", domain.ErrValidation)
		}
	}
	return nil
}

// MaxListLimit is the largest number of entries returned per match.
const MaxListLimit = 100

// ListLimit clamps a requested page size to 1..MaxListLimit.
func ListLimit(requested int) int {
	if requested <= 0 || requested > MaxListLimit {
		return MaxListLimit
	}
	return requested
}
