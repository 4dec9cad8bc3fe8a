package feed

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of domain event an envelope carries.
type EventType string

const (
	MatchCreated      EventType = "MATCH_CREATED"
	CommentaryCreated EventType = "COMMENTARY_CREATED"
)

// Envelope is the unit of delivery written to subscribers, one per text frame.
// Sequence is assigned per topic at publish time and only ever increases.
type Envelope struct {
	Type      EventType       `json:"type"`
	Topic     Topic           `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Sequence  uint64          `json:"sequence"`
	Timestamp time.Time       `json:"timestamp"`
}
