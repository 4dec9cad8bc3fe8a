package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var matchID int64
	switch subject {
	case SubjectMatchCreated:
		var p MatchCreatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		matchID = p.MatchID
	case SubjectCommentaryCreated:
		var p CommentaryCreatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		matchID = p.MatchID
	default:
		return nil
	}

	if matchID <= 0 {
		return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("match_id must be positive"))
	}
	return nil
}
