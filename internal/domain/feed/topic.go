// Package feed defines the live feed vocabulary shared by the hub, the
// WebSocket adapter and the publishing services: topics, event envelopes and
// client control frames.
package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTopic is returned for topic strings that are neither "global"
// nor "match:<id>" with a positive integer id.
var ErrInvalidTopic = errors.New("invalid topic")

// Topic names a channel of events. It is only ever a key into the
// subscription index.
type Topic string

// Global carries events that concern every client, such as new matches.
const Global Topic = "global"

const matchPrefix = "match:"

// MatchTopic returns the topic carrying commentary for one match.
func MatchTopic(matchID int64) Topic {
	return Topic(matchPrefix + strconv.FormatInt(matchID, 10))
}

// ParseTopic validates s and returns it as a Topic.
func ParseTopic(s string) (Topic, error) {
	if s == string(Global) {
		return Global, nil
	}
	rest, ok := strings.CutPrefix(s, matchPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	if _, err := parseMatchID(rest); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	return Topic(s), nil
}

// MatchID returns the match id of a match topic.
func (t Topic) MatchID() (int64, bool) {
	rest, ok := strings.CutPrefix(string(t), matchPrefix)
	if !ok {
		return 0, false
	}
	id, err := parseMatchID(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (t Topic) String() string { return string(t) }

// parseMatchID accepts canonical positive base-10 ids only, so that
// "match:7" and "match:007" cannot name two different topics.
func parseMatchID(s string) (int64, error) {
	if s == "" || s[0] == '0' || s[0] == '+' || s[0] == '-' {
		return 0, ErrInvalidTopic
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidTopic
	}
	return id, nil
}
