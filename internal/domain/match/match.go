// Package match defines the Match domain entity.
package match

import "time"

// Status is the lifecycle phase of a match.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
)

// Match is a single fixture between two teams.
type Match struct {
	ID        int64     `json:"id"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Status    Status    `json:"status"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	HomeScore int       `json:"homeScore"`
	AwayScore int       `json:"awayScore"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest holds the fields needed to create a new match.
type CreateRequest struct {
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
}

// StatusAt derives the match status from its time window.
// A match is live from StartTime (inclusive) until EndTime (exclusive).
func StatusAt(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusScheduled
	case !now.Before(end):
		return StatusFinished
	default:
		return StatusLive
	}
}

// ListLimit clamps a requested page size to 1..MaxListLimit.
// Zero or negative values select MaxListLimit.
func ListLimit(requested int) int {
	if requested <= 0 || requested > MaxListLimit {
		return MaxListLimit
	}
	return requested
}

// MaxListLimit is the largest page the list endpoints return.
const MaxListLimit = 100
