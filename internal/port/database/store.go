// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
)

// Store is the port interface for database operations.
type Store interface {
	// Matches
	ListMatches(ctx context.Context, limit int) ([]match.Match, error)
	GetMatch(ctx context.Context, id int64) (*match.Match, error)
	CreateMatch(ctx context.Context, req *match.CreateRequest) (*match.Match, error)

	// Commentary
	ListCommentary(ctx context.Context, matchID int64, limit int) ([]commentary.Commentary, error)
	CreateCommentary(ctx context.Context, matchID int64, req *commentary.CreateRequest) (*commentary.Commentary, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error
}
