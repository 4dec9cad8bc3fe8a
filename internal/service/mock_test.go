package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Strob0t/sportz/internal/domain"
	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/feed"
	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/hub"
	"github.com/Strob0t/sportz/internal/port/broadcast"
	"github.com/Strob0t/sportz/internal/port/database"
	"github.com/Strob0t/sportz/internal/port/messagequeue"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu         sync.Mutex
	matches    []match.Match
	commentary []commentary.Commentary
	getCalls   int

	// Error hooks to inject failures.
	createMatchErr      error
	createCommentaryErr error
}

func (m *mockStore) ListMatches(_ context.Context, limit int) ([]match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]match.Match, 0, limit)
	for i := len(m.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.matches[i])
	}
	return out, nil
}

func (m *mockStore) GetMatch(_ context.Context, id int64) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	for i := range m.matches {
		if m.matches[i].ID == id {
			cp := m.matches[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateMatch(_ context.Context, req *match.CreateRequest) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createMatchErr != nil {
		return nil, m.createMatchErr
	}
	mt := match.Match{
		ID:        int64(len(m.matches) + 1),
		Sport:     req.Sport,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    match.StatusScheduled,
	}
	m.matches = append(m.matches, mt)
	return &mt, nil
}

func (m *mockStore) ListCommentary(_ context.Context, matchID int64, limit int) ([]commentary.Commentary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []commentary.Commentary
	for i := len(m.commentary) - 1; i >= 0 && len(out) < limit; i-- {
		if m.commentary[i].MatchID == matchID {
			out = append(out, m.commentary[i])
		}
	}
	return out, nil
}

func (m *mockStore) CreateCommentary(_ context.Context, matchID int64, req *commentary.CreateRequest) (*commentary.Commentary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createCommentaryErr != nil {
		return nil, m.createCommentaryErr
	}
	c := commentary.Commentary{
		ID:        int64(len(m.commentary) + 1),
		MatchID:   matchID,
		Minute:    req.Minute,
		Sequence:  *req.Sequence,
		EventType: req.EventType,
		Message:   req.Message,
		Metadata:  req.Metadata,
		Tags:      req.Tags,
	}
	m.commentary = append(m.commentary, c)
	return &c, nil
}

func (m *mockStore) Ping(context.Context) error { return nil }

// fakeFeed records broadcast calls.
type fakeFeed struct {
	mu         sync.Mutex
	matches    []match.Match
	commentary []commentary.Commentary
	matchIDs   []int64
	err        error
	seq        uint64
}

func (f *fakeFeed) PublishMatchCreated(_ context.Context, m match.Match) broadcast.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, m)
	f.seq++
	return broadcast.Outcome{Topic: "global", Sequence: f.seq, Err: f.err}
}

func (f *fakeFeed) PublishCommentaryCreated(_ context.Context, matchID int64, c commentary.Commentary) broadcast.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentary = append(f.commentary, c)
	f.matchIDs = append(f.matchIDs, matchID)
	f.seq++
	return broadcast.Outcome{Sequence: f.seq, Err: f.err}
}

// fakeQueue records exported messages.
type fakeQueue struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

var _ messagequeue.Queue = (*fakeQueue)(nil)

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.subjects = append(q.subjects, subject)
	q.payloads = append(q.payloads, data)
	return nil
}

func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// stubDispatcher returns canned results or panics.
type stubDispatcher struct {
	res   hub.PublishResult
	err   error
	panic any
}

func (d *stubDispatcher) Publish(_ feed.Topic, _ feed.EventType, _ any) (hub.PublishResult, error) {
	if d.panic != nil {
		panic(d.panic)
	}
	return d.res, d.err
}

var errBoom = errors.New("boom")

func decodeExport[T any](t interface{ Fatalf(string, ...any) }, data []byte) T {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	return v
}
