package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	sphttp "github.com/Strob0t/sportz/internal/adapter/http"
	"github.com/Strob0t/sportz/internal/domain"
	"github.com/Strob0t/sportz/internal/domain/commentary"
	"github.com/Strob0t/sportz/internal/domain/match"
	"github.com/Strob0t/sportz/internal/port/broadcast"
	"github.com/Strob0t/sportz/internal/service"
)

// mockStore implements database.Store in memory.
type mockStore struct {
	mu         sync.Mutex
	matches    []match.Match
	commentary []commentary.Commentary
	pingErr    error
}

func (m *mockStore) ListMatches(_ context.Context, limit int) ([]match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []match.Match
	for i := len(m.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.matches[i])
	}
	return out, nil
}

func (m *mockStore) GetMatch(_ context.Context, id int64) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.matches {
		if m.matches[i].ID == id {
			mm := m.matches[i]
			return &mm, nil
		}
	}
	return nil, fmt.Errorf("get match %d: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateMatch(_ context.Context, req *match.CreateRequest) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mm := match.Match{
		ID:        int64(len(m.matches) + 1),
		Sport:     req.Sport,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    match.StatusAt(req.StartTime, req.EndTime, time.Now()),
		CreatedAt: time.Now(),
	}
	m.matches = append(m.matches, mm)
	return &mm, nil
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
	c := commentary.Commentary{
		ID:        int64(len(m.commentary) + 1),
		MatchID:   matchID,
		Minute:    req.Minute,
		Sequence:  *req.Sequence,
		Period:    req.Period,
		EventType: req.EventType,
		Actor:     req.Actor,
		Team:      req.Team,
		Message:   req.Message,
		Metadata:  req.Metadata,
		Tags:      req.Tags,
		CreatedAt: time.Now(),
	}
	m.commentary = append(m.commentary, c)
	return &c, nil
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

// recordingFeed captures live feed publishes.
type recordingFeed struct {
	mu         sync.Mutex
	matches    []int64
	commentary []int64
}

func (f *recordingFeed) PublishMatchCreated(_ context.Context, m match.Match) broadcast.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, m.ID)
	return broadcast.Outcome{Topic: "global", Sequence: uint64(len(f.matches))}
}

func (f *recordingFeed) PublishCommentaryCreated(_ context.Context, matchID int64, _ commentary.Commentary) broadcast.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentary = append(f.commentary, matchID)
	return broadcast.Outcome{Topic: fmt.Sprintf("match:%d", matchID), Sequence: uint64(len(f.commentary))}
}

type fakeLive struct{ conns, topics int }

func (f fakeLive) Count() int      { return f.conns }
func (f fakeLive) TopicCount() int { return f.topics }

type fixture struct {
	store  *mockStore
	feed   *recordingFeed
	router chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &mockStore{}
	fb := &recordingFeed{}
	matches := service.NewMatchService(store, nil, fb, nil)
	h := &sphttp.Handlers{
		Matches:    matches,
		Commentary: service.NewCommentaryService(store, matches, fb, nil),
		DB:         store,
		Live:       fakeLive{conns: 3, topics: 2},
		Version:    "test",
	}
	r := chi.NewRouter()
	sphttp.MountRoutes(r, h)
	return &fixture{store: store, feed: fb, router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func matchBody() map[string]any {
	start := time.Now().Add(-time.Hour).UTC()
	return map[string]any{
		"sport":     "football",
		"homeTeam":  "Arsenal",
		"awayTeam":  "Chelsea",
		"startTime": start.Format(time.RFC3339),
		"endTime":   start.Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func TestRoot(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Welcome") {
		t.Fatalf("unexpected root response %d %s", w.Code, w.Body)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" || body["connections"] != float64(3) {
		t.Fatalf("unexpected health body %v", body)
	}

	f.store.pingErr = errors.New("connection refused")
	w = f.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when postgres is down, got %d", w.Code)
	}
}

func TestCreateAndGetMatch(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/matches", matchBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	created := decodeData[match.Match](t, w)
	if created.ID != 1 || created.Status != match.StatusLive {
		t.Fatalf("unexpected match %+v", created)
	}
	if len(f.feed.matches) != 1 || f.feed.matches[0] != 1 {
		t.Fatalf("expected one live publish, got %v", f.feed.matches)
	}

	w = f.do(t, http.MethodGet, "/api/v1/matches/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeData[match.Match](t, w); got.HomeTeam != "Arsenal" {
		t.Fatalf("unexpected match %+v", got)
	}
}

func TestCreateMatchValidation(t *testing.T) {
	f := newFixture(t)

	body := matchBody()
	body["awayTeam"] = "Arsenal"
	w := f.do(t, http.MethodPost, "/api/v1/matches", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); !strings.Contains(msg, "must differ") {
		t.Fatalf("unexpected error %q", msg)
	}

	w = f.do(t, http.MethodPost, "/api/v1/matches", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}

	body = matchBody()
	body["venue"] = "Emirates"
	w = f.do(t, http.MethodPost, "/api/v1/matches", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", w.Code)
	}
	if len(f.feed.matches) != 0 {
		t.Fatal("rejected requests must not publish")
	}
}

func TestGetMatchErrors(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodGet, "/api/v1/matches/abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/v1/matches/0", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero id, got %d", w.Code)
	}
	w := f.do(t, http.MethodGet, "/api/v1/matches/99", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "match not found" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestListMatches(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.do(t, http.MethodPost, "/api/v1/matches", matchBody())
	}

	w := f.do(t, http.MethodGet, "/api/v1/matches?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	list := decodeData[[]match.Match](t, w)
	if len(list) != 2 || list[0].ID != 3 {
		t.Fatalf("expected newest two matches, got %+v", list)
	}

	for _, q := range []string{"limit=0", "limit=101", "limit=abc"} {
		if w := f.do(t, http.MethodGet, "/api/v1/matches?"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestListMatchesEmptyIsArray(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/matches", nil)
	if strings.TrimSpace(w.Body.String()) != `{"data":[]}` {
		t.Fatalf("expected empty array, got %s", w.Body)
	}
}

func TestCommentaryLifecycle(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/matches", matchBody())

	w := f.do(t, http.MethodPost, "/api/v1/matches/1/commentary", map[string]any{
		"minute":    23,
		"sequence":  1,
		"eventType": "goal",
		"message":   "Saka curls it in",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	c := decodeData[commentary.Commentary](t, w)
	if c.MatchID != 1 || c.EventType != "goal" {
		t.Fatalf("unexpected commentary %+v", c)
	}
	if len(f.feed.commentary) != 1 || f.feed.commentary[0] != 1 {
		t.Fatalf("expected commentary publish for match 1, got %v", f.feed.commentary)
	}

	w = f.do(t, http.MethodGet, "/api/v1/matches/1/commentary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if list := decodeData[[]commentary.Commentary](t, w); len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
}

func TestCreateCommentaryAcceptsCamelCaseBody(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/matches", matchBody())

	w := f.do(t, http.MethodPost, "/api/v1/matches/1/commentary",
		`{"minute":10,"sequence":1,"eventType":"goal","message":"Goal"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}

	w = f.do(t, http.MethodPost, "/api/v1/matches/1/commentary", `{
		"minute": 90, "sequence": 2, "period": "2nd Half", "eventType": "substitution",
		"actor": "Trossard", "team": "Arsenal", "message": "Late change",
		"metadata": {"off": "Saka"}, "tags": ["sub", "late"]
	}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for the full field set, got %d: %s", w.Code, w.Body)
	}
	var raw struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"matchId", "eventType", "createdAt", "period", "actor", "team", "metadata", "tags"} {
		if _, ok := raw.Data[key]; !ok {
			t.Errorf("response missing %q: %v", key, raw.Data)
		}
	}

	w = f.do(t, http.MethodPost, "/api/v1/matches/1/commentary",
		`{"sequence":3,"event_type":"goal","message":"Goal"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for snake_case field, got %d", w.Code)
	}
}

func TestCommentaryErrors(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/matches", matchBody())

	valid := map[string]any{"sequence": 1, "eventType": "note", "message": "kick off"}
	if w := f.do(t, http.MethodPost, "/api/v1/matches/42/commentary", valid); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown match, got %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/api/v1/matches/42/commentary", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 listing unknown match, got %d", w.Code)
	}

	missing := map[string]any{"sequence": 1, "eventType": "note"}
	w := f.do(t, http.MethodPost, "/api/v1/matches/1/commentary", missing)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "message is required" {
		t.Fatalf("unexpected error %q", msg)
	}

	negative := map[string]any{"minute": -1, "sequence": 1, "eventType": "note", "message": "x"}
	if w := f.do(t, http.MethodPost, "/api/v1/matches/1/commentary", negative); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative minute, got %d", w.Code)
	}
	if len(f.feed.commentary) != 0 {
		t.Fatal("rejected commentary must not publish")
	}
}

func TestLiveStats(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/live/stats", nil)
	stats := decodeData[map[string]int](t, w)
	if stats["connections"] != 3 || stats["topics"] != 2 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestAPIMiddlewareScope(t *testing.T) {
	store := &mockStore{}
	matches := service.NewMatchService(store, nil, &recordingFeed{}, nil)
	h := &sphttp.Handlers{Matches: matches, DB: store}

	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	r := chi.NewRouter()
	sphttp.MountRoutes(r, h, blocked)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/matches", http.NoBody))
	if w.Code != http.StatusTeapot {
		t.Fatalf("api middleware not applied, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("health must bypass api middleware, got %d", w.Code)
	}
}
