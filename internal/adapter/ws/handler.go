// Package ws implements the WebSocket adapter for the live feed: the /ws
// handshake, the hub transport and the control-frame read loop.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/sportz/internal/domain/feed"
	"github.com/Strob0t/sportz/internal/hub"
)

// Hub is the part of *hub.Hub the handler drives.
type Hub interface {
	Register(t hub.Transport, remoteAddr string, topics []feed.Topic) (*hub.Connection, error)
	Unregister(id string)
	Control(id string, frame feed.ControlFrame) error
	Reject(id string, cause error) error
}

// Options configures the handshake handler. Zero values select defaults.
type Options struct {
	OriginPatterns []string // browser origins allowed besides the host itself
	ReadLimit      int64    // max bytes per client frame
	MaxTopics      int      // max initial topic hints
	Logger         *slog.Logger
}

const (
	defaultReadLimit = 4096
	defaultMaxTopics = 32
	// How long the handler waits for the writer to release the socket.
	releaseTimeout = 5 * time.Second
)

// Handler serves GET /ws.
type Handler struct {
	hub  Hub
	opts Options
	log  *slog.Logger
	now  func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(h Hub, opts Options) *Handler {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.MaxTopics <= 0 {
		opts.MaxTopics = defaultMaxTopics
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{hub: h, opts: opts, log: log.With("component", "ws"), now: time.Now}
}

// ServeHTTP validates the handshake, upgrades, registers the connection with
// its initial topics and then reads control frames until the client leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topics, err := h.validate(r)
	if err != nil {
		h.log.InfoContext(r.Context(), "handshake rejected", "remote", r.RemoteAddr, "error", err)
		writeHandshakeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		// Accept has already written the HTTP error.
		h.log.InfoContext(r.Context(), "websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(h.opts.ReadLimit)

	c, err := h.hub.Register(&transport{conn: conn}, r.RemoteAddr, topics)
	if err != nil {
		h.log.WarnContext(r.Context(), "register failed", "remote", r.RemoteAddr, "error", err)
		code := websocket.StatusPolicyViolation
		if errors.Is(err, hub.ErrClosed) {
			code = websocket.StatusTryAgainLater
		}
		_ = conn.Close(code, "registration refused")
		return
	}

	err = h.readLoop(r.Context(), conn, c)
	h.hub.Unregister(c.ID())
	h.log.DebugContext(r.Context(), "read loop ended",
		"conn_id", c.ID(), "status", websocket.CloseStatus(err), "error", err)

	select {
	case <-c.Done():
	case <-time.After(releaseTimeout):
		h.log.Warn("connection writer did not release in time", "conn_id", c.ID())
	}
}

// validate checks the upgrade request and parses the initial topic hints.
func (h *Handler) validate(r *http.Request) ([]feed.Topic, error) {
	if r.Method != http.MethodGet {
		return nil, fmt.Errorf("%w: method %s not allowed", hub.ErrHandshake, r.Method)
	}
	if !headerHasToken(r.Header, "Connection", "upgrade") || !headerHasToken(r.Header, "Upgrade", "websocket") {
		return nil, fmt.Errorf("%w: websocket upgrade required", hub.ErrHandshake)
	}
	return ParseTopicHints(r, h.opts.MaxTopics)
}

// ParseTopicHints reads the initial subscription from the query string:
// repeated or comma-separated "topic" values plus "matchId" as shorthand for
// match:<id>. Duplicates are collapsed.
func ParseTopicHints(r *http.Request, maxTopics int) ([]feed.Topic, error) {
	q := r.URL.Query()
	var raw []string
	for _, v := range q["topic"] {
		raw = append(raw, strings.Split(v, ",")...)
	}
	for _, v := range q["matchId"] {
		raw = append(raw, "match:"+strings.TrimSpace(v))
	}

	seen := make(map[feed.Topic]struct{}, len(raw))
	topics := make([]feed.Topic, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, err := feed.ParseTopic(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", hub.ErrHandshake, err)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}
	if maxTopics > 0 && len(topics) > maxTopics {
		return nil, fmt.Errorf("%w: %d topics exceed limit %d", hub.ErrHandshake, len(topics), maxTopics)
	}
	return topics, nil
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, c *hub.Connection) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		c.MarkAlive(h.now())

		if typ != websocket.MessageText {
			_ = h.hub.Reject(c.ID(), errors.New("binary frames are not supported"))
			continue
		}
		var frame feed.ControlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			_ = h.hub.Reject(c.ID(), fmt.Errorf("malformed control frame: %w", err))
			continue
		}
		if err := h.hub.Control(c.ID(), frame); err != nil {
			h.log.DebugContext(ctx, "control frame rejected", "conn_id", c.ID(), "action", frame.Action, "error", err)
		}
	}
}

func headerHasToken(hdr http.Header, key, token string) bool {
	for _, v := range hdr.Values(key) {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

func writeHandshakeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
