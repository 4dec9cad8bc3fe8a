package hub

import "github.com/Strob0t/sportz/internal/domain/feed"

// Metrics receives hub counters. Implementations must be safe for concurrent
// use and must not call back into the hub.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed(reason string)
	Published(eventType feed.EventType, recipients int)
	Dropped(count int)
	HeartbeatMissed()
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened()             {}
func (nopMetrics) ConnectionClosed(string)       {}
func (nopMetrics) Published(feed.EventType, int) {}
func (nopMetrics) Dropped(int)                   {}
func (nopMetrics) HeartbeatMissed()              {}
