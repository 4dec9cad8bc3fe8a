package hub

import (
	"fmt"
	"sort"

	"github.com/Strob0t/sportz/internal/domain/feed"
)

// index maps topics to their members and connections to their topics.
// Topics without members are deleted. Callers hold Hub.mu.
type index struct {
	members map[feed.Topic]map[string]*Connection
	topics  map[string]map[feed.Topic]struct{}
}

func newIndex() index {
	return index{
		members: make(map[feed.Topic]map[string]*Connection),
		topics:  make(map[string]map[feed.Topic]struct{}),
	}
}

// add reports whether the membership is new.
func (x *index) add(c *Connection, topic feed.Topic) bool {
	set, ok := x.members[topic]
	if !ok {
		set = make(map[string]*Connection)
		x.members[topic] = set
	}
	if _, exists := set[c.id]; exists {
		return false
	}
	set[c.id] = c

	mine, ok := x.topics[c.id]
	if !ok {
		mine = make(map[feed.Topic]struct{})
		x.topics[c.id] = mine
	}
	mine[topic] = struct{}{}
	return true
}

// remove reports whether a membership existed.
func (x *index) remove(id string, topic feed.Topic) bool {
	set, ok := x.members[topic]
	if !ok {
		return false
	}
	if _, exists := set[id]; !exists {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(x.members, topic)
	}

	if mine, ok := x.topics[id]; ok {
		delete(mine, topic)
		if len(mine) == 0 {
			delete(x.topics, id)
		}
	}
	return true
}

func (x *index) removeAll(id string) []feed.Topic {
	removed := x.topicsOf(id)
	for _, topic := range removed {
		x.remove(id, topic)
	}
	return removed
}

func (x *index) count(id string) int {
	return len(x.topics[id])
}

func (x *index) has(id string, topic feed.Topic) bool {
	_, ok := x.members[topic][id]
	return ok
}

func (x *index) membersOf(topic feed.Topic) []*Connection {
	set := x.members[topic]
	out := make([]*Connection, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

func (x *index) topicsOf(id string) []feed.Topic {
	mine := x.topics[id]
	out := make([]feed.Topic, 0, len(mine))
	for topic := range mine {
		out = append(out, topic)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Subscribe adds the connection to topic. Subscribing twice is a no-op.
func (h *Hub) Subscribe(id string, topic feed.Topic) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.subscribeLocked(id, topic)
	return err
}

func (h *Hub) subscribeLocked(id string, topic feed.Topic) (bool, error) {
	c, ok := h.reg.get(id)
	if !ok || c.State() != StateOpen {
		return false, fmt.Errorf("%w: subscribe %s: %w", ErrSubscription, id, ErrUnknownConnection)
	}
	if h.idx.has(id, topic) {
		return false, nil
	}
	if h.maxTopics > 0 && h.idx.count(id) >= h.maxTopics {
		return false, fmt.Errorf("%w: connection already holds %d topics", ErrSubscription, h.maxTopics)
	}
	return h.idx.add(c, topic), nil
}

// Unsubscribe removes the connection from topic. Removing an absent
// membership is a no-op; an unknown connection is an error.
func (h *Hub) Unsubscribe(id string, topic feed.Topic) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.unsubscribeLocked(id, topic)
	return err
}

func (h *Hub) unsubscribeLocked(id string, topic feed.Topic) (bool, error) {
	if _, ok := h.reg.get(id); !ok {
		return false, fmt.Errorf("%w: unsubscribe %s: %w", ErrSubscription, id, ErrUnknownConnection)
	}
	return h.idx.remove(id, topic), nil
}

// UnsubscribeAll removes every membership of id and returns the topics it
// left. The close path calls it under the same lock that drops the registry
// entry.
func (h *Hub) UnsubscribeAll(id string) []feed.Topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx.removeAll(id)
}

// MembersOf returns the ids subscribed to topic, sorted.
func (h *Hub) MembersOf(topic feed.Topic) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.idx.members[topic]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TopicsOf returns the topics the connection is subscribed to, sorted.
func (h *Hub) TopicsOf(id string) []feed.Topic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.idx.topicsOf(id)
}

// TopicCount returns the number of topics with at least one member.
func (h *Hub) TopicCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.idx.members)
}
