package hub

import "sort"

// registry owns the set of live connections. Callers hold Hub.mu.
type registry struct {
	conns map[string]*Connection
}

func newRegistry() registry {
	return registry{conns: make(map[string]*Connection)}
}

func (r *registry) add(c *Connection) {
	r.conns[c.id] = c
}

func (r *registry) remove(id string) (*Connection, bool) {
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	return c, ok
}

func (r *registry) get(id string) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

func (r *registry) list() []*Connection {
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Get returns the registered connection with the given id.
func (h *Hub) Get(id string) (*Connection, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg.get(id)
}

// List returns a snapshot of all registered connections ordered by id.
func (h *Hub) List() []*Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reg.list()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reg.conns)
}

// Unregister closes the connection and removes it from the registry and from
// every topic. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.reg.get(id)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.close(c, CloseNormal, reasonClient)
}
