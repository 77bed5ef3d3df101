package core

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Hubs is the directory of open hubs keyed by document id.
type Hubs struct {
	hubs *xsync.MapOf[DocID, *Hub]
}

// NewHubs returns an empty directory.
func NewHubs() *Hubs {
	return &Hubs{hubs: xsync.NewMapOf[DocID, *Hub]()}
}

// Opened returns the open hub of a document or nil.
func (h *Hubs) Opened(id DocID) *Hub {
	hub, _ := h.hubs.Load(id)
	return hub
}

// Range calls fn for every open hub until fn returns false.
func (h *Hubs) Range(fn func(id DocID, hub *Hub) bool) {
	h.hubs.Range(fn)
}

// Len returns the number of open hubs.
func (h *Hubs) Len() int {
	return h.hubs.Size()
}

// register adds a hub unless one is already open for the same document.
func (h *Hubs) register(hub *Hub) bool {
	_, loaded := h.hubs.LoadOrStore(hub.id, hub)
	return !loaded
}

func (h *Hubs) unregister(hub *Hub) {
	h.hubs.Compute(hub.id, func(old *Hub, loaded bool) (*Hub, bool) {
		return old, !loaded || old == hub
	})
}
