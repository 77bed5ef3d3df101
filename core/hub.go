package core

import (
	"errors"
	"slices"
)

// Hub owns the transaction log of one document and keeps its endpoints in
// sync with it.
type Hub struct {
	id       DocID
	env      *Env
	links    []Endpoint
	log      []*Transaction
	current  Time
	variants []*Variant
}

// NewHub returns a hub for the document and registers it in env.
//
// When a hub for the same document is already open the new hub is not
// registered and embedding keeps using the first one.
func NewHub(env *Env, id DocID) *Hub {
	h := &Hub{id: id, env: env}
	env.Hubs.register(h)
	return h
}

// ID returns the document id.
func (h *Hub) ID() DocID { return h.id }

// Current returns the timestamp of the last applied transaction.
func (h *Hub) Current() Time { return h.current }

// Latest returns the timestamp of the newest transaction in the log.
func (h *Hub) Latest() Time {
	if len(h.log) == 0 {
		return 0
	}
	return h.log[len(h.log)-1].created
}

// Len returns the number of transactions in the log.
func (h *Hub) Len() int { return len(h.log) }

// Transactions returns the log.
func (h *Hub) Transactions() []*Transaction { return h.log }

// Links returns the connected endpoints.
func (h *Hub) Links() []Endpoint { return h.links }

// Variants returns a copy of the variant table.
func (h *Hub) Variants() []Variant {
	res := make([]Variant, len(h.variants))
	for i, v := range h.variants {
		res[i] = Variant{Name: v.Name.Clone(), State: v.State}
	}
	return res
}

// HasUndo returns true if the cursor is after the first transaction.
func (h *Hub) HasUndo() bool {
	return len(h.log) > 0 && h.log[0].created != h.current
}

// HasRedo returns true if the cursor is before the last transaction.
func (h *Hub) HasRedo() bool {
	return len(h.log) > 0 && h.log[len(h.log)-1].created != h.current
}

// Connect adds an endpoint and runs its handshake.
//
// Connecting an endpoint twice has no effect.
func (h *Hub) Connect(e Endpoint) error {
	if slices.Contains(h.links, e) {
		return nil
	}
	if e.Hub() != nil {
		return errorf(ErrAlreadyConnected, "%x", uint64(h.id))
	}
	h.links = append(h.links, e)
	e.setHub(h)

	log := h.log
	current := h.current
	adopt, err := e.Connecting(h.id, &log, &current)
	if err != nil {
		h.drop(e)
		return err
	}
	h.env.Log.Debug("hub connect", "doc", h.id, "links", len(h.links), "adopt", adopt)
	if !adopt {
		return nil
	}
	h.log = log
	h.current = current
	if err := h.updateAllVariants(); err != nil {
		return err
	}
	for _, l := range h.links {
		if l == e {
			continue
		}
		if err := l.SetTransactions(h.id, h.log, h.current); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect removes an endpoint.
func (h *Hub) Disconnect(e Endpoint) error {
	if !h.drop(e) {
		return errorf(ErrNotConnected, "%x", uint64(h.id))
	}
	h.env.Log.Debug("hub disconnect", "doc", h.id, "links", len(h.links))
	return nil
}

func (h *Hub) drop(e Endpoint) bool {
	i := slices.Index(h.links, e)
	if i < 0 {
		return false
	}
	e.setHub(nil)
	h.links = slices.Delete(h.links, i, i+1)
	return true
}

// Notify appends a transaction to the log and applies it to every endpoint.
//
// A transaction that switches a variant on or off rebuilds all endpoints.
// When an endpoint fails every endpoint is rebuilt from the log and the
// failure is returned.
func (h *Hub) Notify(t *Transaction) error {
	flip, err := h.updateVariants(t)
	if err != nil {
		h.restoreVariants()
		return err
	}
	if t.enabler, err = h.enabler(t); err != nil {
		h.restoreVariants()
		return err
	}
	if flip {
		log, current := slices.Clone(h.log), h.current
		h.appendCurrent(t)
		h.env.Log.Debug("hub variant switch", "doc", h.id, "created", t.created)
		if err := h.push(); err != nil {
			h.log, h.current = log, current
			h.resync(err)
			return err
		}
		TransactionsApplied.WithLabelValues("full").Inc()
		return nil
	}
	for _, l := range h.links {
		if err := l.Notify(t); err != nil {
			h.resync(err)
			return err
		}
	}
	if h.current != t.created {
		h.appendCurrent(t)
	}
	TransactionsApplied.WithLabelValues("incremental").Inc()
	return nil
}

// appendCurrent drops the redo tail and adds t as the current transaction.
func (h *Hub) appendCurrent(t *Transaction) {
	tail := len(h.log)
	for i, lt := range h.log {
		if lt.created > h.current {
			tail = i
			break
		}
	}
	h.log = append(h.log[:tail], t)
	h.current = t.created
}

func (h *Hub) restoreVariants() {
	if err := h.updateAllVariants(); err != nil {
		h.env.Log.Error("hub variants", "doc", h.id, "err", err)
	}
}

// resync rebuilds every endpoint after a failed transaction.
func (h *Hub) resync(cause error) {
	HubResyncs.Inc()
	h.env.Log.Warn("hub resync", "doc", h.id, "err", cause)
	h.restoreVariants()
	if err := h.push(); err != nil {
		h.env.Log.Error("hub resync failed", "doc", h.id, "err", err)
	}
}

// push sends the full log to every endpoint.
func (h *Hub) push() error {
	var errs []error
	for _, l := range h.links {
		if err := l.SetTransactions(h.id, h.log, h.current); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save sends the full log to every endpoint.
func (h *Hub) Save() error {
	return h.push()
}

// UndoRedo moves the cursor by delta transactions and rebuilds the endpoints.
func (h *Hub) UndoRedo(delta int) error {
	index := len(h.log)
	for i, t := range h.log {
		if t.created >= h.current {
			index = i
			break
		}
	}
	index += delta
	if index < 0 || index >= len(h.log) {
		return errorf(ErrNoUndoRedoData, "%d", delta)
	}
	h.current = h.log[index].created
	if delta < 0 {
		HubUndoRedo.WithLabelValues("undo").Inc()
	} else {
		HubUndoRedo.WithLabelValues("redo").Inc()
	}
	h.env.Log.Debug("hub undo/redo", "doc", h.id, "delta", delta, "current", h.current)
	if err := h.updateAllVariants(); err != nil {
		return err
	}
	return h.push()
}

// PackHistory merges the oldest transactions until at most maxCount remain.
//
// Only transactions with the same source are merged and nothing is done
// while a redo is possible. A merge failure keeps the transactions packed
// so far and leaves the failing pair as it was.
func (h *Hub) PackHistory(maxCount int) error {
	if h.HasRedo() || len(h.log) == 0 {
		return nil
	}
	packed := 0
	var err error
	for len(h.log) > maxCount && len(h.log) > 1 {
		first, next := h.log[0], h.log[1]
		if !first.source.Equal(next.source) {
			break
		}
		merged := first.Clone()
		merged.enabler = first.enabler
		if err = merged.Merge(next); err != nil {
			break
		}
		h.log[0] = merged
		h.log = slices.Delete(h.log, 1, 2)
		packed++
	}
	h.current = h.log[len(h.log)-1].created
	if packed > 0 {
		HubPacked.Add(float64(packed))
		h.env.Log.Debug("hub pack", "doc", h.id, "packed", packed, "len", len(h.log))
	}
	return err
}

// Close unregisters the hub and releases its endpoints.
func (h *Hub) Close() {
	h.env.Hubs.unregister(h)
	for _, l := range h.links {
		l.setHub(nil)
	}
	h.links = nil
}
