package core

// Endpoint is a view or a persistence backend kept in sync by a hub.
//
// Implementations outside this package embed HubLink.
type Endpoint interface {
	// Connecting is the handshake run when the endpoint joins a hub.
	//
	// The endpoint may replace log and current with its own state and
	// returns true when the hub must adopt them.
	Connecting(id DocID, log *[]*Transaction, current *Time) (bool, error)
	// SetTransactions rebuilds the endpoint from the full log.
	SetTransactions(id DocID, log []*Transaction, current Time) error
	// Notify applies one new transaction.
	Notify(t *Transaction) error
	// Hub returns the hub the endpoint belongs to or nil.
	Hub() *Hub
	setHub(h *Hub)
}

// HubLink holds the hub an endpoint belongs to.
type HubLink struct {
	hub *Hub
}

// Hub returns the hub the endpoint belongs to or nil.
func (l *HubLink) Hub() *Hub { return l.hub }

func (l *HubLink) setHub(h *Hub) { l.hub = h }

// Detach disconnects the endpoint from its hub if it has one.
func Detach(e Endpoint) error {
	h := e.Hub()
	if h == nil {
		return nil
	}
	return h.Disconnect(e)
}
