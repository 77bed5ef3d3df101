package core

import (
	"sort"
)

// Document is the root storage of one document and a hub endpoint.
//
// A document is either the root of a view or embedded into an object of
// another document.
type Document struct {
	Storage
	HubLink
	id DocID
}

// NewDocument returns an empty document view.
func NewDocument(env *Env) *Document {
	d := &Document{}
	d.Storage.init(env, nil)
	d.Storage.doc = d
	return d
}

func newEmbeddedDocument(env *Env, owner *Object) *Document {
	d := &Document{}
	d.Storage.init(env, owner)
	d.Storage.doc = d
	return d
}

// ID returns the id of the document or zero before it is connected.
func (d *Document) ID() DocID { return d.id }

// Notify applies a transaction and notifies the changed objects.
func (d *Document) Notify(t *Transaction) error {
	if !t.Enabled() {
		return nil
	}
	if err := d.apply(t); err != nil {
		return err
	}
	return d.initAll()
}

// SetTransactions rebuilds the document from the log up to current.
func (d *Document) SetTransactions(id DocID, log []*Transaction, current Time) error {
	d.clear()
	for _, t := range log {
		if t.created > current || !t.Enabled() {
			continue
		}
		if err := d.apply(t); err != nil {
			return err
		}
	}
	return d.initAll()
}

// Connecting rebuilds the document from the hub log.
func (d *Document) Connecting(id DocID, log *[]*Transaction, current *Time) (bool, error) {
	d.id = id
	return false, d.SetTransactions(id, *log, *current)
}

// Close detaches the document from its hub and drops all objects.
func (d *Document) Close() {
	// Disconnect only fails for endpoints the hub does not know.
	_ = Detach(d)
	d.clear()
}

func (d *Document) apply(t *Transaction) error {
	changes := append([]*Changes(nil), t.changes...)
	sort.SliceStable(changes, func(i, j int) bool {
		return len(changes[i].name) < len(changes[j].name)
	})
	for _, c := range changes {
		if c.typ == TypeUnchanged || c.typ == TypeDeleted || len(c.name) == 0 {
			continue
		}
		s := d.FindStorageOf(c.name)
		if s == nil {
			continue
		}
		if _, err := s.create(c.typ, c.name[len(c.name)-1]); err != nil {
			return err
		}
	}
	for _, c := range changes {
		p, ok := c.Prop(DocIDProp).(*Int)
		if !ok {
			continue
		}
		o := d.Find(c.name)
		if o == nil || o.doc == nil {
			continue
		}
		if err := o.doc.inserted(DocID(p.Value)); err != nil {
			return err
		}
	}
	for _, c := range changes {
		o := d.Find(c.name)
		if o == nil {
			continue
		}
		if err := o.change(c); err != nil {
			return err
		}
	}
	return nil
}

// inserted mounts the document with the given id into d.
func (d *Document) inserted(target DocID) error {
	if d.hub != nil {
		if d.hub.id == target {
			return nil
		}
		d.Close()
	}
	for s := d.Parent(); s != nil; s = s.Parent() {
		if s.doc != nil && s.doc.id == target {
			return errorf(ErrSelfInsertedDocument, "%x", uint64(target))
		}
		if s.owner == nil {
			continue
		}
		if p, ok := s.owner.Prop(DocIDProp).(*Int); ok && DocID(p.Value) == target {
			return errorf(ErrSelfInsertedDocument, "%x", uint64(target))
		}
	}
	hub := d.env.Hubs.Opened(target)
	if hub == nil {
		return nil
	}
	return hub.Connect(d)
}
