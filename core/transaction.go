package core

import (
	"sync/atomic"
	"time"

	"github.com/safval/DistributedDocumentStorage/codec"
)

var lastCreated atomic.Int64

// Now returns a strictly increasing timestamp in milliseconds.
func Now() Time {
	for {
		latest := lastCreated.Load()
		t := time.Now().UnixMilli()
		if latest >= t {
			t = latest + 1
		}
		if lastCreated.CompareAndSwap(latest, t) {
			return Time(t)
		}
	}
}

// Transaction is a timestamped batch of object changes.
//
// A transaction with a source belongs to the variant of that name and is
// only live while the variant is not disabled.
type Transaction struct {
	created   Time
	source    LongName
	changes   []*Changes
	enabler   *Variant
	committed bool
}

// NewTransaction returns an empty transaction owned by the given variant.
func NewTransaction(source ...Name) *Transaction {
	return &Transaction{
		created: Now(),
		source:  LongName(source).Clone(),
	}
}

// Created returns the timestamp of the transaction.
func (t *Transaction) Created() Time { return t.created }

// Source returns the name of the controlling variant.
func (t *Transaction) Source() LongName { return t.source }

// Changes returns the object changes in order.
func (t *Transaction) Changes() []*Changes { return t.changes }

// Enabled returns false while the controlling variant is disabled.
func (t *Transaction) Enabled() bool {
	return t.enabler == nil || t.enabler.State != VariantDisabled
}

// Commit marks the transaction as no longer being edited.
func (t *Transaction) Commit() { t.committed = true }

// Active returns true until the transaction is committed.
func (t *Transaction) Active() bool { return !t.committed }

// CreateObject adds the creation of an object in storage s.
//
// The name is reserved in s immediately.
func (t *Transaction) CreateObject(typ ObjType, s *Storage) *Changes {
	if typ == TypeUnchanged || typ == TypeDeleted {
		panic(errorf(ErrInvalidCreateType, "%d", typ))
	}
	var name LongName
	if s.owner != nil {
		name = s.owner.LongName()
	}
	name = append(name, s.ReserveName())
	c := &Changes{name: name, typ: typ}
	t.changes = append(t.changes, c)
	return c
}

// ChangeObject returns the change of the object with the given long name.
func (t *Transaction) ChangeObject(name ...Name) *Changes {
	for _, c := range t.changes {
		if c.name.Equal(name) {
			return c
		}
	}
	c := &Changes{name: LongName(name).Clone(), typ: TypeUnchanged}
	t.changes = append(t.changes, c)
	return c
}

// Change returns the change of an existing object.
func (t *Transaction) Change(o *Object) *Changes {
	return t.ChangeObject(o.LongName()...)
}

// Merge folds a later transaction into t.
//
// On failure t is left unchanged.
func (t *Transaction) Merge(other *Transaction) error {
	merged := t.Clone()
	for _, oc := range other.changes {
		found := false
		for _, c := range merged.changes {
			if c.name.Equal(oc.name) {
				if err := c.merge(oc); err != nil {
					return err
				}
				found = true
			}
		}
		if !found {
			merged.changes = append(merged.changes, oc.clone())
		}
	}
	t.changes = merged.changes
	return nil
}

// Clone returns a deep copy of the transaction with the same timestamp.
func (t *Transaction) Clone() *Transaction {
	res := &Transaction{
		created:   t.created,
		source:    t.source.Clone(),
		committed: t.committed,
	}
	for _, c := range t.changes {
		res.changes = append(res.changes, c.clone())
	}
	return res
}

// Write serializes the transaction.
func (t *Transaction) Write(w codec.Writer) error {
	n := len(t.changes)*changesSerialSize + 1
	if len(t.source) > 0 {
		n++
	}
	if err := w.BeginArray(n); err != nil {
		return err
	}
	if err := w.WriteInt(int64(t.created)); err != nil {
		return err
	}
	if len(t.source) > 0 {
		if err := codec.WriteInts(w, t.source); err != nil {
			return err
		}
	}
	for _, c := range t.changes {
		if err := c.write(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadTransaction reads a serialized transaction.
//
// Property values are created with the factories registered in types.
func ReadTransaction(r codec.Reader, types *Types) (*Transaction, error) {
	n, err := r.ReadArray()
	if err != nil {
		return nil, formatError(err)
	}
	if m := n % changesSerialSize; m != 1 && m != 2 {
		return nil, errorf(ErrSerializationFormat, "transaction of %d elements", n)
	}
	t := &Transaction{committed: true}
	created, err := r.ReadInt()
	if err != nil {
		return nil, formatError(err)
	}
	t.created = Time(created)
	if n%changesSerialSize == 2 {
		if t.source, err = codec.ReadInts[Name](r); err != nil {
			return nil, formatError(err)
		}
	}
	for i := 0; i < n/changesSerialSize; i++ {
		c, err := readChanges(r, types)
		if err != nil {
			return nil, formatError(err)
		}
		t.changes = append(t.changes, c)
	}
	return t, nil
}
