package core

import (
	"github.com/safval/DistributedDocumentStorage/codec"
)

// maxRelationUp is the largest number of storages a relation may ascend.
const maxRelationUp = 999

// Relation is a property pointing to another object.
//
// The target is found by ascending Up storages from the storage holding the
// owner and then following Name downwards.
type Relation struct {
	pt   PropType
	Up   uint32
	Name LongName

	target *Object
}

// NewRelation returns a relation property.
func NewRelation(pt PropType, up uint32, name ...Name) *Relation {
	return &Relation{pt: pt, Up: up, Name: LongName(name).Clone()}
}

// ReadRelation is the factory of relation properties.
func ReadRelation(pt PropType, r codec.Reader) (Property, error) {
	values, err := codec.ReadInts[uint32](r)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return NewRelation(pt, 0), nil
	}
	name := make(LongName, len(values)-1)
	for i, v := range values[1:] {
		name[i] = Name(v)
	}
	return &Relation{pt: pt, Up: values[0], Name: name}, nil
}

func (p *Relation) Type() PropType { return p.pt }

func (p *Relation) Write(w codec.Writer) error {
	if p.Up > maxRelationUp {
		return errorf(ErrRelationTooDeep, "%d", p.Up)
	}
	if len(p.Name) == 0 {
		return w.BeginArray(0)
	}
	values := make([]uint32, 0, len(p.Name)+1)
	values = append(values, p.Up)
	for _, n := range p.Name {
		values = append(values, uint32(n))
	}
	return codec.WriteInts(w, values)
}

func (p *Relation) Equal(other Property) bool {
	o, ok := other.(*Relation)
	return ok && o.pt == p.pt && o.Up == p.Up && o.Name.Equal(p.Name)
}

func (p *Relation) Clone() Property {
	return NewRelation(p.pt, p.Up, p.Name...)
}

// Target returns the object the relation points to when held by owner.
func (p *Relation) Target(owner *Object) *Object {
	if owner == nil || len(p.Name) == 0 {
		return nil
	}
	s := owner.storage
	for i := uint32(0); i < p.Up && s != nil; i++ {
		s = s.Parent()
	}
	if s == nil {
		return nil
	}
	o := s.Find(p.Name)
	if o == nil || !o.IsActive() {
		return nil
	}
	return o
}

func (p *Relation) attach(owner *Object) {
	target := p.Target(owner)
	if target == nil {
		return
	}
	p.target = target
	target.addRef(p.pt, owner)
	target.state |= LinkAdded
}

func (p *Relation) detach(owner *Object) {
	target := p.target
	if target == nil {
		return
	}
	p.target = nil
	if !target.removeRef(p.pt, owner) {
		panic(errorf(ErrMissingBackReference, "%v from %v", target.LongName(), owner.LongName()))
	}
	target.state |= LinkDeleted
}

// release drops the back-reference without requiring it to exist.
func (p *Relation) release(owner *Object) {
	if p.target != nil {
		p.target.removeRef(p.pt, owner)
		p.target = nil
	}
}
