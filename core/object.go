package core

import (
	"sort"
)

// State is the set of changes an object received since its last
// notification.
type State uint16

const (
	Created       State = 0x1
	Deleted       State = 0x2
	PropAdded     State = 0x4
	PropDeleted   State = 0x8
	PropChanged   State = 0x10
	LinkAdded     State = 0x20
	LinkDeleted   State = 0x40
	ParentDeleted State = 0x80
	ParentChanged State = 0x100
	// Active is not a change but marks live objects.
	Active State = 0x8000
)

// Handler reacts to the changes of an object.
type Handler interface {
	OnChange(o *Object, changes State) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(o *Object, changes State) error

func (f HandlerFunc) OnChange(o *Object, changes State) error {
	return f(o, changes)
}

type backRef struct {
	pt    PropType
	owner *Object
}

// Object is a typed set of properties living in a storage.
type Object struct {
	name    Name
	def     *ObjectDef
	handler Handler
	props   []Property
	refs    []backRef
	state   State

	storage  *Storage
	children *Storage
	doc      *Document
	deleting bool
}

func newObject(s *Storage, def *ObjectDef, name Name) *Object {
	o := &Object{name: name, storage: s}
	o.reset(def)
	return o
}

func (o *Object) reset(def *ObjectDef) {
	o.def = def
	o.handler = nil
	if def.Factory != nil {
		o.handler = def.Factory()
	}
	o.props = nil
	o.refs = nil
	o.state = Active | Created
	o.doc = nil
	o.children = nil
	switch {
	case def.Has(DocumentObject):
		o.doc = newEmbeddedDocument(o.storage.env, o)
		o.children = &o.doc.Storage
	case def.Has(StorageObject):
		o.children = newStorage(o.storage.env, o)
	}
}

// Name returns the object name within its storage.
func (o *Object) Name() Name { return o.name }

// Type returns the object type.
func (o *Object) Type() ObjType { return ObjType(o.def.ID) }

// Definition returns the object type definition.
func (o *Object) Definition() *ObjectDef { return o.def }

// Handler returns the change handler created for the object.
func (o *Object) Handler() Handler { return o.handler }

// State returns the pending changes of the object.
func (o *Object) State() State { return o.state }

// IsActive returns true until the object is deleted.
func (o *Object) IsActive() bool { return o.state&Active != 0 }

// Storage returns the storage holding the object.
func (o *Object) Storage() *Storage { return o.storage }

// AsStorage returns the child storage or nil when the type has none.
func (o *Object) AsStorage() *Storage { return o.children }

// AsDocument returns the embedded document or nil.
func (o *Object) AsDocument() *Document { return o.doc }

// LongName returns the full name of the object starting at the document root.
//
// Names pass through embedded documents.
func (o *Object) LongName() LongName {
	var name LongName
	for obj := o; obj != nil; obj = obj.storage.owner {
		name = append(name, obj.name)
	}
	for i, j := 0, len(name)-1; i < j; i, j = i+1, j-1 {
		name[i], name[j] = name[j], name[i]
	}
	return name
}

// Prop returns the property of the given type or nil.
func (o *Object) Prop(pt PropType) Property {
	i := o.propIndex(pt)
	if i < len(o.props) && o.props[i].Type() == pt {
		return o.props[i]
	}
	return nil
}

// Props returns the properties ordered by type.
func (o *Object) Props() []Property { return o.props }

// PropCount returns the number of properties.
func (o *Object) PropCount() int { return len(o.props) }

// Referrers returns the objects holding a relation of type pt to o.
//
// Zero pt returns the referrers of all relation types.
func (o *Object) Referrers(pt PropType) []*Object {
	var res []*Object
	for _, r := range o.refs {
		if pt == 0 || r.pt == pt {
			res = append(res, r.owner)
		}
	}
	return res
}

func (o *Object) propIndex(pt PropType) int {
	return sort.Search(len(o.props), func(i int) bool { return o.props[i].Type() >= pt })
}

func (o *Object) propDef(pt PropType) (*PropertyDef, error) {
	return o.storage.env.Types.Property(pt)
}

func (o *Object) addRef(pt PropType, owner *Object) {
	i := sort.Search(len(o.refs), func(i int) bool { return o.refs[i].pt > pt })
	o.refs = append(o.refs, backRef{})
	copy(o.refs[i+1:], o.refs[i:])
	o.refs[i] = backRef{pt: pt, owner: owner}
}

func (o *Object) removeRef(pt PropType, owner *Object) bool {
	for i, r := range o.refs {
		if r.pt == pt && r.owner == owner {
			o.refs = append(o.refs[:i], o.refs[i+1:]...)
			return true
		}
	}
	return false
}

// change applies one object change of a transaction.
func (o *Object) change(c *Changes) error {
	if c.Type() == TypeDeleted {
		_, err := o.remove()
		return err
	}
	for _, p := range c.props {
		def, err := o.propDef(p.Type())
		if err != nil {
			return err
		}
		value := p.Clone()
		i := o.propIndex(p.Type())
		if i < len(o.props) && o.props[i].Type() == p.Type() {
			if def.Has(ReadOnly) {
				return errorf(ErrReadOnlyProperty, "%s of %v", def.Name, o.LongName())
			}
			if a, ok := o.props[i].(attacher); ok {
				a.detach(o)
			}
			o.props[i] = value
			o.state |= PropChanged
		} else {
			o.props = append(o.props, nil)
			copy(o.props[i+1:], o.props[i:])
			o.props[i] = value
			o.state |= PropAdded
		}
		if a, ok := value.(attacher); ok {
			a.attach(o)
		}
	}
	for _, pt := range c.del {
		if _, err := o.removeProp(pt, false); err != nil {
			return err
		}
	}
	for _, r := range o.refs {
		r.owner.state |= ParentChanged
	}
	return nil
}

// removeProp deletes a property and reports whether it existed.
//
// Forced removal ignores the NoDelete flag.
func (o *Object) removeProp(pt PropType, force bool) (bool, error) {
	i := o.propIndex(pt)
	if i >= len(o.props) || o.props[i].Type() != pt {
		return false, nil
	}
	def, err := o.propDef(pt)
	if err != nil {
		return false, err
	}
	if def.Has(NoDelete) && !force {
		return false, errorf(ErrNotDeletable, "%s of %v", def.Name, o.LongName())
	}
	if a, ok := o.props[i].(attacher); ok {
		a.detach(o)
	}
	o.props = append(o.props[:i], o.props[i+1:]...)
	o.state |= PropDeleted
	return true, nil
}

// remove deletes the object together with the relations pointing to it.
//
// Referrers lose the relation when its type is deletable and are deleted
// otherwise.
func (o *Object) remove() (bool, error) {
	if !o.IsActive() || o.deleting {
		return false, nil
	}
	o.deleting = true
	defer func() { o.deleting = false }()

	for len(o.refs) > 0 {
		r := o.refs[0]
		def, err := o.propDef(r.pt)
		if err != nil {
			return false, err
		}
		var ok bool
		switch {
		case r.owner == o || r.owner.deleting:
			ok, err = r.owner.removeProp(r.pt, true)
		case !def.Has(NoDelete):
			ok, err = r.owner.removeProp(r.pt, false)
		default:
			ok, err = r.owner.remove()
		}
		if err != nil {
			return false, err
		}
		if !ok {
			panic(errorf(ErrCascadeFailed, "%v referenced by %v", o.LongName(), r.owner.LongName()))
		}
		if r.owner != o && r.owner.IsActive() && !r.owner.deleting {
			r.owner.state |= ParentDeleted
		}
		if len(o.refs) > 0 && o.refs[0] == r {
			o.refs = o.refs[1:]
		}
	}
	for _, p := range o.props {
		if a, ok := p.(attacher); ok {
			a.detach(o)
		}
	}
	o.props = nil
	if o.children != nil {
		if err := o.children.removeAll(); err != nil {
			return false, err
		}
	}
	if o.doc != nil {
		o.doc.Close()
	}
	o.state = (o.state &^ Active) | Deleted
	return true, nil
}

// init reports pending changes to the handler and resets them.
func (o *Object) init() error {
	changes := o.state &^ Active
	o.state &= Active
	if changes == 0 || o.handler == nil {
		return nil
	}
	return o.handler.OnChange(o, changes)
}
