package core

import (
	"errors"
	"sort"

	"github.com/safval/DistributedDocumentStorage/codec"
)

// Storage is an ordered set of objects addressed by name.
//
// Deleted objects keep their slot until the name is created again.
type Storage struct {
	objects  []*Object
	nextName Name
	owner    *Object
	doc      *Document
	env      *Env
}

func newStorage(env *Env, owner *Object) *Storage {
	s := &Storage{}
	s.init(env, owner)
	return s
}

func (s *Storage) init(env *Env, owner *Object) {
	s.env = env
	s.owner = owner
	s.nextName = 1
}

func (s *Storage) search(n Name) int {
	return sort.Search(len(s.objects), func(i int) bool { return s.objects[i].name >= n })
}

// FindByName returns the active object with the given name or nil.
func (s *Storage) FindByName(n Name) *Object {
	i := s.search(n)
	if i < len(s.objects) && s.objects[i].name == n && s.objects[i].IsActive() {
		return s.objects[i]
	}
	return nil
}

// Find returns the active object addressed by name or nil.
func (s *Storage) Find(name LongName) *Object {
	if len(name) == 0 {
		return nil
	}
	st := s.FindStorageOf(name)
	if st == nil {
		return nil
	}
	return st.FindByName(name[len(name)-1])
}

// FindStorageOf returns the storage holding the object addressed by name.
func (s *Storage) FindStorageOf(name LongName) *Storage {
	if len(name) == 0 {
		return nil
	}
	st := s
	for _, n := range name[:len(name)-1] {
		o := st.FindByName(n)
		if o == nil || o.children == nil {
			return nil
		}
		st = o.children
	}
	return st
}

// FindStorage returns the child storage of the object addressed by name.
func (s *Storage) FindStorage(name ...Name) *Storage {
	o := s.Find(name)
	if o == nil {
		return nil
	}
	return o.children
}

// FindByType returns the first active object of the given type or nil.
func (s *Storage) FindByType(t ObjType) *Object {
	for _, o := range s.objects {
		if o.IsActive() && o.Type() == t {
			return o
		}
	}
	return nil
}

// Objects returns the active objects ordered by name.
func (s *Storage) Objects() []*Object {
	res := make([]*Object, 0, len(s.objects))
	for _, o := range s.objects {
		if o.IsActive() {
			res = append(res, o)
		}
	}
	return res
}

// Walk calls fn for every active object, parents before children.
func (s *Storage) Walk(fn func(o *Object) error) error {
	for _, o := range s.objects {
		if !o.IsActive() {
			continue
		}
		if err := fn(o); err != nil {
			return err
		}
		if o.children != nil {
			if err := o.children.Walk(fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Size returns the number of active objects.
func (s *Storage) Size(withChildren bool) int {
	count := 0
	for _, o := range s.objects {
		if !o.IsActive() {
			continue
		}
		count++
		if withChildren && o.children != nil {
			count += o.children.Size(true)
		}
	}
	return count
}

// NextName returns the name the next created object receives.
func (s *Storage) NextName() Name { return s.nextName }

// ReserveName returns a fresh name and advances the counter.
func (s *Storage) ReserveName() Name {
	n := s.nextName
	s.nextName++
	return n
}

// Owner returns the object containing the storage or nil for a document root.
func (s *Storage) Owner() *Object { return s.owner }

// Parent returns the storage holding the owner object.
func (s *Storage) Parent() *Storage {
	if s.owner == nil {
		return nil
	}
	return s.owner.storage
}

// Document returns the nearest document containing the storage.
func (s *Storage) Document() *Document {
	for st := s; st != nil; st = st.Parent() {
		if st.doc != nil {
			return st.doc
		}
	}
	return nil
}

// Env returns the environment the storage was created in.
func (s *Storage) Env() *Env { return s.env }

func (s *Storage) create(t ObjType, name Name) (*Object, error) {
	if name == 0 {
		return nil, errorf(ErrNameInUse, "zero name")
	}
	def, err := s.env.Types.Object(t)
	if err != nil {
		return nil, err
	}
	if def.Has(TopObject) && name != 1 {
		return nil, errorf(ErrTopObjectName, "%s at %d", def.Name, name)
	}
	if name >= s.nextName {
		s.nextName = name + 1
	}
	i := s.search(name)
	if i < len(s.objects) && s.objects[i].name == name {
		o := s.objects[i]
		if o.IsActive() {
			return nil, errorf(ErrNameInUse, "%d", name)
		}
		if o.def != def || o.doc != nil {
			o.reset(def)
		} else {
			o.state = Active | Created
		}
		return o, nil
	}
	o := newObject(s, def, name)
	s.objects = append(s.objects, nil)
	copy(s.objects[i+1:], s.objects[i:])
	s.objects[i] = o
	return o, nil
}

// removeAll deletes every active object.
func (s *Storage) removeAll() error {
	for _, o := range s.objects {
		if !o.IsActive() {
			continue
		}
		if _, err := o.remove(); err != nil {
			return err
		}
	}
	return nil
}

// clear drops all objects and closes embedded documents.
//
// The name counter is kept so that names are not handed out twice.
func (s *Storage) clear() {
	for _, o := range s.objects {
		for _, p := range o.props {
			if r, ok := p.(*Relation); ok {
				r.release(o)
			}
		}
		for _, r := range o.refs {
			if rel, ok := r.owner.Prop(r.pt).(*Relation); ok && rel.target == o {
				rel.target = nil
			}
		}
		if o.doc != nil {
			o.doc.Close()
		} else if o.children != nil {
			o.children.clear()
		}
	}
	s.objects = nil
}

// initAll delivers pending changes to every handler.
func (s *Storage) initAll() error {
	var errs []error
	for _, o := range s.objects {
		if err := o.init(); err != nil {
			errs = append(errs, err)
		}
		if o.children != nil {
			if err := o.children.initAll(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Save writes the active objects as a map keyed by name.
//
// Each entry holds the type, the properties keyed by their registered name
// and the children of storage objects.
func (s *Storage) Save(w codec.Writer) error {
	if err := w.BeginMap(s.Size(false)); err != nil {
		return err
	}
	for _, o := range s.objects {
		if !o.IsActive() {
			continue
		}
		if err := w.WriteInt(int64(o.name)); err != nil {
			return err
		}
		n := 1 + len(o.props)
		if o.children != nil {
			n++
		}
		if err := w.BeginMap(n); err != nil {
			return err
		}
		if err := w.WriteString("type"); err != nil {
			return err
		}
		if err := w.WriteInt(int64(o.Type())); err != nil {
			return err
		}
		for _, p := range o.props {
			def, err := o.propDef(p.Type())
			if err != nil {
				return err
			}
			if err := w.WriteString(def.Name); err != nil {
				return err
			}
			if err := p.Write(w); err != nil {
				return err
			}
		}
		if o.children != nil {
			if err := w.WriteString("children"); err != nil {
				return err
			}
			if err := o.children.Save(w); err != nil {
				return err
			}
		}
	}
	return nil
}
