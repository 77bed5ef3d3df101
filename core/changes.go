package core

import (
	"slices"

	"github.com/safval/DistributedDocumentStorage/codec"
)

// changesSerialSize is the number of log slots one change occupies.
const changesSerialSize = 4

// Changes is the diff of one object inside a transaction.
//
// The upserted properties and the deleted property types never overlap.
type Changes struct {
	name  LongName
	typ   ObjType
	props []Property
	del   []PropType
}

// Name returns the long name of the changed object.
func (c *Changes) Name() LongName { return c.name }

// Type returns the type of a created object, TypeUnchanged or TypeDeleted.
func (c *Changes) Type() ObjType { return c.typ }

// Props returns the upserted properties.
func (c *Changes) Props() []Property { return c.props }

// Removed returns the deleted property types.
func (c *Changes) Removed() []PropType { return c.del }

// Prop returns the upserted property of the given type or nil.
func (c *Changes) Prop(pt PropType) Property {
	for _, p := range c.props {
		if p.Type() == pt {
			return p
		}
	}
	return nil
}

// Set upserts a property. It has no effect on a deleted object.
func (c *Changes) Set(p Property) *Changes {
	if c.typ == TypeDeleted {
		return c
	}
	c.erase(p.Type())
	c.props = append(c.props, p)
	c.del = slices.DeleteFunc(c.del, func(pt PropType) bool { return pt == p.Type() })
	return c
}

// Remove deletes a property. It has no effect on a deleted object.
func (c *Changes) Remove(pt PropType) *Changes {
	if c.typ == TypeDeleted {
		return c
	}
	if !slices.Contains(c.del, pt) {
		c.del = append(c.del, pt)
	}
	c.erase(pt)
	return c
}

// Delete turns the change into a whole object delete.
func (c *Changes) Delete() {
	c.typ = TypeDeleted
	c.props = nil
	c.del = nil
}

func (c *Changes) erase(pt PropType) {
	c.props = slices.DeleteFunc(c.props, func(p Property) bool { return p.Type() == pt })
}

func (c *Changes) clone() *Changes {
	res := &Changes{
		name: c.name.Clone(),
		typ:  c.typ,
		del:  slices.Clone(c.del),
	}
	for _, p := range c.props {
		res.props = append(res.props, p.Clone())
	}
	return res
}

// merge folds a later change of the same object into c.
func (c *Changes) merge(other *Changes) error {
	if other.typ == TypeDeleted {
		c.Delete()
		return nil
	}
	if other.typ != TypeUnchanged {
		return errorf(ErrMergeCreate, "%v", other.name)
	}
	for _, pt := range other.del {
		c.erase(pt)
	}
	for _, p := range other.props {
		c.del = slices.DeleteFunc(c.del, func(pt PropType) bool { return pt == p.Type() })
		i := slices.IndexFunc(c.props, func(q Property) bool { return q.Type() == p.Type() })
		if i >= 0 {
			c.props[i] = p.Clone()
		} else {
			c.props = append(c.props, p.Clone())
		}
	}
	c.del = append(c.del, other.del...)
	slices.Sort(c.del)
	c.del = slices.Compact(c.del)
	return nil
}

func (c *Changes) write(w codec.Writer) error {
	if err := codec.WriteInts(w, c.name); err != nil {
		return err
	}
	if err := w.WriteInt(int64(c.typ)); err != nil {
		return err
	}
	if err := codec.WriteInts(w, c.del); err != nil {
		return err
	}
	if err := w.BeginMap(len(c.props)); err != nil {
		return err
	}
	for _, p := range c.props {
		if err := w.WriteInt(int64(p.Type())); err != nil {
			return err
		}
		if err := p.Write(w); err != nil {
			return err
		}
	}
	return nil
}

func readChanges(r codec.Reader, t *Types) (*Changes, error) {
	c := &Changes{}
	var err error
	if c.name, err = codec.ReadInts[Name](r); err != nil {
		return nil, err
	}
	typ, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	c.typ = ObjType(typ)
	if c.del, err = codec.ReadInts[PropType](r); err != nil {
		return nil, err
	}
	n, err := r.ReadMap()
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		key, err := codec.ReadKey(r)
		if err != nil {
			return nil, err
		}
		pt := PropType(key)
		def, err := t.Property(pt)
		if err != nil {
			return nil, err
		}
		p, err := def.Factory(pt, r)
		if err != nil {
			return nil, err
		}
		c.props = append(c.props, p)
	}
	return c, nil
}
