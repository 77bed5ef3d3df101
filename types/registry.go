package types

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicatedName = errors.New("duplicated type name")
	ErrDuplicatedID   = errors.New("duplicated type id")
	ErrUnknownType    = errors.New("unknown type id")
)

// Flags is a bit set of type capabilities.
type Flags uint32

// Definition is a single registered type.
type Definition[F any] struct {
	ID      int32
	Flags   Flags
	Name    string
	Factory F
}

// Has returns true when all of the given flags are set.
func (d *Definition[F]) Has(flags Flags) bool {
	return d.Flags&flags == flags
}

// Registry is an append-only table of type definitions kept sorted by id.
//
// Registries are populated once at start-up and are read-only afterwards.
type Registry[F any] struct {
	defs  []*Definition[F]
	names map[string]*Definition[F]
}

// NewRegistry returns an empty registry.
func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{names: make(map[string]*Definition[F])}
}

// Register adds a new definition.
func (r *Registry[F]) Register(id int32, flags Flags, name string, factory F) (*Definition[F], error) {
	if _, ok := r.names[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatedName, name)
	}
	i := r.search(id)
	if i < len(r.defs) && r.defs[i].ID == id {
		return nil, fmt.Errorf("%w: %d", ErrDuplicatedID, id)
	}
	def := &Definition[F]{ID: id, Flags: flags, Name: name, Factory: factory}
	r.defs = append(r.defs, nil)
	copy(r.defs[i+1:], r.defs[i:])
	r.defs[i] = def
	r.names[name] = def
	return def, nil
}

// Lookup returns the definition with the given id.
func (r *Registry[F]) Lookup(id int32) (*Definition[F], error) {
	i := r.search(id)
	if i < len(r.defs) && r.defs[i].ID == id {
		return r.defs[i], nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownType, id)
}

// ByName returns the definition with the given name or nil.
func (r *Registry[F]) ByName(name string) *Definition[F] {
	return r.names[name]
}

// All returns every definition ordered by id.
func (r *Registry[F]) All() []*Definition[F] {
	return r.defs
}

// Len returns the number of definitions.
func (r *Registry[F]) Len() int {
	return len(r.defs)
}

func (r *Registry[F]) search(id int32) int {
	return sort.Search(len(r.defs), func(i int) bool { return r.defs[i].ID >= id })
}
