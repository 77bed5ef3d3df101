package types

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const (
	ObjectDirective   = "object"
	PropertyDirective = "property"
)

// Property value kinds accepted by the property directive.
const (
	KindInt      = "int"
	KindReal     = "real"
	KindString   = "string"
	KindRelation = "relation"
)

var ErrSchema = errors.New("invalid schema")

// ObjectSpec is an object type declared in SDL.
type ObjectSpec struct {
	ID       int32
	Name     string
	Top      bool
	Storage  bool
	Document bool
	// Fields lists the property names declared on the type.
	Fields []string
}

// PropertySpec is a property type declared in SDL.
type PropertySpec struct {
	ID         int32
	Name       string
	Kind       string
	ReadOnly   bool
	NoDelete   bool
	Searchable bool
}

// Schema is the set of type declarations found in one SDL document.
type Schema struct {
	Objects    []ObjectSpec
	Properties []PropertySpec
}

// ParseSchema reads object and property declarations from SDL.
//
// Object types are GraphQL object types annotated with @object and property
// types are scalars annotated with @property. Other definitions are ignored.
func ParseSchema(sdl string) (*Schema, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	s := &Schema{}
	for _, def := range doc.Definitions {
		switch def.Kind {
		case ast.Object:
			dir := def.Directives.ForName(ObjectDirective)
			if dir == nil {
				continue
			}
			spec, err := objectSpec(def, dir)
			if err != nil {
				return nil, err
			}
			s.Objects = append(s.Objects, spec)
		case ast.Scalar:
			dir := def.Directives.ForName(PropertyDirective)
			if dir == nil {
				continue
			}
			spec, err := propertySpec(def, dir)
			if err != nil {
				return nil, err
			}
			s.Properties = append(s.Properties, spec)
		}
	}
	return s, nil
}

func objectSpec(def *ast.Definition, dir *ast.Directive) (ObjectSpec, error) {
	id, err := intArg(def, dir, "id")
	if err != nil {
		return ObjectSpec{}, err
	}
	spec := ObjectSpec{ID: id, Name: def.Name}
	if spec.Top, err = boolArg(def, dir, "top"); err != nil {
		return ObjectSpec{}, err
	}
	if spec.Storage, err = boolArg(def, dir, "storage"); err != nil {
		return ObjectSpec{}, err
	}
	if spec.Document, err = boolArg(def, dir, "document"); err != nil {
		return ObjectSpec{}, err
	}
	for _, f := range def.Fields {
		spec.Fields = append(spec.Fields, f.Name)
	}
	return spec, nil
}

func propertySpec(def *ast.Definition, dir *ast.Directive) (PropertySpec, error) {
	id, err := intArg(def, dir, "id")
	if err != nil {
		return PropertySpec{}, err
	}
	spec := PropertySpec{ID: id, Name: def.Name, Kind: KindInt}
	if arg := dir.Arguments.ForName("kind"); arg != nil {
		spec.Kind = arg.Value.Raw
	}
	switch spec.Kind {
	case KindInt, KindReal, KindString, KindRelation:
	default:
		return PropertySpec{}, fmt.Errorf("%w: %s has unknown kind %q", ErrSchema, def.Name, spec.Kind)
	}
	if spec.ReadOnly, err = boolArg(def, dir, "readonly"); err != nil {
		return PropertySpec{}, err
	}
	if spec.NoDelete, err = boolArg(def, dir, "noDelete"); err != nil {
		return PropertySpec{}, err
	}
	if spec.Searchable, err = boolArg(def, dir, "searchable"); err != nil {
		return PropertySpec{}, err
	}
	return spec, nil
}

func intArg(def *ast.Definition, dir *ast.Directive, name string) (int32, error) {
	arg := dir.Arguments.ForName(name)
	if arg == nil {
		return 0, fmt.Errorf("%w: %s is missing argument %s", ErrSchema, def.Name, name)
	}
	v, err := strconv.ParseInt(arg.Value.Raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s has invalid %s %q", ErrSchema, def.Name, name, arg.Value.Raw)
	}
	return int32(v), nil
}

func boolArg(def *ast.Definition, dir *ast.Directive, name string) (bool, error) {
	arg := dir.Arguments.ForName(name)
	if arg == nil {
		return false, nil
	}
	v, err := strconv.ParseBool(arg.Value.Raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s has invalid %s %q", ErrSchema, def.Name, name, arg.Value.Raw)
	}
	return v, nil
}
