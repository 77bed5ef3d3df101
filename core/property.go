package core

import (
	"github.com/safval/DistributedDocumentStorage/codec"
)

// Property is a typed value attached to an object.
type Property interface {
	Type() PropType
	Write(w codec.Writer) error
	// Equal returns true when other has the same type and value.
	Equal(other Property) bool
	Clone() Property
}

// attacher is implemented by properties that point to other objects.
type attacher interface {
	attach(owner *Object)
	detach(owner *Object)
}

// Int is an integer property.
type Int struct {
	pt    PropType
	Value int64
}

// NewInt returns an integer property.
func NewInt(pt PropType, v int64) *Int {
	return &Int{pt: pt, Value: v}
}

// ReadInt is the factory of integer properties.
func ReadInt(pt PropType, r codec.Reader) (Property, error) {
	v, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	return NewInt(pt, v), nil
}

func (p *Int) Type() PropType { return p.pt }

func (p *Int) Write(w codec.Writer) error { return w.WriteInt(p.Value) }

func (p *Int) Equal(other Property) bool {
	o, ok := other.(*Int)
	return ok && o.pt == p.pt && o.Value == p.Value
}

func (p *Int) Clone() Property { return NewInt(p.pt, p.Value) }

// Real is a floating point property.
type Real struct {
	pt    PropType
	Value float64
}

// NewReal returns a floating point property.
func NewReal(pt PropType, v float64) *Real {
	return &Real{pt: pt, Value: v}
}

// ReadReal is the factory of floating point properties.
func ReadReal(pt PropType, r codec.Reader) (Property, error) {
	kind, err := r.Next()
	if err != nil {
		return nil, err
	}
	// Integral reals may come back as integers from self-describing formats.
	if kind == codec.KindInt {
		v, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		return NewReal(pt, float64(v)), nil
	}
	v, err := r.ReadReal()
	if err != nil {
		return nil, err
	}
	return NewReal(pt, v), nil
}

func (p *Real) Type() PropType { return p.pt }

func (p *Real) Write(w codec.Writer) error { return w.WriteReal(p.Value) }

func (p *Real) Equal(other Property) bool {
	o, ok := other.(*Real)
	return ok && o.pt == p.pt && o.Value == p.Value
}

func (p *Real) Clone() Property { return NewReal(p.pt, p.Value) }

// String is a text property.
type String struct {
	pt    PropType
	Value string
}

// NewString returns a text property.
func NewString(pt PropType, v string) *String {
	return &String{pt: pt, Value: v}
}

// ReadString is the factory of text properties.
func ReadString(pt PropType, r codec.Reader) (Property, error) {
	v, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return NewString(pt, v), nil
}

func (p *String) Type() PropType { return p.pt }

func (p *String) Write(w codec.Writer) error { return w.WriteString(p.Value) }

func (p *String) Equal(other Property) bool {
	o, ok := other.(*String)
	return ok && o.pt == p.pt && o.Value == p.Value
}

func (p *String) Clone() Property { return NewString(p.pt, p.Value) }

// PropertyString returns the JSON text of a property value.
func PropertyString(p Property) string {
	w := codec.NewJSONWriter()
	if err := p.Write(w); err != nil {
		return "<" + err.Error() + ">"
	}
	return w.String()
}
