package codec

import (
	"errors"
	"fmt"
)

// Kind identifies the type of the next token in a stream.
type Kind int

const (
	KindInt Kind = iota
	KindReal
	KindString
	KindNull
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrFormat is returned when a stream does not match the expected layout.
var ErrFormat = errors.New("serialization format error")

// Writer produces a typed token stream.
//
// Containers are framed: BeginArray declares the number of elements and
// BeginMap the number of key/value pairs that follow.
type Writer interface {
	WriteInt(v int64) error
	WriteReal(v float64) error
	WriteString(v string) error
	WriteNull() error
	BeginArray(n int) error
	BeginMap(n int) error
}

// Reader consumes a typed token stream.
type Reader interface {
	// Next returns the kind of the next token without consuming it.
	Next() (Kind, error)
	ReadInt() (int64, error)
	ReadReal() (float64, error)
	ReadString() (string, error)
	ReadNull() error
	// ReadArray consumes an array header and returns its element count.
	ReadArray() (int, error)
	// ReadMap consumes a map header and returns its pair count.
	ReadMap() (int, error)
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func unexpectedKind(expect, actual Kind) error {
	return formatErrorf("expected %s got %s", expect, actual)
}
