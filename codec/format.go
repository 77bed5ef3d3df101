package codec

import (
	"bytes"
	"fmt"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// Format converts a token stream to bytes and back.
type Format interface {
	Name() string
	// Encode returns the bytes of the single value produced by fn.
	Encode(fn func(Writer) error) ([]byte, error)
	// Decode returns a reader over a single encoded value.
	Decode(data []byte) (Reader, error)
}

var (
	// Binary is the compact kind/length format of Encoder and Decoder.
	Binary Format = binaryFormat{}
	// CBOR is DAG-CBOR through the IPLD data model.
	CBOR Format = cborFormat{}
)

// FormatByName returns the format with the given name.
func FormatByName(name string) (Format, error) {
	switch name {
	case "", CBOR.Name():
		return CBOR, nil
	case Binary.Name():
		return Binary, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

type binaryFormat struct{}

func (binaryFormat) Name() string { return "binary" }

func (binaryFormat) Encode(fn func(Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := fn(enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (binaryFormat) Decode(data []byte) (Reader, error) {
	if len(data) == 0 {
		return nil, formatErrorf("empty stream")
	}
	return NewDecoder(bytes.NewReader(data)), nil
}

type cborFormat struct{}

func (cborFormat) Name() string { return "cbor" }

func (cborFormat) Encode(fn func(Writer) error) ([]byte, error) {
	nw := NewNodeWriter()
	if err := fn(nw); err != nil {
		return nil, err
	}
	node, err := nw.Node()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dagcbor.Encode(node, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (cborFormat) Decode(data []byte) (Reader, error) {
	if len(data) == 0 {
		return nil, formatErrorf("empty stream")
	}
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := dagcbor.Decode(nb, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return NewNodeReader(nb.Build()), nil
}
