package codec

import (
	"bufio"
	"io"
	"math"
)

const (
	kindString  = byte(1)
	kindInt64   = byte(4)
	kindFloat64 = byte(5)
	kindMap     = byte(6)
	kindList    = byte(7)
	kindNull    = byte(9)
)

// Encoder writes a token stream in the compact binary format.
//
// Every token starts with a kind byte followed by an 8 byte little endian
// value or length.
type Encoder struct {
	w *bufio.Writer
	t tracker
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Flush writes any buffered data and fails if the root value is incomplete.
func (e *Encoder) Flush() error {
	if err := e.w.Flush(); err != nil {
		return err
	}
	if !e.t.done {
		return formatErrorf("incomplete value with %d open containers", e.t.depth())
	}
	return nil
}

func (e *Encoder) WriteInt(value int64) error {
	if err := e.token(kindInt64, uint64(value)); err != nil {
		return err
	}
	e.t.step()
	return nil
}

func (e *Encoder) WriteReal(value float64) error {
	if err := e.token(kindFloat64, math.Float64bits(value)); err != nil {
		return err
	}
	e.t.step()
	return nil
}

func (e *Encoder) WriteString(value string) error {
	if err := e.token(kindString, uint64(len(value))); err != nil {
		return err
	}
	if _, err := e.w.WriteString(value); err != nil {
		return err
	}
	e.t.step()
	return nil
}

func (e *Encoder) WriteNull() error {
	if err := e.t.check(); err != nil {
		return err
	}
	if err := e.w.WriteByte(kindNull); err != nil {
		return err
	}
	e.t.step()
	return nil
}

func (e *Encoder) BeginArray(n int) error {
	if err := e.token(kindList, uint64(n)); err != nil {
		return err
	}
	e.t.begin(false, n)
	return nil
}

func (e *Encoder) BeginMap(n int) error {
	if err := e.token(kindMap, uint64(n)); err != nil {
		return err
	}
	e.t.begin(true, n)
	return nil
}

func (e *Encoder) token(kind byte, value uint64) error {
	if err := e.t.check(); err != nil {
		return err
	}
	if err := e.w.WriteByte(kind); err != nil {
		return err
	}
	return e.writeUint64(value)
}

func (e *Encoder) writeUint64(value uint64) error {
	for i := 0; i < 8; i++ {
		err := e.w.WriteByte(byte(value >> (i * 8)))
		if err != nil {
			return err
		}
	}
	return nil
}
