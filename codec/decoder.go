package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
)

const maxSize = 1 << 31

// Decoder reads a token stream written by Encoder.
type Decoder struct {
	r *bufio.Reader
	t tracker
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) Next() (Kind, error) {
	if err := d.t.check(); err != nil {
		return 0, err
	}
	b, err := d.r.Peek(1)
	if err != nil {
		return 0, eofError(err)
	}
	switch b[0] {
	case kindInt64:
		return KindInt, nil
	case kindFloat64:
		return KindReal, nil
	case kindString:
		return KindString, nil
	case kindNull:
		return KindNull, nil
	case kindList:
		return KindArray, nil
	case kindMap:
		return KindMap, nil
	default:
		return 0, formatErrorf("invalid codec kind %x", b[0])
	}
}

func (d *Decoder) ReadInt() (int64, error) {
	value, err := d.token(kindInt64)
	if err != nil {
		return 0, err
	}
	d.t.step()
	return int64(value), nil
}

func (d *Decoder) ReadReal() (float64, error) {
	value, err := d.token(kindFloat64)
	if err != nil {
		return 0, err
	}
	d.t.step()
	return math.Float64frombits(value), nil
}

func (d *Decoder) ReadString() (string, error) {
	size, err := d.size(kindString)
	if err != nil {
		return "", err
	}
	value := make([]byte, size)
	if _, err := io.ReadFull(d.r, value); err != nil {
		return "", eofError(err)
	}
	d.t.step()
	return string(value), nil
}

func (d *Decoder) ReadNull() error {
	if err := d.kind(kindNull); err != nil {
		return err
	}
	d.t.step()
	return nil
}

func (d *Decoder) ReadArray() (int, error) {
	size, err := d.size(kindList)
	if err != nil {
		return 0, err
	}
	d.t.begin(false, size)
	return size, nil
}

func (d *Decoder) ReadMap() (int, error) {
	size, err := d.size(kindMap)
	if err != nil {
		return 0, err
	}
	d.t.begin(true, size)
	return size, nil
}

func (d *Decoder) kind(expect byte) error {
	if err := d.t.check(); err != nil {
		return err
	}
	kind, err := d.r.ReadByte()
	if err != nil {
		return eofError(err)
	}
	if kind != expect {
		return formatErrorf("unexpected codec kind %x", kind)
	}
	return nil
}

func (d *Decoder) token(expect byte) (uint64, error) {
	if err := d.kind(expect); err != nil {
		return 0, err
	}
	return d.readUint64()
}

// size reads a length token and rejects values no real stream can hold.
func (d *Decoder) size(expect byte) (int, error) {
	size, err := d.token(expect)
	if err != nil {
		return 0, err
	}
	if size > maxSize {
		return 0, formatErrorf("size %d out of range", size)
	}
	return int(size), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	result := uint64(0)
	for i := 0; i < 8; i++ {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, eofError(err)
		}
		result |= uint64(b) << (i * 8)
	}
	return result, nil
}

func eofError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return err
}
