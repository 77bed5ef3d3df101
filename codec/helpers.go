package codec

import (
	"strconv"
)

// Integer is the set of integer types that can be written as a vector.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ExpectArray reads an array header and fails when its size is not n.
func ExpectArray(r Reader, n int) error {
	size, err := r.ReadArray()
	if err != nil {
		return err
	}
	if size != n {
		return formatErrorf("expected array of %d got %d", n, size)
	}
	return nil
}

// ExpectMap reads a map header and fails when its size is not n.
func ExpectMap(r Reader, n int) error {
	size, err := r.ReadMap()
	if err != nil {
		return err
	}
	if size != n {
		return formatErrorf("expected map of %d got %d", n, size)
	}
	return nil
}

// WriteInts writes the values as an array of integers.
func WriteInts[T Integer](w Writer, values []T) error {
	if err := w.BeginArray(len(values)); err != nil {
		return err
	}
	for _, v := range values {
		if err := w.WriteInt(int64(v)); err != nil {
			return err
		}
	}
	return nil
}

// ReadInts reads an array of integers.
func ReadInts[T Integer](r Reader) ([]T, error) {
	size, err := r.ReadArray()
	if err != nil {
		return nil, err
	}
	values := make([]T, 0, size)
	for i := 0; i < size; i++ {
		v, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		values = append(values, T(v))
	}
	return values, nil
}

// ReadKey reads an integer map key.
//
// Formats that only allow string keys store integers in decimal.
func ReadKey(r Reader) (int64, error) {
	kind, err := r.Next()
	if err != nil {
		return 0, err
	}
	if kind != KindString {
		return r.ReadInt()
	}
	s, err := r.ReadString()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, formatErrorf("invalid integer key %q", s)
	}
	return v, nil
}

// Skip consumes the next value including all nested children.
func Skip(r Reader) error {
	return Copy(discard{}, r)
}

// Copy transfers the next value from src to dst.
func Copy(dst Writer, src Reader) error {
	kind, err := src.Next()
	if err != nil {
		return err
	}
	switch kind {
	case KindInt:
		v, err := src.ReadInt()
		if err != nil {
			return err
		}
		return dst.WriteInt(v)
	case KindReal:
		v, err := src.ReadReal()
		if err != nil {
			return err
		}
		return dst.WriteReal(v)
	case KindString:
		v, err := src.ReadString()
		if err != nil {
			return err
		}
		return dst.WriteString(v)
	case KindNull:
		if err := src.ReadNull(); err != nil {
			return err
		}
		return dst.WriteNull()
	case KindArray:
		n, err := src.ReadArray()
		if err != nil {
			return err
		}
		if err := dst.BeginArray(n); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := Copy(dst, src); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		n, err := src.ReadMap()
		if err != nil {
			return err
		}
		if err := dst.BeginMap(n); err != nil {
			return err
		}
		for i := 0; i < 2*n; i++ {
			if err := Copy(dst, src); err != nil {
				return err
			}
		}
		return nil
	default:
		return formatErrorf("unknown kind %s", kind)
	}
}

type discard struct{}

func (discard) WriteInt(int64) error     { return nil }
func (discard) WriteReal(float64) error  { return nil }
func (discard) WriteString(string) error { return nil }
func (discard) WriteNull() error         { return nil }
func (discard) BeginArray(int) error     { return nil }
func (discard) BeginMap(int) error       { return nil }
