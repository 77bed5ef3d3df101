package codec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSample writes [1, -2.5, "text", null, [], {7: [0, 1]}, {}].
func writeSample(w Writer) error {
	steps := []func() error{
		func() error { return w.BeginArray(7) },
		func() error { return w.WriteInt(1) },
		func() error { return w.WriteReal(-2.5) },
		func() error { return w.WriteString("text") },
		func() error { return w.WriteNull() },
		func() error { return w.BeginArray(0) },
		func() error { return w.BeginMap(1) },
		func() error { return w.WriteInt(7) },
		func() error { return WriteInts(w, []uint32{0, 1}) },
		func() error { return w.BeginMap(0) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func readSample(t *testing.T, r Reader) {
	require.NoError(t, ExpectArray(r, 7))

	kind, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, KindInt, kind)
	i, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int64(1), i)

	f, err := r.ReadReal()
	require.NoError(t, err)
	assert.Equal(t, -2.5, f)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "text", s)

	require.NoError(t, r.ReadNull())

	empty, err := ReadInts[int](r)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, ExpectMap(r, 1))
	key, err := ReadKey(r)
	require.NoError(t, err)
	assert.Equal(t, int64(7), key)
	names, err := ReadInts[uint32](r)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, names)

	require.NoError(t, ExpectMap(r, 0))

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFormats(t *testing.T) {
	for _, format := range []Format{Binary, CBOR} {
		t.Run(format.Name(), func(t *testing.T) {
			data, err := format.Encode(writeSample)
			require.NoError(t, err)

			r, err := format.Decode(data)
			require.NoError(t, err)
			readSample(t, r)
		})
	}
}

func TestEncodeDecodeLimits(t *testing.T) {
	var buffer bytes.Buffer
	enc := NewEncoder(&buffer)
	require.NoError(t, enc.WriteInt(math.MaxInt64))
	require.NoError(t, enc.Flush())

	dec := NewDecoder(&buffer)
	v, err := dec.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)
}

func TestWriteAfterEnd(t *testing.T) {
	w := NewJSONWriter()
	require.NoError(t, w.WriteInt(1))
	assert.ErrorIs(t, w.WriteInt(2), ErrFormat)
}

func TestIncompleteStream(t *testing.T) {
	_, err := Binary.Encode(func(w Writer) error {
		if err := w.BeginArray(2); err != nil {
			return err
		}
		return w.WriteInt(1)
	})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = CBOR.Encode(func(w Writer) error {
		return w.BeginMap(1)
	})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSizeMismatch(t *testing.T) {
	data, err := Binary.Encode(func(w Writer) error {
		return WriteInts(w, []int{1, 2, 3})
	})
	require.NoError(t, err)

	r, err := Binary.Decode(data)
	require.NoError(t, err)
	assert.ErrorIs(t, ExpectArray(r, 2), ErrFormat)
}

func TestSkip(t *testing.T) {
	for _, format := range []Format{Binary, CBOR} {
		data, err := format.Encode(writeSample)
		require.NoError(t, err)

		r, err := format.Decode(data)
		require.NoError(t, err)
		require.NoError(t, Skip(r))
		assert.ErrorIs(t, Skip(r), ErrFormat)
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Binary.Decode(nil)
	assert.ErrorIs(t, err, ErrFormat)
	_, err = CBOR.Decode([]byte{})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Binary.Encode(func(w Writer) error {
		return w.WriteString("truncated")
	})
	require.NoError(t, err)

	r, err := Binary.Decode(data[:len(data)-2])
	require.NoError(t, err)
	_, err = r.ReadString()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestJSONWriter(t *testing.T) {
	w := NewJSONWriter()
	require.NoError(t, writeSample(w))
	assert.Equal(t, `[1,-2.5,"text",null,[],{7:[0,1]},{}]`, w.String())
}

func TestCopy(t *testing.T) {
	data, err := Binary.Encode(writeSample)
	require.NoError(t, err)
	r, err := Binary.Decode(data)
	require.NoError(t, err)

	nw := NewNodeWriter()
	require.NoError(t, Copy(nw, r))
	node, err := nw.Node()
	require.NoError(t, err)

	jw := NewJSONWriter()
	require.NoError(t, Copy(jw, NewNodeReader(node)))
	assert.Equal(t, `[1,-2.5,"text",null,[],{"7":[0,1]},{}]`, jw.String())
}

func TestFormatByName(t *testing.T) {
	f, err := FormatByName("binary")
	require.NoError(t, err)
	assert.Equal(t, Binary, f)

	f, err = FormatByName("")
	require.NoError(t, err)
	assert.Equal(t, CBOR, f)

	_, err = FormatByName("xml")
	assert.Error(t, err)
}
