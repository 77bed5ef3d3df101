package codec

import (
	"strconv"
	"strings"
)

// JSONWriter renders a token stream as compact JSON for debug output.
type JSONWriter struct {
	sb strings.Builder
	t  tracker
}

func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// String returns the text written so far.
func (w *JSONWriter) String() string {
	return w.sb.String()
}

func (w *JSONWriter) WriteInt(v int64) error {
	return w.scalar(strconv.FormatInt(v, 10))
}

func (w *JSONWriter) WriteReal(v float64) error {
	return w.scalar(strconv.FormatFloat(v, 'g', -1, 64))
}

func (w *JSONWriter) WriteString(v string) error {
	return w.scalar(strconv.Quote(v))
}

func (w *JSONWriter) WriteNull() error {
	return w.scalar("null")
}

func (w *JSONWriter) BeginArray(n int) error {
	return w.begin(false, n)
}

func (w *JSONWriter) BeginMap(n int) error {
	return w.begin(true, n)
}

func (w *JSONWriter) begin(isMap bool, n int) error {
	if err := w.t.check(); err != nil {
		return err
	}
	open, empty := "[", "[]"
	if isMap {
		open, empty = "{", "{}"
	}
	if n == 0 {
		w.sb.WriteString(empty)
		w.separate(w.t.begin(isMap, n))
		return nil
	}
	w.sb.WriteString(open)
	w.t.begin(isMap, n)
	return nil
}

func (w *JSONWriter) scalar(text string) error {
	if err := w.t.check(); err != nil {
		return err
	}
	w.sb.WriteString(text)
	w.separate(w.t.step())
	return nil
}

// separate closes finished containers and writes the delimiter that
// precedes the next token.
func (w *JSONWriter) separate(closed []frame) {
	for _, f := range closed {
		if f.isMap {
			w.sb.WriteByte('}')
		} else {
			w.sb.WriteByte(']')
		}
	}
	if w.t.depth() == 0 {
		return
	}
	if w.t.isKey() {
		w.sb.WriteByte(',')
	} else if top := w.t.stack[w.t.depth()-1]; top.isMap {
		w.sb.WriteByte(':')
	} else {
		w.sb.WriteByte(',')
	}
}
