package codec

import (
	"fmt"
	"strconv"

	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// NodeWriter assembles a token stream into an IPLD data model node.
//
// IPLD maps only allow string keys so integer keys are stored in decimal.
type NodeWriter struct {
	nb    datamodel.NodeBuilder
	stack []assembler
	t     tracker
}

type assembler struct {
	list datamodel.ListAssembler
	m    datamodel.MapAssembler
}

func (a assembler) finish() error {
	if a.list != nil {
		return a.list.Finish()
	}
	return a.m.Finish()
}

// NewNodeWriter returns a writer that builds basicnode values.
func NewNodeWriter() *NodeWriter {
	return &NodeWriter{nb: basicnode.Prototype.Any.NewBuilder()}
}

// Node returns the assembled node once the root value is complete.
func (w *NodeWriter) Node() (datamodel.Node, error) {
	if !w.t.done {
		return nil, formatErrorf("incomplete value with %d open containers", w.t.depth())
	}
	return w.nb.Build(), nil
}

func (w *NodeWriter) WriteInt(v int64) error {
	na, key, err := w.next()
	if err != nil {
		return err
	}
	if key {
		err = na.AssignString(strconv.FormatInt(v, 10))
	} else {
		err = na.AssignInt(v)
	}
	if err != nil {
		return err
	}
	return w.step()
}

func (w *NodeWriter) WriteReal(v float64) error {
	na, key, err := w.next()
	if err != nil {
		return err
	}
	if key {
		return formatErrorf("real map key")
	}
	if err := na.AssignFloat(v); err != nil {
		return err
	}
	return w.step()
}

func (w *NodeWriter) WriteString(v string) error {
	na, _, err := w.next()
	if err != nil {
		return err
	}
	if err := na.AssignString(v); err != nil {
		return err
	}
	return w.step()
}

func (w *NodeWriter) WriteNull() error {
	na, key, err := w.next()
	if err != nil {
		return err
	}
	if key {
		return formatErrorf("null map key")
	}
	if err := na.AssignNull(); err != nil {
		return err
	}
	return w.step()
}

func (w *NodeWriter) BeginArray(n int) error {
	na, key, err := w.next()
	if err != nil {
		return err
	}
	if key {
		return formatErrorf("array map key")
	}
	la, err := na.BeginList(int64(n))
	if err != nil {
		return err
	}
	if n == 0 {
		if err := la.Finish(); err != nil {
			return err
		}
		return w.close(w.t.begin(false, 0))
	}
	w.stack = append(w.stack, assembler{list: la})
	w.t.begin(false, n)
	return nil
}

func (w *NodeWriter) BeginMap(n int) error {
	na, key, err := w.next()
	if err != nil {
		return err
	}
	if key {
		return formatErrorf("map map key")
	}
	ma, err := na.BeginMap(int64(n))
	if err != nil {
		return err
	}
	if n == 0 {
		if err := ma.Finish(); err != nil {
			return err
		}
		return w.close(w.t.begin(true, 0))
	}
	w.stack = append(w.stack, assembler{m: ma})
	w.t.begin(true, n)
	return nil
}

// next returns the assembler for the next token and whether it is a map key.
func (w *NodeWriter) next() (datamodel.NodeAssembler, bool, error) {
	if err := w.t.check(); err != nil {
		return nil, false, err
	}
	if len(w.stack) == 0 {
		return w.nb, false, nil
	}
	top := w.stack[len(w.stack)-1]
	if top.list != nil {
		return top.list.AssembleValue(), false, nil
	}
	if w.t.isKey() {
		return top.m.AssembleKey(), true, nil
	}
	return top.m.AssembleValue(), false, nil
}

func (w *NodeWriter) step() error {
	return w.close(w.t.step())
}

func (w *NodeWriter) close(closed []frame) error {
	for range closed {
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if err := top.finish(); err != nil {
			return err
		}
	}
	return nil
}

// NodeReader walks an IPLD data model node as a token stream.
type NodeReader struct {
	root   datamodel.Node
	stack  []iterator
	peeked datamodel.Node
	t      tracker
}

type iterator struct {
	list  datamodel.ListIterator
	m     datamodel.MapIterator
	value datamodel.Node
}

// NewNodeReader returns a reader over the given node.
func NewNodeReader(root datamodel.Node) *NodeReader {
	return &NodeReader{root: root}
}

func (r *NodeReader) Next() (Kind, error) {
	n, err := r.peek()
	if err != nil {
		return 0, err
	}
	return kindOf(n)
}

func (r *NodeReader) ReadInt() (int64, error) {
	n, err := r.expect(KindInt)
	if err != nil {
		return 0, err
	}
	var v int64
	if n.Kind() == datamodel.Kind_Bool {
		b, err := n.AsBool()
		if err != nil {
			return 0, err
		}
		if b {
			v = 1
		}
	} else if v, err = n.AsInt(); err != nil {
		return 0, err
	}
	return v, r.step()
}

func (r *NodeReader) ReadReal() (float64, error) {
	n, err := r.expect(KindReal)
	if err != nil {
		return 0, err
	}
	v, err := n.AsFloat()
	if err != nil {
		return 0, err
	}
	return v, r.step()
}

func (r *NodeReader) ReadString() (string, error) {
	n, err := r.expect(KindString)
	if err != nil {
		return "", err
	}
	v, err := n.AsString()
	if err != nil {
		return "", err
	}
	return v, r.step()
}

func (r *NodeReader) ReadNull() error {
	if _, err := r.expect(KindNull); err != nil {
		return err
	}
	return r.step()
}

func (r *NodeReader) ReadArray() (int, error) {
	n, err := r.expect(KindArray)
	if err != nil {
		return 0, err
	}
	size := int(n.Length())
	if size == 0 {
		return 0, r.close(r.t.begin(false, 0))
	}
	r.stack = append(r.stack, iterator{list: n.ListIterator()})
	r.t.begin(false, size)
	return size, nil
}

func (r *NodeReader) ReadMap() (int, error) {
	n, err := r.expect(KindMap)
	if err != nil {
		return 0, err
	}
	size := int(n.Length())
	if size == 0 {
		return 0, r.close(r.t.begin(true, 0))
	}
	r.stack = append(r.stack, iterator{m: n.MapIterator()})
	r.t.begin(true, size)
	return size, nil
}

func (r *NodeReader) expect(kind Kind) (datamodel.Node, error) {
	n, err := r.peek()
	if err != nil {
		return nil, err
	}
	actual, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	if actual != kind {
		return nil, unexpectedKind(kind, actual)
	}
	r.peeked = nil
	return n, nil
}

func (r *NodeReader) peek() (datamodel.Node, error) {
	if r.peeked != nil {
		return r.peeked, nil
	}
	if err := r.t.check(); err != nil {
		return nil, err
	}
	if len(r.stack) == 0 {
		r.peeked = r.root
		return r.peeked, nil
	}
	top := &r.stack[len(r.stack)-1]
	switch {
	case top.list != nil:
		_, v, err := top.list.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		r.peeked = v
	case top.value != nil:
		r.peeked, top.value = top.value, nil
	default:
		k, v, err := top.m.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		r.peeked, top.value = k, v
	}
	return r.peeked, nil
}

func (r *NodeReader) step() error {
	return r.close(r.t.step())
}

func (r *NodeReader) close(closed []frame) error {
	r.stack = r.stack[:len(r.stack)-len(closed)]
	return nil
}

func kindOf(n datamodel.Node) (Kind, error) {
	switch n.Kind() {
	case datamodel.Kind_Int, datamodel.Kind_Bool:
		return KindInt, nil
	case datamodel.Kind_Float:
		return KindReal, nil
	case datamodel.Kind_String:
		return KindString, nil
	case datamodel.Kind_Null:
		return KindNull, nil
	case datamodel.Kind_List:
		return KindArray, nil
	case datamodel.Kind_Map:
		return KindMap, nil
	default:
		return 0, formatErrorf("unsupported node kind %s", n.Kind())
	}
}
