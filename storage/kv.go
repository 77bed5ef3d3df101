package storage

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/pkg/errors"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/link"
	"github.com/safval/DistributedDocumentStorage/utils"
)

const headPrefix = "doc/"

// KVDocuments keeps document logs as dag-cbor blocks in a KV.
//
// The key doc/<hex id> holds the link of the current log block.
type KVDocuments struct {
	kv    KV
	store *link.Store
	types *core.Types
	log   utils.Logger
}

// NewKVDocuments returns the documents stored in kv.
func NewKVDocuments(kv KV, types *core.Types, log utils.Logger) *KVDocuments {
	return &KVDocuments{
		kv:    kv,
		store: link.NewStore(kv),
		types: types,
		log:   log,
	}
}

// Store returns the block store of the documents.
func (d *KVDocuments) Store() *link.Store {
	return d.store
}

// Head returns the link of the stored log of a document.
func (d *KVDocuments) Head(ctx context.Context, id core.DocID) (datamodel.Link, error) {
	head, err := d.kv.Get(ctx, headPrefix+docName(id))
	if err != nil {
		return nil, err
	}
	return link.ParseLink(string(head))
}

func (d *KVDocuments) List(ctx context.Context) ([]core.DocID, error) {
	keys, err := d.kv.Keys(ctx, headPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	var ids []core.DocID
	for _, k := range keys {
		if id, ok := parseDocName(strings.TrimPrefix(k, headPrefix)); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *KVDocuments) Open(ctx context.Context, id core.DocID, filter Filter) (*LogStorage, error) {
	s := NewLogStorage(&blockBlob{docs: d, id: id}, codec.CBOR, d.types).WithLogger(d.log)
	s.filter = filter
	return s, nil
}

func (d *KVDocuments) Remove(ctx context.Context, id core.DocID) error {
	head, err := d.Head(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "remove %s", docName(id))
	}
	if err := d.kv.Delete(ctx, headPrefix+docName(id)); err != nil {
		return errors.Wrapf(err, "remove %s", docName(id))
	}
	return d.release(ctx, head)
}

// release deletes a block unless another document head still points to it.
//
// Documents with equal logs share a block.
func (d *KVDocuments) release(ctx context.Context, lnk datamodel.Link) error {
	keys, err := d.kv.Keys(ctx, headPrefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		head, err := d.kv.Get(ctx, k)
		if err != nil {
			return err
		}
		if string(head) == lnk.String() {
			return nil
		}
	}
	return d.kv.Delete(ctx, link.Key(lnk))
}

func (d *KVDocuments) Close() error {
	return d.kv.Close()
}

// blockBlob stores dag-cbor bytes as a content addressed block.
type blockBlob struct {
	docs *KVDocuments
	id   core.DocID
}

func (b *blockBlob) Read(ctx context.Context) ([]byte, error) {
	head, err := b.docs.Head(ctx, b.id)
	if err != nil {
		return nil, err
	}
	node, err := b.docs.store.Load(ctx, head)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", head)
	}
	var buf bytes.Buffer
	if err := dagcbor.Encode(node, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stores a new block and moves the head to it.
func (b *blockBlob) Write(ctx context.Context, data []byte) error {
	nb := basicnode.Prototype.Any.NewBuilder()
	if err := dagcbor.Decode(nb, bytes.NewReader(data)); err != nil {
		return err
	}
	old, err := b.docs.Head(ctx, b.id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	lnk, err := b.docs.store.Store(ctx, nb.Build())
	if err != nil {
		return err
	}
	if err := b.docs.kv.Put(ctx, headPrefix+docName(b.id), []byte(lnk.String())); err != nil {
		return err
	}
	if old != nil && old.String() != lnk.String() {
		return b.docs.release(ctx, old)
	}
	return nil
}
