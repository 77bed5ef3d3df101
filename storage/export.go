package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/link"
)

// Export writes the stored log of a document as a CAR file.
//
// Logs that are not kept as blocks are converted through a memory store.
func Export(ctx context.Context, docs Documents, id core.DocID, out io.Writer) error {
	if kd, ok := docs.(*KVDocuments); ok {
		head, err := kd.Head(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "export %s", docName(id))
		}
		return kd.store.Export(ctx, head, out)
	}
	ls, err := docs.Open(ctx, id, All)
	if err != nil {
		return err
	}
	data, err := ls.Bytes(ctx)
	if err != nil {
		return errors.Wrapf(err, "export %s", docName(id))
	}
	r, err := ls.Format().Decode(data)
	if err != nil {
		return err
	}
	nw := codec.NewNodeWriter()
	if err := codec.Copy(nw, r); err != nil {
		return err
	}
	node, err := nw.Node()
	if err != nil {
		return err
	}
	store := link.NewStore(NewMemory())
	lnk, err := store.Store(ctx, node)
	if err != nil {
		return err
	}
	return store.Export(ctx, lnk, out)
}
