package link

import (
	"bytes"
	"context"
	"testing"

	"github.com/ipld/go-car/v2"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/ipld/go-ipld-prime/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLog(t *testing.T) datamodel.Node {
	node, err := qp.BuildList(basicnode.Prototype.Any, 4, func(la datamodel.ListAssembler) {
		qp.ListEntry(la, qp.Int(1))
		qp.ListEntry(la, qp.Int(7))
		qp.ListEntry(la, qp.Map(0, func(datamodel.MapAssembler) {}))
		qp.ListEntry(la, qp.List(2, func(la datamodel.ListAssembler) {
			qp.ListEntry(la, qp.Int(7))
			qp.ListEntry(la, qp.String("text"))
		}))
	})
	require.NoError(t, err)
	return node
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memstore.Store{})

	node := buildLog(t)
	lnk, err := store.Store(ctx, node)
	require.NoError(t, err)

	parsed, err := ParseLink(lnk.String())
	require.NoError(t, err)
	assert.Equal(t, Key(lnk), Key(parsed))

	loaded, err := store.Load(ctx, parsed)
	require.NoError(t, err)
	assert.True(t, datamodel.DeepEqual(node, loaded))
}

func TestParseLinkError(t *testing.T) {
	_, err := ParseLink("not a cid")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memstore.Store{})

	lnk, err := store.Store(ctx, buildLog(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.Export(ctx, lnk, &buf))

	br, err := car.NewBlockReader(&buf)
	require.NoError(t, err)
	require.Len(t, br.Roots, 1)
	assert.Equal(t, lnk.String(), br.Roots[0].String())

	block, err := br.Next()
	require.NoError(t, err)
	assert.Equal(t, lnk.String(), block.Cid().String())
}
