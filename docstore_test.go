package docstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safval/DistributedDocumentStorage/config"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/utils"
)

const testSchema = `
scalar title @property(id: 600, kind: "string")
type note @object(id: 600) { title: title }
`

func openTestStore(t *testing.T, backend string) *Store {
	cfg := config.Default()
	cfg.Storage.Backend = backend
	cfg.Storage.Path = t.TempDir()
	cfg.Schema = filepath.Join(t.TempDir(), "types.graphql")
	require.NoError(t, os.WriteFile(cfg.Schema, []byte(testSchema), 0o644))
	require.NoError(t, cfg.Validate())

	store, err := Open(context.Background(), cfg, utils.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndView(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{"dir", "memory", "pebble", "badger"} {
		t.Run(backend, func(t *testing.T) {
			store := openTestStore(t, backend)

			session, err := store.Create(ctx, core.MainUserID)
			require.NoError(t, err)
			id := session.ID()
			assert.Equal(t, core.MainUserID, id.User())
			assert.Equal(t, "1#1[2:101]", session.Document().DebugString())

			_, err = store.Open(ctx, id)
			assert.ErrorIs(t, err, ErrDocumentOpen)
			assert.ErrorIs(t, store.Remove(ctx, id), ErrDocumentOpen)

			trz := core.NewTransaction()
			trz.CreateObject(600, &session.Document().Storage).Set(core.NewString(600, "hello"))
			require.NoError(t, session.Commit(trz))
			require.NoError(t, session.Close())

			second, err := store.Create(ctx, core.MainUserID)
			require.NoError(t, err)
			assert.NotEqual(t, id, second.ID())
			require.NoError(t, second.Close())

			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []core.DocID{id, second.ID()}, ids)

			err = store.View(ctx, id, func(doc *core.Document) error {
				assert.Equal(t, `1#1[2:101]600#2[600:"hello"]`, doc.DebugString())
				return nil
			})
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, store.Export(ctx, id, &buf))
			assert.NotZero(t, buf.Len())

			require.NoError(t, store.Remove(ctx, id))
			ids, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []core.DocID{second.ID()}, ids)
		})
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, "memory")
	store.history = config.History{MaxTransactions: 2, AutoSave: false}

	session, err := store.Create(ctx, core.DefaultLocalUserID)
	require.NoError(t, err)
	id := session.ID()
	doc := session.Document()

	note := core.NewTransaction()
	note.CreateObject(600, &doc.Storage).Set(core.NewString(600, "a"))
	require.NoError(t, session.Commit(note))
	for _, title := range []string{"b", "c"} {
		trz := core.NewTransaction()
		trz.ChangeObject(2).Set(core.NewString(600, title))
		require.NoError(t, session.Commit(trz))
	}
	assert.Equal(t, 2, session.Hub().Len())
	assert.Equal(t, `1#1[2:1]600#2[600:"c"]`, doc.DebugString())

	require.NoError(t, session.Undo())
	assert.Equal(t, `1#1[2:1]600#2[600:"b"]`, doc.DebugString())
	require.NoError(t, session.Redo())
	require.NoError(t, session.Pack(1))
	assert.Equal(t, 1, session.Hub().Len())
	require.NoError(t, session.Close())

	session, err = store.Open(ctx, id)
	require.NoError(t, err)
	defer session.Close()
	assert.Equal(t, `1#1[2:1]600#2[600:"c"]`, session.Document().DebugString())
	assert.Equal(t, 1, session.Hub().Len())
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Schema = filepath.Join(t.TempDir(), "missing.graphql")
	_, err := Open(ctx, cfg, utils.NopLogger{})
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Schema = filepath.Join(t.TempDir(), "bad.graphql")
	require.NoError(t, os.WriteFile(cfg.Schema, []byte("type document @object(id: 7) { x: Int }"), 0o644))
	_, err = Open(ctx, cfg, utils.NopLogger{})
	assert.Equal(t, core.ErrDuplicatedObjectName.Code, core.Code(err))

	cfg = config.Default()
	cfg.Storage.Backend = "tape"
	_, err = Open(ctx, cfg, utils.NopLogger{})
	assert.Error(t, err)
}
