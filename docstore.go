package docstore

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/config"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/storage"
	"github.com/safval/DistributedDocumentStorage/utils"
)

var ErrDocumentOpen = errors.New("document is already open")

// Store gives access to the documents of one storage backend.
type Store struct {
	env     *core.Env
	docs    storage.Documents
	history config.History
	// mu serializes View calls.
	mu sync.Mutex
}

// Open builds the types and opens the backend described by cfg.
func Open(ctx context.Context, cfg *config.Config, log utils.Logger) (*Store, error) {
	types := core.NewTypes()
	if err := types.AddStandardTypes(); err != nil {
		return nil, err
	}
	if cfg.Schema != "" {
		sdl, err := os.ReadFile(cfg.Schema)
		if err != nil {
			return nil, errors.Wrap(err, "read schema")
		}
		if err := types.LoadSchema(string(sdl), nil); err != nil {
			return nil, errors.Wrapf(err, "load schema %s", cfg.Schema)
		}
	}
	env := core.NewEnv(types).WithLogger(log)
	docs, err := openDocuments(cfg.Storage, types, log)
	if err != nil {
		return nil, err
	}
	log.InfoCtx(ctx, "store opened", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	return New(env, docs, cfg.History), nil
}

func openDocuments(cfg config.Storage, types *core.Types, log utils.Logger) (storage.Documents, error) {
	switch cfg.Backend {
	case "dir":
		format, err := codec.FormatByName(cfg.Format)
		if err != nil {
			return nil, err
		}
		return storage.NewDir(cfg.Path, format, types, log)
	case "memory":
		return storage.NewKVDocuments(storage.NewMemory(), types, log), nil
	case "pebble":
		kv, err := storage.OpenPebble(cfg.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewKVDocuments(kv, types, log), nil
	case "badger":
		kv, err := storage.OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewKVDocuments(kv, types, log), nil
	default:
		return nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}
}

// New returns a store over docs.
func New(env *core.Env, docs storage.Documents, history config.History) *Store {
	return &Store{env: env, docs: docs, history: history}
}

func (s *Store) Env() *core.Env { return s.env }

func (s *Store) Documents() storage.Documents { return s.docs }

// List returns the ids of the stored documents.
func (s *Store) List(ctx context.Context) ([]core.DocID, error) {
	return s.docs.List(ctx)
}

// Open connects a document view and its persisted log to a new hub.
func (s *Store) Open(ctx context.Context, id core.DocID) (*Session, error) {
	if s.env.Hubs.Opened(id) != nil {
		return nil, errors.Wrapf(ErrDocumentOpen, "%x", uint64(id))
	}
	ls, err := s.docs.Open(ctx, id, storage.All)
	if err != nil {
		return nil, err
	}
	hub := core.NewHub(s.env, id)
	if err := hub.Connect(ls); err != nil {
		hub.Close()
		return nil, err
	}
	doc := core.NewDocument(s.env)
	if err := hub.Connect(doc); err != nil {
		hub.Close()
		return nil, err
	}
	s.env.Log.DebugCtx(ctx, "document opened", "doc", id, "transactions", hub.Len())
	return &Session{store: s, hub: hub, log: ls, doc: doc}, nil
}

// Create stores a new document owned by user and opens it.
//
// Document ids have a resolution of one second so the id is moved forward
// while it is taken.
func (s *Store) Create(ctx context.Context, user core.UserID) (*Session, error) {
	ids, err := s.docs.List(ctx)
	if err != nil {
		return nil, err
	}
	taken := make(map[core.DocID]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	id := core.MakeDocID(user, core.Now())
	for taken[id] || s.env.Hubs.Opened(id) != nil {
		id++
	}
	session, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	trz := core.NewTransaction()
	trz.CreateObject(core.DocumentType, &session.doc.Storage).Set(core.NewInt(core.UserIDProp, int64(user)))
	if err := session.Commit(trz); err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Save(); err != nil {
		session.Close()
		return nil, err
	}
	s.env.Log.InfoCtx(ctx, "document created", "doc", id, "user", user)
	return session, nil
}

// View opens a document, calls fn and closes it again.
func (s *Store) View(ctx context.Context, id core.DocID, fn func(doc *core.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	defer session.close()
	return fn(session.doc)
}

// Remove deletes a document that is not open.
func (s *Store) Remove(ctx context.Context, id core.DocID) error {
	if s.env.Hubs.Opened(id) != nil {
		return errors.Wrapf(ErrDocumentOpen, "%x", uint64(id))
	}
	return s.docs.Remove(ctx, id)
}

// Export writes the stored log of a document as a CAR file.
func (s *Store) Export(ctx context.Context, id core.DocID, out io.Writer) error {
	return storage.Export(ctx, s.docs, id, out)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.docs.Close()
}

// Session is an open document: a hub with the persisted log and a live view.
type Session struct {
	store *Store
	hub   *core.Hub
	log   *storage.LogStorage
	doc   *core.Document
}

func (s *Session) ID() core.DocID { return s.hub.ID() }

func (s *Session) Hub() *core.Hub { return s.hub }

// Document returns the live view of the document.
func (s *Session) Document() *core.Document { return s.doc }

// Commit applies a transaction and then packs and saves the history as configured.
func (s *Session) Commit(trz *core.Transaction) error {
	trz.Commit()
	if err := s.hub.Notify(trz); err != nil {
		return err
	}
	return s.after()
}

// Undo reverts the current transaction.
func (s *Session) Undo() error {
	if err := s.hub.UndoRedo(-1); err != nil {
		return err
	}
	return s.after()
}

// Redo applies the next undone transaction.
func (s *Session) Redo() error {
	if err := s.hub.UndoRedo(1); err != nil {
		return err
	}
	return s.after()
}

// Pack merges the history down to at most maxCount transactions and saves it.
func (s *Session) Pack(maxCount int) error {
	if err := s.hub.PackHistory(maxCount); err != nil {
		return err
	}
	return s.Save()
}

func (s *Session) after() error {
	if keep := s.store.history.MaxTransactions; keep > 0 {
		if err := s.hub.PackHistory(keep); err != nil {
			return err
		}
	}
	if s.store.history.AutoSave {
		return s.Save()
	}
	return nil
}

// Save stores the log.
func (s *Session) Save() error {
	return s.log.SetTransactions(s.hub.ID(), s.hub.Transactions(), s.hub.Current())
}

// Close saves the log and releases the document.
func (s *Session) Close() error {
	err := s.Save()
	s.close()
	return err
}

func (s *Session) close() {
	s.doc.Close()
	s.hub.Close()
}
