package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/utils"
)

// Dir keeps one file per document in a directory.
//
// Files are named by the lower-case hex document id.
type Dir struct {
	path   string
	format codec.Format
	types  *core.Types
	log    utils.Logger
}

// NewDir returns the documents stored in path, creating the directory if needed.
func NewDir(path string, format codec.Format, types *core.Types, log utils.Logger) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return &Dir{path: path, format: format, types: types, log: log}, nil
}

// Path returns the file of a document.
func (d *Dir) Path(id core.DocID) string {
	return filepath.Join(d.path, docName(id))
}

func (d *Dir) List(ctx context.Context) ([]core.DocID, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", d.path)
	}
	var ids []core.DocID
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if id, ok := parseDocName(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *Dir) Open(ctx context.Context, id core.DocID, filter Filter) (*LogStorage, error) {
	s := NewLogStorage(&fileBlob{dir: d.path, name: docName(id)}, d.format, d.types).WithLogger(d.log)
	s.filter = filter
	return s, nil
}

func (d *Dir) Remove(ctx context.Context, id core.DocID) error {
	err := os.Remove(d.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "remove %s", docName(id))
	}
	return nil
}

func (d *Dir) Close() error {
	return nil
}

type fileBlob struct {
	dir  string
	name string
}

func (b *fileBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, b.name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", b.name)
	}
	return data, nil
}

// Write replaces the file through a temporary file in the same directory.
func (b *fileBlob) Write(ctx context.Context, data []byte) error {
	tmp := filepath.Join(b.dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", b.name)
	}
	if err := os.Rename(tmp, filepath.Join(b.dir, b.name)); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", b.name)
	}
	return nil
}
