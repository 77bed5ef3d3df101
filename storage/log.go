package storage

import (
	"context"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/safval/DistributedDocumentStorage/codec"
	"github.com/safval/DistributedDocumentStorage/core"
	"github.com/safval/DistributedDocumentStorage/utils"
)

// Blob holds the encoded log of one document.
type Blob interface {
	// Read returns the stored bytes or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// LogStorage is the endpoint that persists the transaction log of a document.
//
// It keeps no document state of its own. A hub pushes the full log with
// SetTransactions and reads the stored log back when the endpoint connects.
type LogStorage struct {
	core.HubLink
	blob   Blob
	format codec.Format
	types  *core.Types
	log    utils.Logger
	access Access
	filter Filter
	// sum of the stored bytes, valid when synced is set.
	sum    uint64
	synced bool
}

// NewLogStorage returns an endpoint over blob.
func NewLogStorage(blob Blob, format codec.Format, types *core.Types) *LogStorage {
	return &LogStorage{
		blob:   blob,
		format: format,
		types:  types,
		log:    utils.NopLogger{},
		access: Owner,
		filter: All,
	}
}

// NewMemoryLog returns an endpoint that keeps the encoded log in memory.
func NewMemoryLog(format codec.Format, types *core.Types) *LogStorage {
	return NewLogStorage(&memoryBlob{}, format, types)
}

// WithLogger sets the logger and returns the endpoint.
func (s *LogStorage) WithLogger(log utils.Logger) *LogStorage {
	s.log = log
	return s
}

// WithAccess sets the access descriptor and returns the endpoint.
func (s *LogStorage) WithAccess(access Access) *LogStorage {
	s.access = access
	return s
}

func (s *LogStorage) Access() Access { return s.access }

func (s *LogStorage) Filter() Filter { return s.filter }

func (s *LogStorage) Format() codec.Format { return s.format }

// Bytes returns the stored log in the endpoint format.
func (s *LogStorage) Bytes(ctx context.Context) ([]byte, error) {
	return s.blob.Read(ctx)
}

// Connecting replaces the hub log with the stored one.
//
// A log that cannot be opened or decoded leaves the hub log unchanged.
func (s *LogStorage) Connecting(id core.DocID, log *[]*core.Transaction, current *core.Time) (bool, error) {
	ctx := utils.WithDefaultArgs(context.Background(), "doc", docName(id))
	data, err := s.blob.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		s.log.DebugCtx(ctx, "no stored log")
		return true, nil
	}
	if err != nil {
		s.swallow(ctx, errors.Wrap(core.ErrSerializationFileOpen, err.Error()))
		return true, nil
	}
	stored, cur, err := s.decode(data)
	switch core.Code(err) {
	case 0:
	case core.ErrSerializationFormat.Code, core.ErrSerializationInternal.Code, core.ErrSerializationFileOpen.Code:
		s.swallow(ctx, err)
		return true, nil
	default:
		return false, err
	}
	*log, *current = stored, cur
	s.sum, s.synced = xxhash.Sum64(data), true
	s.log.DebugCtx(ctx, "loaded log", "transactions", len(stored), "current", cur)
	return true, nil
}

func (s *LogStorage) decode(data []byte) ([]*core.Transaction, core.Time, error) {
	r, err := s.format.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	return core.ReadLog(r, s.types)
}

func (s *LogStorage) swallow(ctx context.Context, err error) {
	LogReadFailures.Inc()
	s.log.WarnCtx(ctx, "ignoring stored log", "err", err)
}

// SetTransactions stores the full log unless it did not change.
func (s *LogStorage) SetTransactions(id core.DocID, log []*core.Transaction, current core.Time) error {
	data, err := s.format.Encode(func(w codec.Writer) error {
		return core.WriteLog(w, log, current)
	})
	if err != nil {
		return err
	}
	sum := xxhash.Sum64(data)
	if s.synced && sum == s.sum {
		LogWrites.WithLabelValues("unchanged").Inc()
		return nil
	}
	if err := s.blob.Write(context.Background(), data); err != nil {
		s.synced = false
		return errors.Wrapf(err, "store log of %s", docName(id))
	}
	s.sum, s.synced = sum, true
	LogWrites.WithLabelValues("written").Inc()
	return nil
}

// Notify does nothing. The log is stored when the hub saves.
func (s *LogStorage) Notify(t *core.Transaction) error {
	return nil
}

type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) Read(ctx context.Context) ([]byte, error) {
	if b.data == nil {
		return nil, ErrNotFound
	}
	return slices.Clone(b.data), nil
}

func (b *memoryBlob) Write(ctx context.Context, data []byte) error {
	b.data = slices.Clone(data)
	return nil
}
