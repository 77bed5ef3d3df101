package storage

import (
	"context"
	"strconv"

	"github.com/safval/DistributedDocumentStorage/core"
)

// Access is the permission a user holds on a document.
type Access int

const (
	Owner Access = iota
	Full
	ReadWrite
	ReadOnly
)

func (a Access) String() string {
	switch a {
	case Owner:
		return "owner"
	case Full:
		return "full"
	case ReadWrite:
		return "readwrite"
	case ReadOnly:
		return "readonly"
	default:
		return "access(" + strconv.Itoa(int(a)) + ")"
	}
}

// Filter selects the part of a document log a reader is interested in.
type Filter int

const (
	DocInfo Filter = iota
	Strings
	Symbols
	All
)

func (f Filter) String() string {
	switch f {
	case DocInfo:
		return "docinfo"
	case Strings:
		return "strings"
	case Symbols:
		return "symbols"
	case All:
		return "all"
	default:
		return "filter(" + strconv.Itoa(int(f)) + ")"
	}
}

// Documents enumerates and opens the persisted logs of a backend.
type Documents interface {
	// List returns the ids of the stored documents in ascending order.
	List(ctx context.Context) ([]core.DocID, error)
	// Open returns the persistence endpoint of a document.
	//
	// The document does not need to exist yet.
	Open(ctx context.Context, id core.DocID, filter Filter) (*LogStorage, error)
	// Remove deletes the log of a document. Removing a missing document
	// is not an error.
	Remove(ctx context.Context, id core.DocID) error
	Close() error
}

// maxDocID bounds the ids returned by List.
const maxDocID = 0x7fffffffffffffff

func docName(id core.DocID) string {
	return strconv.FormatUint(uint64(id), 16)
}

// parseDocName returns the id encoded in a hex name.
func parseDocName(name string) (core.DocID, bool) {
	v, err := strconv.ParseUint(name, 16, 64)
	if err != nil || v == 0 || v >= maxDocID {
		return 0, false
	}
	return core.DocID(v), true
}
