package storage

import (
	"context"

	"github.com/ipld/go-ipld-prime/storage"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("key not found")

// KV is a flat key value store.
//
// It can back an IPLD link system as both read and write storage.
type KV interface {
	storage.ReadableStorage
	storage.WritableStorage
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns the sorted keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// upperBound returns the smallest key greater than every key with the prefix.
func upperBound(prefix string) []byte {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
