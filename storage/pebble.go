package storage

import (
	"context"
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

type pebbleKV struct {
	db *pebble.DB
}

// OpenPebble opens or creates a pebble database in the directory.
func OpenPebble(path string) (KV, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble %s", path)
	}
	return &pebbleKV{db: db}, nil
}

func (p *pebbleKV) Has(ctx context.Context, key string) (bool, error) {
	_, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (p *pebbleKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, closer, err := p.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return slices.Clone(val), nil
}

func (p *pebbleKV) Put(ctx context.Context, key string, content []byte) error {
	return p.db.Set([]byte(key), content, pebble.Sync)
}

func (p *pebbleKV) Delete(ctx context.Context, key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *pebbleKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return nil, err
	}
	return keys, iter.Close()
}

func (p *pebbleKV) Close() error {
	return p.db.Close()
}
