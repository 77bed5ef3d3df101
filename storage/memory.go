package storage

import (
	"context"
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

type memory struct {
	values *xsync.MapOf[string, []byte]
}

// NewMemory returns a KV that lives in process memory.
func NewMemory() KV {
	return &memory{
		values: xsync.NewMapOf[string, []byte](),
	}
}

func (m *memory) Has(ctx context.Context, key string) (bool, error) {
	_, ok := m.values.Load(key)
	return ok, nil
}

func (m *memory) Put(ctx context.Context, key string, content []byte) error {
	m.values.Store(key, slices.Clone(content))
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	content, ok := m.values.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(content), nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.values.Delete(key)
	return nil
}

func (m *memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	m.values.Range(func(key string, _ []byte) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	slices.Sort(keys)
	return keys, nil
}

func (m *memory) Close() error {
	return nil
}
