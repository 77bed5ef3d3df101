package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dir", cfg.Storage.Backend)
	assert.Equal(t, "cbor", cfg.Storage.Format)
	assert.True(t, cfg.History.AutoSave)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
storage:
  backend: pebble
  path: /var/lib/docstore
history:
  maxTransactions: 50
  autoSave: false
log:
  level: debug
schema: types.graphql
`))
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/docstore", cfg.Storage.Path)
	assert.Equal(t, "cbor", cfg.Storage.Format)
	assert.Equal(t, 50, cfg.History.MaxTransactions)
	assert.False(t, cfg.History.AutoSave)
	assert.Equal(t, "types.graphql", cfg.Schema)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"backend": "storage: {backend: sqlite}",
		"path":    "storage: {backend: dir, path: ''}",
		"format":  "storage: {format: json}",
		"history": "history: {maxTransactions: -1}",
		"level":   "log: {level: loud}",
		"syntax":  "storage: [",
		"type":    "history: {autoSave: maybe}",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: {backend: memory, format: binary}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "binary", cfg.Storage.Format)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
