package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/safval/DistributedDocumentStorage/codec"
)

// Backends are the accepted values of storage.backend.
var Backends = []string{"dir", "memory", "pebble", "badger"}

// Config is the configuration of a document store.
type Config struct {
	Storage Storage `yaml:"storage"`
	History History `yaml:"history"`
	Log     Log     `yaml:"log"`
	// Schema is an optional SDL file with extra type definitions.
	Schema string `yaml:"schema"`
}

type Storage struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	// Format of dir files. KV backends always store dag-cbor.
	Format string `yaml:"format"`
}

type History struct {
	// MaxTransactions packs the history after every commit when positive.
	MaxTransactions int  `yaml:"maxTransactions"`
	AutoSave        bool `yaml:"autoSave"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: "dir",
			Path:    "./data",
			Format:  codec.CBOR.Name(),
		},
		History: History{
			AutoSave: true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values of every section.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "dir", "pebble":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	case "memory", "badger":
	default:
		return fmt.Errorf("unknown storage.backend %q, expected one of %v", c.Storage.Backend, Backends)
	}
	if _, err := codec.FormatByName(c.Storage.Format); err != nil {
		return fmt.Errorf("storage.format: %w", err)
	}
	if c.History.MaxTransactions < 0 {
		return fmt.Errorf("history.maxTransactions must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
