// Package config loads storecart configuration from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the full storecart configuration.
type Config struct {
	Storage      Storage `yaml:"storage"`
	Journal      bool    `yaml:"journal"`
	HistoryDepth int     `yaml:"history_depth"`
	Remote       Remote  `yaml:"remote"`
	Log          Log     `yaml:"log"`
}

// Storage selects the durable local store.
type Storage struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// Remote configures the best-effort remote mirror.
type Remote struct {
	Enabled     bool   `yaml:"enabled"`
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	IdentityKey string `yaml:"identity_key"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend: BackendSQLite,
			Path:    "storecart.db",
			Key:     "cart",
		},
		Journal:      true,
		HistoryDepth: 5,
		Remote: Remote{
			RedisURL:    "redis://localhost:6379/0",
			KeyPrefix:   "cart:",
			IdentityKey: "cart_id",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default. An empty path returns Default.
// Unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STORECART_* variables looked up with
// lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("STORECART_STORAGE_BACKEND", &c.Storage.Backend)
	str("STORECART_STORAGE_PATH", &c.Storage.Path)
	str("STORECART_STORAGE_KEY", &c.Storage.Key)
	str("STORECART_REDIS_URL", &c.Remote.RedisURL)
	str("STORECART_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("STORECART_REMOTE_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STORECART_REMOTE_ENABLED: %w", err)
		}
		c.Remote.Enabled = b
	}
	if v, ok := lookup("STORECART_HISTORY_DEPTH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STORECART_HISTORY_DEPTH: %w", err)
		}
		c.HistoryDepth = n
	}
	return nil
}

// Validate checks the configuration for values the engine cannot use.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for %s", c.Storage.Backend))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q: must be sqlite, badger or memory", c.Storage.Backend))
	}
	if c.Storage.Key == "" {
		errs = append(errs, errors.New("storage.key is required"))
	}
	if c.HistoryDepth < 1 {
		errs = append(errs, fmt.Errorf("history_depth %d: must be at least 1", c.HistoryDepth))
	}
	if c.Remote.Enabled && c.Remote.RedisURL == "" {
		errs = append(errs, errors.New("remote.redis_url is required when remote is enabled"))
	}
	if c.Remote.Enabled && c.Storage.Key != "" && c.Storage.Key == c.identityKey() {
		errs = append(errs, fmt.Errorf("remote.identity_key %q: must differ from storage.key", c.identityKey()))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// identityKey is the local key the remote cart id is stored under.
// An empty identity_key falls back to the same default remote.Resolve uses.
func (c Config) identityKey() string {
	if c.Remote.IdentityKey == "" {
		return "cart_id"
	}
	return c.Remote.IdentityKey
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q: must be debug, info, warn or error", lvl)
}

// NewLogger builds the logger described by c.Log writing to w.
// verbose forces debug level.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, _ := ParseLevel(c.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
