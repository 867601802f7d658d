// Package config loads the arche.yaml configuration used by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/arche/internal/logging"
	"github.com/aretw0/arche/pkg/persistence/middleware"
	"github.com/aretw0/arche/pkg/record"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "arche.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// EncryptionKeyEnv overrides store.encryptionKey when set.
const EncryptionKeyEnv = "ARCHE_ENCRYPTION_KEY"

// StoreConfig selects where project records live.
// Keys are base64 AES-256 keys; FallbackKeys decrypt records written before a rotation.
type StoreConfig struct {
	Backend       string   `yaml:"backend"`
	Dir           string   `yaml:"dir"`
	Format        string   `yaml:"format"`
	Validate      bool     `yaml:"validate"`
	EncryptionKey string   `yaml:"encryptionKey,omitempty"`
	FallbackKeys  []string `yaml:"fallbackKeys,omitempty"`
}

// RedisConfig configures the redis store and the distributed project lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Lock     bool          `yaml:"lock"`
	LockTTL  time.Duration `yaml:"lockTtl"`
}

// HTTPConfig configures `arche serve`.
type HTTPConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics"`
}

// MCPConfig configures `arche mcp`. Port 0 serves on stdio.
type MCPConfig struct {
	Port int `yaml:"port"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config models arche.yaml.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`
	HTTP  HTTPConfig  `yaml:"http"`
	MCP   MCPConfig   `yaml:"mcp"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:  BackendFile,
			Dir:      ".arche/projects",
			Format:   string(record.FormatYAML),
			Validate: true,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Prefix:  "arche:project:",
			LockTTL: 30 * time.Second,
		},
		HTTP: HTTPConfig{Port: 8080, Metrics: true},
		Log:  LogConfig{Level: "info", Format: string(logging.FormatText)},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if key := os.Getenv(EncryptionKeyEnv); key != "" {
		cfg.Store.EncryptionKey = key
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q (memory, file, redis)", c.Store.Backend)
	}
	if _, err := record.ParseFormat(c.Store.Format); err != nil {
		return err
	}
	if _, err := c.Encryption(); err != nil {
		return err
	}
	if c.Store.Backend == BackendRedis && c.Redis.Addr == "" {
		return errors.New("redis.addr is required for the redis backend")
	}
	if c.Redis.Lock && c.Redis.LockTTL <= 0 {
		return errors.New("redis.lockTtl must be positive")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.MCP.Port < 0 || c.MCP.Port > 65535 {
		return fmt.Errorf("mcp.port %d out of range", c.MCP.Port)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}

// Encryption returns the parsed store keys, or nil when encryption is off.
func (c Config) Encryption() (*middleware.EncryptionConfig, error) {
	if c.Store.EncryptionKey == "" {
		if len(c.Store.FallbackKeys) > 0 {
			return nil, errors.New("store.fallbackKeys require store.encryptionKey")
		}
		return nil, nil
	}
	active, err := middleware.ParseKey(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryptionKey: %w", err)
	}
	enc := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Store.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallbackKeys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}
