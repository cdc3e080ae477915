package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	coretypes "github.com/projecteru2/core/types"

	"github.com/projecteru2/easydoc/storage/mongo"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMongo  = "mongo"
)

// Document codecs.
const (
	CodecJSON = "json"
	CodecYAML = "yaml"
	CodecBSON = "bson"
)

var (
	backends = []string{BackendMemory, BackendFile, BackendBolt, BackendMongo}
	codecs   = []string{CodecJSON, CodecYAML, CodecBSON}
)

// Config holds global easydoc configuration.
type Config struct {
	// RootDir is the base directory for the file and bolt backends.
	RootDir string `mapstructure:"root_dir" json:"root_dir"`
	// Backend selects the storage backend.
	Backend string `mapstructure:"backend" json:"backend"`
	// Codec selects how documents are encoded.
	Codec string `mapstructure:"codec" json:"codec"`
	// LockTimeout bounds the wait for exclusive access to a document, e.g. "2s".
	LockTimeout string `mapstructure:"lock_timeout" json:"lock_timeout"`
	// RetryAttempts is how many times a command retries a timed out operation.
	RetryAttempts uint64 `mapstructure:"retry_attempts" json:"retry_attempts"`
	// PoolSize bounds concurrent document loads.
	// Defaults to runtime.NumCPU() if zero.
	PoolSize int `mapstructure:"pool_size" json:"pool_size"`
	// FileSuffix is appended to refs by the file backend.
	FileSuffix string `mapstructure:"file_suffix" json:"file_suffix"`
	// BoltBucket names the bucket used by the bolt backend.
	BoltBucket string `mapstructure:"bolt_bucket" json:"bolt_bucket"`
	// BoltOpenTimeout bounds the wait for bolt's file lock.
	BoltOpenTimeout string `mapstructure:"bolt_open_timeout" json:"bolt_open_timeout"`
	// Mongo configures the mongo backend.
	Mongo mongo.Config `mapstructure:"mongo" json:"mongo"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `mapstructure:"log" json:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RootDir:         "/var/lib/easydoc",
		Backend:         BackendFile,
		Codec:           CodecJSON,
		LockTimeout:     "2s",
		RetryAttempts:   3, //nolint:mnd
		PoolSize:        runtime.NumCPU(),
		FileSuffix:      ".doc",
		BoltBucket:      "documents",
		BoltOpenTimeout: "1s",
		Mongo:           mongo.DefaultConfig(),
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Normalize re-applies defaults to fields left empty by a partial config or
// by unset flags bound through viper.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.RootDir == "" {
		c.RootDir = def.RootDir
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Codec == "" {
		c.Codec = def.Codec
	}
	if c.PoolSize <= 0 {
		c.PoolSize = def.PoolSize
	}
	if c.LockTimeout == "" {
		c.LockTimeout = def.LockTimeout
	}
	if c.BoltOpenTimeout == "" {
		c.BoltOpenTimeout = def.BoltOpenTimeout
	}
	if c.FileSuffix == "" {
		c.FileSuffix = def.FileSuffix
	}
	if c.BoltBucket == "" {
		c.BoltBucket = def.BoltBucket
	}
}

// Validate returns an error if the provided Config is invalid.
func (c *Config) Validate() error {
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("unknown backend %q, want one of %v", c.Backend, backends)
	}
	if !slices.Contains(codecs, c.Codec) {
		return fmt.Errorf("unknown codec %q, want one of %v", c.Codec, codecs)
	}
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return fmt.Errorf("invalid lock timeout %q: %w", c.LockTimeout, err)
	}
	if d <= 0 {
		return fmt.Errorf("lock timeout must be positive, got %s", d)
	}
	if _, err := time.ParseDuration(c.BoltOpenTimeout); err != nil {
		return fmt.Errorf("invalid bolt open timeout %q: %w", c.BoltOpenTimeout, err)
	}
	switch c.Backend {
	case BackendFile, BackendBolt:
		if c.RootDir == "" {
			return fmt.Errorf("root dir is required by the %s backend", c.Backend)
		}
	case BackendMongo:
		return c.Mongo.Validate()
	}
	return nil
}

// LockTimeoutDuration returns LockTimeout parsed. Call Validate first.
func (c *Config) LockTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.LockTimeout)
	return d
}

// BoltOpenTimeoutDuration returns BoltOpenTimeout parsed. Call Validate first.
func (c *Config) BoltOpenTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BoltOpenTimeout)
	return d
}

// DocsDir returns the directory of the file backend.
func (c *Config) DocsDir() string {
	return filepath.Join(c.RootDir, "docs")
}

// BoltFile returns the database path of the bolt backend.
func (c *Config) BoltFile() string {
	return filepath.Join(c.RootDir, "easydoc.db")
}
