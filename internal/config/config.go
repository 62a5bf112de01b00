// Package config loads oxdb's layered configuration: hardcoded
// defaults, an optional YAML file, then environment variable
// overrides, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
)

// Config is oxdb's complete runtime configuration.
type Config struct {
	Root      RootConfig      `yaml:"root"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Server    ServerConfig    `yaml:"server"`
}

// RootConfig holds on-disk layout settings for a Database root. The CLI
// uses ProductDirName to locate the root; DBExt and DefaultDocName are
// not read by the database package, which uses its own constants.
type RootConfig struct {
	ProductDirName string `yaml:"product_dir"`
	DBExt          string `yaml:"db_ext"`
	DefaultDocName string `yaml:"default_doc"`
}

// StoreConfig holds a KVStore wire encoding and file extension. These
// values are not passed to the stores a Database opens, which use the
// kvstore defaults.
type StoreConfig struct {
	DataEncoding string `yaml:"data_encoding"`
	StoreExt     string `yaml:"store_ext"`
}

// CacheConfig holds a KVStore in-memory LRU capacity. It is not passed to
// the stores a Database opens, which use the kvstore default capacity.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// EmbeddingConfig selects and sizes the embedding provider a Database
// opens its Documents with.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Dimensions int    `yaml:"dimensions"`
	ModelName  string `yaml:"model_name"`
	CacheSize  int    `yaml:"cache_size"`
}

// ServerConfig configures the HTTP request/response surface.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// Default returns oxdb's hardcoded configuration defaults.
func Default() Config {
	return Config{
		Root: RootConfig{
			ProductDirName: ".oxdb",
			DBExt:          ".oxdb",
			DefaultDocName: "log",
		},
		Store: StoreConfig{
			DataEncoding: "oxdbin",
			StoreExt:     ".oxdld",
		},
		Cache: CacheConfig{
			Capacity: 25,
		},
		Embedding: EmbeddingConfig{
			Provider:   "static",
			Dimensions: 256,
			ModelName:  "static-hash-v1",
			CacheSize:  1000,
		},
		Server: ServerConfig{
			Addr:   ":8085",
			APIKey: "",
		},
	}
}

// Load reads path (a YAML file), merging over Default(); a missing file
// falls back silently to defaults, but a malformed one is a BadFormat
// error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return Config{}, ouxerr.IoErr("reading config file", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, ouxerr.BadFormatErr("parsing config file "+path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultPath returns ~/.oxdb/config.yaml, or a temp-dir fallback if the
// home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".oxdb", "config.yaml")
	}
	return filepath.Join(home, ".oxdb", "config.yaml")
}

// applyEnvOverrides applies OXDB_* environment variable overrides, the
// highest-precedence layer.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OXDB_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Capacity = n
		}
	}
	if v := os.Getenv("OXDB_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("OXDB_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.ModelName = v
	}
	if v := os.Getenv("OXDB_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("OXDB_SERVER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
}

// Validate reports whether cfg's values are self-consistent.
func (c Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return ouxerr.BadArgumentf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	switch c.Embedding.Provider {
	case "static", "ollama", "none":
	default:
		return ouxerr.BadArgumentf("embedding.provider must be static, ollama, or none, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions <= 0 {
		return ouxerr.BadArgumentf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}

// WriteYAML writes cfg to path, backing up any existing file first.
func (c Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ouxerr.IoErr("creating config directory", err)
	}
	if _, err := BackupConfig(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ouxerr.IoErr("writing config file", err)
	}
	return nil
}
