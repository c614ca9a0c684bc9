package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/slidesmith/slidesmith/pkg/cache"
	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/pipeline"
)

// Config is the slidesmith.toml document. Every field has a working default
// so a config file is optional.
type Config struct {
	// Output is the root directory versioned builds are written under; each
	// presentation gets a subdirectory named after its short_name.
	Output string `toml:"output"`

	// Workers bounds concurrent generation requests.
	Workers int `toml:"workers"`

	Cache CacheConfig `toml:"cache"`
	API   APIConfig   `toml:"api"`
}

// CacheConfig selects and configures the generation byte cache.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// TTL is how long cached generation bytes stay valid, in Go duration
	// syntax (e.g. "720h").
	TTL string `toml:"ttl"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// APIConfig configures the image generation endpoint.
type APIConfig struct {
	// BaseURL overrides the OpenAI API root, e.g. for a proxy.
	BaseURL string `toml:"base_url"`

	// Model overrides the schema's dalle_model when non-empty.
	Model string `toml:"model"`
}

func defaultConfig() *Config {
	return &Config{
		Output:  "builds",
		Workers: pipeline.DefaultWorkers,
		Cache: CacheConfig{
			Backend: "file",
			TTL:     cache.TTLAsset.String(),
		},
	}
}

// LoadConfig reads configuration from path. An empty path searches
// ./slidesmith.toml and $XDG_CONFIG_HOME/slidesmith/config.toml; a missing
// file yields the defaults, but an explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = findConfig()
		if path == "" {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfig() string {
	if _, err := os.Stat("slidesmith.toml"); err == nil {
		return "slidesmith.toml"
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	candidate := filepath.Join(configHome, appName, "config.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be positive, got %d", c.Workers)
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis, or none)", c.Cache.Backend)
	}
	if _, err := c.cacheTTL(); err != nil {
		return err
	}
	return nil
}

func (c *Config) cacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return cache.TTLAsset, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.ttl %q", c.Cache.TTL)
	}
	return ttl, nil
}

// OpenCache constructs the configured cache backend.
func (c *Config) OpenCache() (cache.Cache, error) {
	ttl, err := c.cacheTTL()
	if err != nil {
		return nil, err
	}

	switch c.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, c.Cache.Redis.Addr, c.Cache.Redis.Password, c.Cache.Redis.DB)
	default:
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir, ttl)
	}
}

// BuildRoot returns the version directory root for a presentation.
func (c *Config) BuildRoot(shortName string) string {
	return filepath.Join(c.Output, shortName)
}
