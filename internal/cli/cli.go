// Package cli implements the slidesmith command-line interface.
//
// This package provides commands for validating presentation schemas,
// building versioned asset directories, managing versions, previewing the
// active version over HTTP, and managing the generation cache. The CLI is
// built using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - build: Generate assets and write the next version directory
//   - validate: Check a schema without building anything
//   - versions: List versions, show the active one, or roll back
//   - serve: Preview the active version in a browser
//   - cache: Manage the generation byte cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/slidesmith/slidesmith/pkg/buildinfo"
	"github.com/slidesmith/slidesmith/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "slidesmith"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Slidesmith builds versioned presentation assets from a schema",
		Long:         `Slidesmith turns a declarative presentation schema into versioned directories of generated background and icon images plus a self-contained slide viewer, regenerating only the assets whose inputs changed.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a slidesmith.toml config file")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the effective configuration once per invocation.
func (c *CLI) loadConfig() (*Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// newCache builds the generation cache from config. Cache construction
// failures degrade to a null cache: a build without a cache is slower, not
// broken.
func (c *CLI) newCache(cfg *Config, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	backend, err := cfg.OpenCache()
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "error", err)
		return cache.NewNullCache()
	}
	return backend
}

// cacheDir returns the cache directory using XDG standard (~/.cache/slidesmith/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
