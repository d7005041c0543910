package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = "appmigrate.toml"

// Store drivers.
const (
	DriverJSON     = "json"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverLibSQL   = "libsql"
	DriverMySQL    = "mysql"
)

// ErrNotFound is returned by Load when no config file exists.
var ErrNotFound = errors.New(FileName + " not found")

// StoreConfig selects where the installed-set lives.
type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"` // json driver: directory holding installed.json
	URL    string `toml:"url"`  // sql drivers: connection string
	Table  string `toml:"table"`
}

// DatabaseConfig is the database SQL actions run against.
type DatabaseConfig struct {
	Driver string `toml:"driver"` // postgres, sqlite, libsql or mysql; detected from URL when empty
	URL    string `toml:"url"`
}

// ManifestConfig points at the YAML file declaring migrations.
type ManifestConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures log/slog output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Enabled      bool           `toml:"enabled"`
	ShowMessages bool           `toml:"show_messages"`
	Store        StoreConfig    `toml:"store"`
	Database     DatabaseConfig `toml:"database"`
	Manifest     ManifestConfig `toml:"manifest"`
	Log          LogConfig      `toml:"log"`

	ConfigFilePath string `toml:"-"`
	dir            string
}

// Default returns the configuration used when a key is not set.
func Default() *Config {
	return &Config{
		Enabled:      true,
		ShowMessages: false,
		Store: StoreConfig{
			Driver: DriverJSON,
			Path:   "migrations",
		},
		Manifest: ManifestConfig{Path: "migrations.yaml"},
		Log:      LogConfig{Level: "warn", Format: "text"},
	}
}

// Dir is the directory relative paths are resolved against: the config
// file's directory, or the directory Load started from.
func (c *Config) Dir() string {
	return c.dir
}

// Resolve makes path absolute relative to Dir.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// Validate checks driver-specific settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s driver", DriverJSON)
		}
	case DriverMemory:
	case DriverPostgres, DriverSQLite, DriverLibSQL, DriverMySQL:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

// Load finds appmigrate.toml starting at startDir and walking up until a
// project root marker. It returns ErrNotFound together with the defaults
// when no file exists; Dir is then startDir.
func Load(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadFile(configPath)
		}

		// Check if we've reached a project boundary
		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	cfg := Default()
	cfg.dir = startDir
	return cfg, ErrNotFound
}

// LoadFile reads the config file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.dir = filepath.Dir(path)
			return cfg, ErrNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.ConfigFilePath = abs
	cfg.dir = filepath.Dir(abs)
	return cfg, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// Files holds the default config file as FileName.
//
//go:embed appmigrate.toml
var Files embed.FS

// DefaultFile is the content of the published default config file.
//
//go:embed appmigrate.toml
var DefaultFile string
