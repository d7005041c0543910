package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables overriding the config file. Values from a .env file
// next to the config file apply first; the process environment wins.
const (
	EnvEnabled      = "APPMIGRATE_ENABLED"
	EnvShowMessages = "APPMIGRATE_SHOW_MESSAGES"
	EnvStoreDriver  = "APPMIGRATE_STORE_DRIVER"
	EnvStorePath    = "APPMIGRATE_STORE_PATH"
	EnvStoreURL     = "APPMIGRATE_STORE_URL"
	EnvStoreTable   = "APPMIGRATE_STORE_TABLE"
	EnvManifest     = "APPMIGRATE_MANIFEST"
	EnvLogLevel     = "APPMIGRATE_LOG_LEVEL"
	EnvDatabaseURL  = "DATABASE_URL"
)

// ApplyEnv overlays .env and process environment values onto c. It returns
// the path of the .env file that was read, or "" when there was none.
func ApplyEnv(c *Config) (string, error) {
	values := map[string]string{}

	dotenvPath := filepath.Join(c.Dir(), ".env")
	if info, err := os.Stat(dotenvPath); err == nil && !info.IsDir() {
		read, err := godotenv.Read(dotenvPath)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
		values = read
	} else if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to access %s: %w", dotenvPath, err)
	} else {
		dotenvPath = ""
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}

	if v, ok := lookup(EnvEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return dotenvPath, fmt.Errorf("%s: %w", EnvEnabled, err)
		}
		c.Enabled = b
	}
	if v, ok := lookup(EnvShowMessages); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return dotenvPath, fmt.Errorf("%s: %w", EnvShowMessages, err)
		}
		c.ShowMessages = b
	}

	strings := []struct {
		key    string
		target *string
	}{
		{EnvStoreDriver, &c.Store.Driver},
		{EnvStorePath, &c.Store.Path},
		{EnvStoreURL, &c.Store.URL},
		{EnvStoreTable, &c.Store.Table},
		{EnvManifest, &c.Manifest.Path},
		{EnvLogLevel, &c.Log.Level},
		{EnvDatabaseURL, &c.Database.URL},
	}
	for _, s := range strings {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.target = v
		}
	}

	return dotenvPath, nil
}
