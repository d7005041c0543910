package boot

import (
	"github.com/appmigrate/appmigrate/actions"
	"github.com/appmigrate/appmigrate/internal/config"
	"github.com/appmigrate/appmigrate/migration"
)

// ConfigMigrationName is the registry name of the built-in config migration.
const ConfigMigrationName = "appmigrate.config"

// ConfigMigration publishes the default appmigrate.toml to a path.
type ConfigMigration struct {
	path string
}

var _ migration.Named = (*ConfigMigration)(nil)

// NewConfigMigration returns a migration publishing the config file to path.
func NewConfigMigration(path string) *ConfigMigration {
	return &ConfigMigration{path: path}
}

func (m *ConfigMigration) Name() string { return ConfigMigrationName }

func (m *ConfigMigration) Description() string { return "Config file migration." }

func (m *ConfigMigration) Install() migration.Actions {
	return migration.NewActions(
		actions.NewCopy("config-install", config.Files, config.FileName, m.path,
			actions.WithType("config"),
			actions.WithDescription("Publishes the "+config.FileName+" config file.")),
	)
}

func (m *ConfigMigration) Uninstall() migration.Actions {
	return migration.NewActions(
		actions.NewRemove("config-uninstall", m.path,
			actions.WithType("config"),
			actions.WithDescription("Removes the "+config.FileName+" config file.")),
	)
}
