// Package boot wires the migration engine for application startup.
//
// New loads appmigrate.toml, opens the configured installed-set, registers
// the manifest migrations and returns an App whose Install and Uninstall
// methods can be called on every start. When no config file exists yet, the
// built-in config migration publishes the default one first, so its result
// is always the first entry of the result log on a fresh project.
package boot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/appmigrate/appmigrate/internal/config"
	"github.com/appmigrate/appmigrate/internal/logging"
	"github.com/appmigrate/appmigrate/manifest"
	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store"
	"github.com/appmigrate/appmigrate/store/jsonfile"
	"github.com/appmigrate/appmigrate/store/memory"
	"github.com/appmigrate/appmigrate/store/sqlstore"
)

// MessageLevel is the level of the install messages passed to a Notifier.
const MessageLevel = "success"

// Options configures New.
type Options struct {
	// Dir is where the config file search starts. Defaults to the working directory.
	Dir string

	// ConfigPath is an explicit config file. No search happens when it is set.
	ConfigPath string

	// Registry receives the built-in and manifest migrations. A new registry
	// is created when nil.
	Registry *migration.Registry

	// Store replaces the configured installed-set.
	Store store.Store
}

// App is the booted migration engine.
type App struct {
	config       *config.Config
	registry     *migration.Registry
	store        store.Store
	orchestrator *migration.Orchestrator
	closers      []func() error
	logger       *slog.Logger
}

// New boots the engine.
func New(ctx context.Context, opts Options) (app *App, err error) {
	logger := logging.L("boot")

	cfg, configPath, missing, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	app = &App{
		config:   cfg,
		registry: opts.Registry,
		store:    opts.Store,
		logger:   logger,
	}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if app.registry == nil {
		app.registry = migration.NewRegistry()
	}
	app.registry.Add(NewConfigMigration(configPath))

	if app.store == nil {
		s, closer, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.store = s
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}

	app.orchestrator = migration.NewOrchestrator(migration.NewMigrator(app.store, app.registry), migration.NewResults())

	if missing {
		logger.Info("config file missing, installing default", "path", configPath)
		if _, err := app.orchestrator.Install(ctx, ConfigMigrationName); err != nil {
			return nil, err
		}
		reloaded, err := config.LoadFile(configPath)
		switch {
		case errors.Is(err, config.ErrNotFound):
			// The config migration is recorded but its file was removed.
			logger.Warn("config file missing, using defaults",
				"path", configPath, "hint", "uninstall "+ConfigMigrationName+" to publish it again")
		case err != nil:
			return nil, fmt.Errorf("failed to load published config: %w", err)
		default:
			if _, err := config.ApplyEnv(reloaded); err != nil {
				return nil, err
			}
			app.config = reloaded
			cfg = reloaded
		}
	}

	app.orchestrator.SetEnabled(cfg.Enabled)

	if err := app.registerManifest(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// loadConfig returns the config, the path of the config file (existing or
// to be published) and whether the file is missing.
func loadConfig(opts Options) (*config.Config, string, bool, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		dir := opts.Dir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, "", false, err
			}
		}
		cfg, err = config.Load(dir)
	}

	missing := errors.Is(err, config.ErrNotFound)
	if err != nil && !missing {
		return nil, "", false, err
	}

	path := cfg.ConfigFilePath
	if missing {
		path = opts.ConfigPath
		if path == "" {
			path = filepath.Join(cfg.Dir(), config.FileName)
		}
	}

	if _, err := config.ApplyEnv(cfg); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, missing, nil
}

// OpenStore opens the installed-set configured in cfg. The returned close
// function is nil when there is nothing to close.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), nil, nil
	case config.DriverJSON:
		return jsonfile.New(cfg.Resolve(cfg.Store.Path)), nil, nil
	}

	dialect, err := sqlstore.ParseDialect(cfg.Store.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlstore.Open(ctx, dialect, cfg.Store.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", dialect, err)
	}
	s, err := sqlstore.New(db, dialect, cfg.Store.Table)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, s.Close, nil
}

// registerManifest registers the migrations declared in the manifest file.
// A missing manifest is not an error.
func (a *App) registerManifest(ctx context.Context) error {
	path := a.config.Resolve(a.config.Manifest.Path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		a.logger.Debug("no manifest", "path", path)
		return nil
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	env, err := a.actionEnv(ctx)
	if err != nil {
		return err
	}
	m.Register(a.registry, env)
	a.logger.Debug("manifest registered", "path", path, "migrations", len(m.Migrations))
	return nil
}

// actionEnv picks the database for sql actions: database.url when set,
// otherwise the sql store's own connection.
func (a *App) actionEnv(ctx context.Context) (manifest.Env, error) {
	if url := a.config.Database.URL; url != "" {
		dialect := sqlstore.DetectDialect(url)
		if a.config.Database.Driver != "" {
			d, err := sqlstore.ParseDialect(a.config.Database.Driver)
			if err != nil {
				return manifest.Env{}, err
			}
			dialect = d
		}
		db, err := sqlstore.Open(ctx, dialect, url)
		if err != nil {
			return manifest.Env{}, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return manifest.Env{DB: db, Dialect: dialect}, nil
	}

	if s, ok := a.store.(*sqlstore.Store); ok {
		return manifest.Env{DB: s.DB(), Dialect: s.Dialect()}, nil
	}
	return manifest.Env{}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.config }

// Registry returns the migration registry.
func (a *App) Registry() *migration.Registry { return a.registry }

// Store returns the installed-set.
func (a *App) Store() store.Store { return a.store }

// Orchestrator returns the orchestrator behind Install and Uninstall.
func (a *App) Orchestrator() *migration.Orchestrator { return a.orchestrator }

// Migrator returns the migrator used by the console commands.
func (a *App) Migrator() *migration.Migrator { return a.orchestrator.Migrator() }

// Results returns the result log.
func (a *App) Results() *migration.Results { return a.orchestrator.Results() }

// Install installs the named migration unless it is installed already.
func (a *App) Install(ctx context.Context, name string) error {
	_, err := a.orchestrator.Install(ctx, name)
	return err
}

// InstallMigration installs m unless it is installed already. m is added to
// the registry so later list and uninstall calls can construct it by name.
func (a *App) InstallMigration(ctx context.Context, m migration.Migration) error {
	a.registry.Add(m)
	_, err := a.orchestrator.InstallMigration(ctx, m)
	return err
}

// Uninstall uninstalls the named migration if it is installed.
func (a *App) Uninstall(ctx context.Context, name string) error {
	_, err := a.orchestrator.Uninstall(ctx, name)
	return err
}

// UninstallMigration uninstalls m if it is installed. Like InstallMigration
// it adds m to the registry.
func (a *App) UninstallMigration(ctx context.Context, m migration.Migration) error {
	a.registry.Add(m)
	_, err := a.orchestrator.UninstallMigration(ctx, m)
	return err
}

// FlushMessages sends one "Successfully installed" message per install
// result to n, in result order. Nothing is sent unless show_messages is on.
func (a *App) FlushMessages(n migration.Notifier) {
	if !a.config.ShowMessages {
		return
	}
	for _, result := range a.Results().All() {
		if result.Operation != migration.OperationInstall || result.Migration == nil {
			continue
		}
		n.Notify(MessageLevel, "Successfully installed: "+result.Migration.Description())
	}
}

// Close releases database connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
