package boot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appmigrate/appmigrate/internal/config"
	"github.com/appmigrate/appmigrate/internal/migrationtest"
	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store/jsonfile"
	"github.com/appmigrate/appmigrate/store/sqlstore"
)

// newProject returns an empty project directory. The go.mod marker stops
// the config search from leaving it.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example\n"), 0o644))
	return dir
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o644))
}

func boot(t *testing.T, opts Options) *App {
	t.Helper()
	app, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewPublishesMissingConfig(t *testing.T) {
	dir := newProject(t)

	app := boot(t, Options{Dir: dir})

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFile, string(data))

	results := app.Results().All()
	require.Len(t, results, 1)
	assert.Equal(t, ConfigMigrationName, results[0].Name)
	assert.Equal(t, "Config file migration.", results[0].Migration.Description())
	assert.Equal(t, "config-install", results[0].Actions.All()[0].Name())

	installed, err := app.Store().IsInstalled(context.Background(), ConfigMigrationName)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.FileExists(t, filepath.Join(dir, "migrations", jsonfile.FileName))

	assert.True(t, app.Config().ShowMessages, "published config enables messages")
}

func TestNewWithExistingConfigInstallsNothing(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "show_messages = false\n")

	app := boot(t, Options{Dir: dir})

	assert.Zero(t, app.Results().Len())
	assert.False(t, app.Config().ShowMessages)
}

func TestInstallAndUninstallRecordResults(t *testing.T) {
	dir := newProject(t)
	ctx := context.Background()
	app := boot(t, Options{Dir: dir})

	require.NoError(t, app.InstallMigration(ctx, migrationtest.Foo{}))
	results := app.Results().All()
	require.Len(t, results, 2)
	assert.Equal(t, "config-install", results[1].Actions.All()[0].Description())

	require.NoError(t, app.UninstallMigration(ctx, migrationtest.Foo{}))
	results = app.Results().All()
	require.Len(t, results, 3)
	assert.Equal(t, migration.OperationUninstall, results[2].Operation)
	assert.Equal(t, "config-uninstall", results[2].Actions.All()[0].Description())
}

func TestInstalledMigrationValueStaysConstructible(t *testing.T) {
	dir := newProject(t)
	ctx := context.Background()
	app := boot(t, Options{Dir: dir})

	require.NoError(t, app.InstallMigration(ctx, migrationtest.Foo{}))
	assert.True(t, app.Registry().Has(migrationtest.FooName))

	entries, err := migration.LoadInstalled(ctx, app.Store(), app.Registry())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NoError(t, entry.Err, entry.Name)
	}

	_, err = app.Migrator().Uninstall(ctx, migrationtest.FooName)
	require.NoError(t, err)
	installed, err := app.Store().IsInstalled(ctx, migrationtest.FooName)
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestMissingConfigFileAfterInstallFallsBackToDefaults(t *testing.T) {
	dir := newProject(t)
	ctx := context.Background()

	first := boot(t, Options{Dir: dir})
	require.NoError(t, first.Close())
	require.NoError(t, os.Remove(filepath.Join(dir, config.FileName)))

	second := boot(t, Options{Dir: dir})
	assert.Zero(t, second.Results().Len())
	assert.Equal(t, config.Default().ShowMessages, second.Config().ShowMessages)

	require.NoError(t, second.Uninstall(ctx, ConfigMigrationName))
	installed, err := second.Store().IsInstalled(ctx, ConfigMigrationName)
	require.NoError(t, err)
	assert.False(t, installed)

	third := boot(t, Options{Dir: dir})
	assert.Equal(t, 1, third.Results().Len(), "config is published again")
	assert.FileExists(t, filepath.Join(dir, config.FileName))
}

func TestInstallIsIdempotentAcrossBoots(t *testing.T) {
	dir := newProject(t)
	ctx := context.Background()

	first := boot(t, Options{Dir: dir, Registry: migrationtest.Registry()})
	require.NoError(t, first.Install(ctx, migrationtest.BarName))
	assert.Equal(t, 2, first.Results().Len())

	second := boot(t, Options{Dir: dir, Registry: migrationtest.Registry()})
	require.NoError(t, second.Install(ctx, migrationtest.BarName))
	assert.Zero(t, second.Results().Len())

	// Uninstalling something that is not installed does nothing either.
	require.NoError(t, second.Uninstall(ctx, migrationtest.FooName))
	assert.Zero(t, second.Results().Len())
}

func TestDisabledSkipsInstallAndUninstall(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "enabled = false\n")
	ctx := context.Background()

	app := boot(t, Options{Dir: dir})
	require.NoError(t, app.InstallMigration(ctx, migrationtest.Foo{}))

	assert.False(t, app.Orchestrator().Enabled())
	assert.Zero(t, app.Results().Len())
	installed, err := app.Store().Installed(ctx)
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestFlushMessages(t *testing.T) {
	dir := newProject(t)
	ctx := context.Background()
	app := boot(t, Options{Dir: dir})

	require.NoError(t, app.InstallMigration(ctx, migrationtest.Foo{}))
	require.NoError(t, app.UninstallMigration(ctx, migrationtest.Foo{}))

	var messages migration.Messages
	app.FlushMessages(&messages)

	assert.Equal(t, []migration.Message{
		{Level: MessageLevel, Message: "Successfully installed: Config file migration."},
		{Level: MessageLevel, Message: "Successfully installed: Foo migration."},
	}, messages.All())
}

func TestFlushMessagesDisabled(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "show_messages = false\n")
	ctx := context.Background()

	app := boot(t, Options{Dir: dir})
	require.NoError(t, app.InstallMigration(ctx, migrationtest.Foo{}))

	var messages migration.Messages
	app.FlushMessages(&messages)
	assert.Empty(t, messages.All())
}

func TestManifestMigrationsAreRegistered(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "[manifest]\npath = \"setup/migrations.yaml\"\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "setup", "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup", "assets", "robots.txt"), []byte("User-agent: *\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup", "migrations.yaml"), []byte(`migrations:
  - name: app.assets
    description: Assets migration.
    install:
      - name: robots-install
        kind: copy
        type: assets
        source: assets/robots.txt
        destination: ../public/robots.txt
    uninstall:
      - name: robots-uninstall
        kind: remove
        path: ../public/robots.txt
`), 0o644))

	app := boot(t, Options{Dir: dir})
	assert.True(t, app.Registry().Has("app.assets"))

	require.NoError(t, app.Install(context.Background(), "app.assets"))
	assert.FileExists(t, filepath.Join(dir, "public", "robots.txt"))
}

func TestInvalidManifestFailsBoot(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "migrations.yaml"), []byte("migrations:\n  - name: broken\n"), 0o644))

	_, err := New(context.Background(), Options{Dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid manifest")
}

func TestSQLiteStore(t *testing.T) {
	dir := newProject(t)
	dbPath := filepath.Join(dir, "state.db")
	writeConfig(t, dir, "[store]\ndriver = \"sqlite\"\nurl = \""+filepath.ToSlash(dbPath)+"\"\n")
	ctx := context.Background()

	app := boot(t, Options{Dir: dir, Registry: migrationtest.Registry()})
	_, ok := app.Store().(*sqlstore.Store)
	require.True(t, ok, "expected sql store, got %T", app.Store())

	require.NoError(t, app.Install(ctx, migrationtest.FooName))
	require.NoError(t, app.Close())

	again := boot(t, Options{Dir: dir, Registry: migrationtest.Registry()})
	installed, err := again.Store().Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{migrationtest.FooName}, installed)
}

func TestInvalidStoreDriver(t *testing.T) {
	dir := newProject(t)
	writeConfig(t, dir, "[store]\ndriver = \"redis\"\n")

	_, err := New(context.Background(), Options{Dir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}
