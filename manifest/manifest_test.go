package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store/memory"
	"github.com/appmigrate/appmigrate/store/sqlstore"
)

const viewsManifest = `migrations:
  - name: app.views
    description: Views migration.
    install:
      - name: view-install
        kind: copy
        type: views
        description: Publishes the views.
        source: resources/views
        destination: public/views
      - name: seed
        kind: sql
        type: database
        file: seeds/settings.sql
    uninstall:
      - name: view-uninstall
        kind: remove
        type: views
        path: public/views
`

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"migrations.yaml":                   viewsManifest,
		"resources/views/layout.html":       "<main></main>",
		"resources/views/partials/nav.html": "<nav></nav>",
		"seeds/settings.sql":                "CREATE TABLE settings (key TEXT); INSERT INTO settings VALUES ('theme');",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoadAndRegister(t *testing.T) {
	dir := writeProject(t)

	m, err := Load(filepath.Join(dir, "migrations.yaml"))
	require.NoError(t, err)
	require.Len(t, m.Migrations, 1)

	db, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := migration.NewRegistry()
	m.Register(registry, Env{DB: db, Dialect: sqlstore.DialectSQLite})
	assert.Equal(t, []string{"app.views"}, registry.Names())

	mig, err := registry.Create("app.views")
	require.NoError(t, err)
	assert.Equal(t, "app.views", migration.NameOf(mig))
	assert.Equal(t, "Views migration.", mig.Description())

	install := mig.Install()
	require.Equal(t, 2, install.Len())
	assert.Equal(t, "view-install", install.All()[0].Name())
	assert.Equal(t, "views", install.All()[0].Type())
	assert.Equal(t, "Publishes the views.", install.All()[0].Description())
	assert.Equal(t, 1, install.Filter("database").Len())

	migrator := migration.NewMigrator(memory.New(), registry)
	result, err := migrator.Install(context.Background(), "app.views")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Actions.Len())
	assert.FileExists(t, filepath.Join(dir, "public", "views", "partials", "nav.html"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 1, count)

	_, err = migrator.Uninstall(context.Background(), "app.views")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "public", "views"))
}

func TestActionsAreFreshPerCall(t *testing.T) {
	dir := writeProject(t)
	m, err := Load(filepath.Join(dir, "migrations.yaml"))
	require.NoError(t, err)

	registry := migration.NewRegistry()
	m.Register(registry, Env{})
	mig, err := registry.Create("app.views")
	require.NoError(t, err)

	first := mig.Install().All()[0]
	require.NoError(t, first.Process(context.Background()))
	assert.NotEmpty(t, first.ProcessedDataInfo())

	second := mig.Install().All()[0]
	assert.Empty(t, second.ProcessedDataInfo())
}

func TestSQLWithoutDatabaseFailsRecoverably(t *testing.T) {
	dir := writeProject(t)
	m, err := Load(filepath.Join(dir, "migrations.yaml"))
	require.NoError(t, err)

	registry := migration.NewRegistry()
	m.Register(registry, Env{})

	result, err := migration.NewMigrator(memory.New(), registry).Install(context.Background(), "app.views")

	var failed *migration.ActionsFailedError
	require.ErrorAs(t, err, &failed)
	require.Len(t, failed.Failures, 1)
	assert.Equal(t, "seed", failed.Failures[0].Action)
	assert.Equal(t, 1, result.Actions.Len())
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty document", ""},
		{"missing description", "migrations:\n  - name: a\n"},
		{"unknown kind", "migrations:\n  - name: a\n    description: A.\n    install:\n      - name: x\n        kind: shell\n"},
		{"copy without destination", "migrations:\n  - name: a\n    description: A.\n    install:\n      - name: x\n        kind: copy\n        source: s\n"},
		{"remove without path", "migrations:\n  - name: a\n    description: A.\n    uninstall:\n      - name: x\n        kind: remove\n"},
		{"sql without script", "migrations:\n  - name: a\n    description: A.\n    install:\n      - name: x\n        kind: sql\n"},
		{"unknown field", "migrations:\n  - name: a\n    description: A.\n    steps: []\n"},
		{"duplicate migration", "migrations:\n  - name: a\n    description: A.\n  - name: a\n    description: B.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("migrations.yaml", []byte(tt.content))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.NotEmpty(t, verr.Errors)
			assert.Contains(t, err.Error(), "migrations.yaml")
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse("migrations.yaml", []byte("migrations: [\n"))
	require.Error(t, err)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
