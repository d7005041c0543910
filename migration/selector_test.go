package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appmigrate/appmigrate/internal/migrationtest"
	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store/memory"
)

type pairRow struct {
	name   string
	action string
}

func pairRows(pairs []migration.Pair) []pairRow {
	rows := make([]pairRow, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, pairRow{p.Name, p.Action.Name()})
	}
	return rows
}

func installedNames(entries []migration.Installed) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func newSelector(installed ...string) *migration.Selector {
	return migration.NewSelector(memory.New(installed...), migrationtest.Registry())
}

func TestResolveByName(t *testing.T) {
	sel, err := newSelector().Resolve(context.Background(), migration.ByName(migrationtest.BarName), migration.OperationInstall)
	require.NoError(t, err)

	assert.Equal(t, []string{migrationtest.BarName}, installedNames(sel.Migrations), "by name ignores the installed-set")
	assert.Equal(t, []pairRow{
		{migrationtest.BarName, "config-install"},
		{migrationtest.BarName, "view-install"},
	}, pairRows(sel.Pairs))

	_, err = newSelector().Resolve(context.Background(), migration.ByName("app.Missing"), migration.OperationInstall)
	assert.ErrorIs(t, err, migration.ErrInvalidMigration)
}

func TestResolveAll(t *testing.T) {
	s := newSelector(migrationtest.FooName, "app.Ghost", migrationtest.BarName)

	sel, err := s.Resolve(context.Background(), migration.All(), migration.OperationUninstall)
	require.NoError(t, err)

	assert.Equal(t, []string{migrationtest.FooName, migrationtest.BarName}, installedNames(sel.Migrations))
	assert.Equal(t, []pairRow{
		{migrationtest.FooName, "config-uninstall"},
		{migrationtest.BarName, "config-uninstall"},
		{migrationtest.BarName, "view-uninstall"},
	}, pairRows(sel.Pairs))
	require.Len(t, sel.Failures, 1)
	assert.Equal(t, "app.Ghost", sel.Failures[0].Name)
	assert.ErrorIs(t, sel.Failures[0], migration.ErrInvalidMigration)
}

func TestResolveByAddress(t *testing.T) {
	// Bar=1, config-install=2, view-install=3, Foo=4, config-install=5
	tests := []struct {
		name       string
		ids        []int
		op         migration.Operation
		pairs      []pairRow
		migrations []string
	}{
		{
			name:       "migration address selects all its actions",
			ids:        []int{1},
			op:         migration.OperationInstall,
			pairs:      []pairRow{{migrationtest.BarName, "config-install"}, {migrationtest.BarName, "view-install"}},
			migrations: []string{migrationtest.BarName},
		},
		{
			name:  "action address selects one action",
			ids:   []int{5},
			op:    migration.OperationInstall,
			pairs: []pairRow{{migrationtest.FooName, "config-install"}},
		},
		{
			name:       "migration and action of the same migration",
			ids:        []int{3, 1},
			op:         migration.OperationInstall,
			pairs:      []pairRow{{migrationtest.BarName, "config-install"}, {migrationtest.BarName, "view-install"}},
			migrations: []string{migrationtest.BarName},
		},
		{
			name:  "order follows addresses not ids",
			ids:   []int{5, 2},
			op:    migration.OperationInstall,
			pairs: []pairRow{{migrationtest.BarName, "config-install"}, {migrationtest.FooName, "config-install"}},
		},
		{
			name: "unknown addresses are ignored",
			ids:  []int{9999},
			op:   migration.OperationInstall,
		},
		{
			name:       "uninstall uses uninstall actions",
			ids:        []int{4},
			op:         migration.OperationUninstall,
			pairs:      []pairRow{{migrationtest.FooName, "config-uninstall"}},
			migrations: []string{migrationtest.FooName},
		},
		{
			name: "uninstall ignores action addresses",
			ids:  []int{2, 3, 5},
			op:   migration.OperationUninstall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSelector(migrationtest.BarName, migrationtest.FooName)

			sel, err := s.Resolve(context.Background(), migration.ByAddress(tt.ids...), tt.op)
			require.NoError(t, err)

			if tt.pairs == nil {
				tt.pairs = []pairRow{}
			}
			if tt.migrations == nil {
				tt.migrations = []string{}
			}
			assert.Equal(t, tt.pairs, pairRows(sel.Pairs))
			assert.Equal(t, tt.migrations, installedNames(sel.Migrations))
			assert.Empty(t, sel.Failures)
		})
	}
}

func TestResolveByAddressUnconstructable(t *testing.T) {
	// Ghost=1, Foo=2, config-install=3
	s := newSelector("app.Ghost", migrationtest.FooName)

	sel, err := s.Resolve(context.Background(), migration.ByAddress(1, 3), migration.OperationInstall)
	require.NoError(t, err)

	assert.Equal(t, []pairRow{{migrationtest.FooName, "config-install"}}, pairRows(sel.Pairs))
	require.Len(t, sel.Failures, 1)
	assert.Equal(t, "app.Ghost", sel.Failures[0].Name)

	sel, err = s.Resolve(context.Background(), migration.ByAddress(3), migration.OperationInstall)
	require.NoError(t, err)
	assert.Empty(t, sel.Failures, "an unselected broken migration is not reported")
}

func TestResolveByType(t *testing.T) {
	s := newSelector(migrationtest.FooName, migrationtest.BarName)

	sel, err := s.Resolve(context.Background(), migration.ByType("views", "config"), migration.OperationInstall)
	require.NoError(t, err)

	assert.Equal(t, []pairRow{
		{migrationtest.BarName, "config-install"},
		{migrationtest.BarName, "view-install"},
	}, pairRows(sel.Pairs), "pairs are migration-major in declared order")
	assert.Empty(t, sel.Migrations)

	sel, err = s.Resolve(context.Background(), migration.ByType("views"), migration.OperationInstall)
	require.NoError(t, err)
	assert.Equal(t, []pairRow{{migrationtest.BarName, "view-install"}}, pairRows(sel.Pairs))
}

func TestResolveStoreError(t *testing.T) {
	s := migration.NewSelector(brokenStore{err: assert.AnError}, migrationtest.Registry())

	_, err := s.Resolve(context.Background(), migration.All(), migration.OperationInstall)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolveDoesNotChangeStore(t *testing.T) {
	s := memory.New(migrationtest.BarName)
	selector := migration.NewSelector(s, migrationtest.Registry())

	_, err := selector.Resolve(context.Background(), migration.ByName(migrationtest.FooName), migration.OperationInstall)
	require.NoError(t, err)
	_, err = selector.Resolve(context.Background(), migration.All(), migration.OperationUninstall)
	require.NoError(t, err)

	names, err := s.Installed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{migrationtest.BarName}, names)
}

func TestParseIDs(t *testing.T) {
	ids, err := migration.ParseIDs("2|5")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, ids)

	ids, err = migration.ParseIDs(" 3 || 1 ")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, ids)

	for _, bad := range []string{"", "|", "a", "1|x", "0", "-2", "1.5"} {
		_, err := migration.ParseIDs(bad)
		assert.Error(t, err, "ParseIDs(%q)", bad)
	}
}

func TestParseTypes(t *testing.T) {
	assert.Equal(t, []string{"config", "views"}, migration.ParseTypes("config|views"))
	assert.Equal(t, []string{"config"}, migration.ParseTypes(" config | "))
	assert.Empty(t, migration.ParseTypes("|"))
}

func TestCriterionString(t *testing.T) {
	assert.Equal(t, "name=app.a", migration.ByName("app.a").String())
	assert.Equal(t, "all", migration.All().String())
	assert.Equal(t, "id=2|5", migration.ByAddress(2, 5).String())
	assert.Equal(t, "type=config|views", migration.ByType("config", "views").String())
}
