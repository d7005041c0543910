package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appmigrate/appmigrate/store"
	"github.com/appmigrate/appmigrate/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New(t.TempDir()) })
}

func TestPersistsAcrossInstances(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	ctx := context.Background()

	first := New(dir)
	require.NoError(t, first.Add(ctx, "app.a"))
	require.NoError(t, first.Add(ctx, "app.b"))

	second := New(dir)
	names, err := second.Installed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.a", "app.b"}, names)
	assert.Equal(t, filepath.Join(dir, FileName), second.Path())
}

func TestDocumentFormat(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	installedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return installedAt }

	require.NoError(t, s.Add(context.Background(), "app.a"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1", doc.Version)
	require.Len(t, doc.Migrations, 1)
	assert.Equal(t, "app.a", doc.Migrations[0].Name)
	assert.True(t, installedAt.Equal(doc.Migrations[0].InstalledAt))

	_, err = os.Stat(filepath.Join(dir, FileName+".tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestRemoveLastKeepsEmptyList(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "app.a"))
	require.NoError(t, s.Remove(ctx, "app.a"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"migrations": []`)
}

func TestCorruptDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{not json"},
		{"wrong version", `{"version": "2", "migrations": []}`},
		{"missing migrations", `{"version": "1"}`},
		{"empty name", `{"version": "1", "migrations": [{"name": ""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0o644))
			s := New(dir)

			_, err := s.Installed(context.Background())
			assert.ErrorIs(t, err, store.ErrCorrupt)

			err = s.Add(context.Background(), "app.a")
			assert.ErrorIs(t, err, store.ErrCorrupt, "a corrupt document must not be overwritten")
		})
	}
}
