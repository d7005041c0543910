// Package jsonfile stores the installed-set in a JSON document on disk.
//
// Writes go to a temporary file that is renamed over the document, so a
// crash never leaves a half-written file. A mutex serializes writers inside
// one process; separate processes writing the same file can still lose an
// update.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/appmigrate/appmigrate/store"
)

// FileName is the document name inside the store directory.
const FileName = "installed.json"

// formatVersion is the document format version.
const formatVersion = "1"

// Document is the on-disk format.
type Document struct {
	Version    string  `json:"version"`
	Migrations []Entry `json:"migrations"`
}

// Entry is one installed migration.
type Entry struct {
	Name        string    `json:"name"`
	InstalledAt time.Time `json:"installed_at"`
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "migrations"],
  "properties": {
    "version": {"type": "string", "enum": ["1"]},
    "migrations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "installed_at": {"type": "string"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Store is a JSON file backed store.Store.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns a store keeping its document in dir. The directory is created
// on the first write.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName), now: time.Now}
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// IsInstalled reports whether name is installed.
func (s *Store) IsInstalled(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return false, err
	}
	return doc.index(name) >= 0, nil
}

// Installed returns all installed names in insertion order.
func (s *Store) Installed(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Migrations))
	for _, e := range doc.Migrations {
		names = append(names, e.Name)
	}
	return names, nil
}

// Add appends name unless it is already installed.
func (s *Store) Add(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc.index(name) >= 0 {
		return nil
	}
	doc.Migrations = append(doc.Migrations, Entry{Name: name, InstalledAt: s.now().UTC()})
	return s.save(doc)
}

// Remove deletes name if present.
func (s *Store) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	i := doc.index(name)
	if i < 0 {
		return nil
	}
	doc.Migrations = slices.Delete(doc.Migrations, i, i+1)
	return s.save(doc)
}

func (d *Document) index(name string) int {
	return slices.IndexFunc(d.Migrations, func(e Entry) bool { return e.Name == name })
}

// load reads the document. A missing file is an empty installed-set.
func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Document{Version: formatVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.path, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s: %s", store.ErrCorrupt, s.path, result.Errors()[0])
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.path, err)
	}
	return &doc, nil
}

// save writes the document atomically (temp file, then rename).
func (s *Store) save(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if doc.Migrations == nil {
		doc.Migrations = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal installed-set: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write installed-set: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("failed to save installed-set: %w", err)
	}
	return nil
}
