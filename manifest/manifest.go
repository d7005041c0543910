// Package manifest declares migrations in a YAML file.
//
// A manifest lists migrations with their install and uninstall actions:
//
//	migrations:
//	  - name: app.views
//	    description: Views migration.
//	    install:
//	      - name: view-install
//	        kind: copy
//	        type: views
//	        source: resources/views
//	        destination: public/views
//	    uninstall:
//	      - name: view-uninstall
//	        kind: remove
//	        path: public/views
//
// Relative paths are resolved against the manifest's directory. The document
// is validated against an embedded JSON Schema before it is decoded.
package manifest

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/appmigrate/appmigrate/actions"
	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store/sqlstore"
)

// Action kinds.
const (
	KindCopy   = "copy"
	KindRemove = "remove"
	KindSQL    = "sql"
)

//go:embed manifest.schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Manifest is a decoded manifest file.
type Manifest struct {
	Migrations []MigrationSpec `yaml:"migrations"`

	dir string
}

// MigrationSpec declares one migration.
type MigrationSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Install     []ActionSpec `yaml:"install"`
	Uninstall   []ActionSpec `yaml:"uninstall"`
}

// ActionSpec declares one action. Which fields apply depends on Kind.
type ActionSpec struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`

	// copy
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Overwrite   bool   `yaml:"overwrite"`

	// remove
	Path string `yaml:"path"`

	// sql
	Script string `yaml:"script"`
	File   string `yaml:"file"`
}

// ValidationError lists the schema violations of a manifest.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %s", e.Path, strings.Join(e.Errors, "; "))
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse validates and decodes manifest content. path is only used in errors.
func Parse(path string, data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to validate manifest %s: %w", path, err)
	}
	if !result.Valid() {
		verr := &ValidationError{Path: path}
		for _, e := range result.Errors() {
			verr.Errors = append(verr.Errors, e.String())
		}
		return nil, verr
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}

	seen := make(map[string]bool, len(m.Migrations))
	for _, spec := range m.Migrations {
		if seen[spec.Name] {
			return nil, &ValidationError{Path: path, Errors: []string{fmt.Sprintf("duplicate migration %q", spec.Name)}}
		}
		seen[spec.Name] = true
	}
	return &m, nil
}

// Env is what declared actions run against.
type Env struct {
	// DB is the database for sql actions. Nil makes sql actions fail
	// recoverably when processed.
	DB      *sql.DB
	Dialect sqlstore.Dialect
}

// Register adds every declared migration to r under its manifest name.
func (m *Manifest) Register(r *migration.Registry, env Env) {
	for _, spec := range m.Migrations {
		mig := &declared{spec: spec, dir: m.dir, env: env}
		r.Register(spec.Name, func() (migration.Migration, error) { return mig, nil })
	}
}

// declared is a Migration built from a MigrationSpec. Actions are created
// fresh on every call so processed data info never leaks between runs.
type declared struct {
	spec MigrationSpec
	dir  string
	env  Env
}

var _ migration.Named = (*declared)(nil)

func (d *declared) Name() string        { return d.spec.Name }
func (d *declared) Description() string { return d.spec.Description }

func (d *declared) Install() migration.Actions {
	return d.build(d.spec.Install)
}

func (d *declared) Uninstall() migration.Actions {
	return d.build(d.spec.Uninstall)
}

func (d *declared) build(specs []ActionSpec) migration.Actions {
	list := make(migration.Actions, 0, len(specs))
	for _, spec := range specs {
		list = append(list, d.action(spec))
	}
	return list
}

func (d *declared) action(spec ActionSpec) migration.Action {
	opts := []actions.Option{actions.WithType(spec.Type), actions.WithDescription(spec.Description)}

	switch spec.Kind {
	case KindCopy:
		root := d.dir
		if root == "" {
			root = "."
		}
		fsys, from := os.DirFS(root), filepath.ToSlash(filepath.Clean(spec.Source))
		if filepath.IsAbs(spec.Source) {
			fsys, from = os.DirFS(filepath.Dir(spec.Source)), filepath.Base(spec.Source)
		}
		return actions.NewCopy(spec.Name, fsys, from, d.resolve(spec.Destination), opts...).Overwrite(spec.Overwrite)
	case KindRemove:
		return actions.NewRemove(spec.Name, d.resolve(spec.Path), opts...)
	default:
		if spec.File != "" {
			return actions.NewSQLFile(spec.Name, d.env.DB, d.env.Dialect, d.resolve(spec.File), opts...)
		}
		return actions.NewSQL(spec.Name, d.env.DB, d.env.Dialect, spec.Script, opts...)
	}
}

func (d *declared) resolve(path string) string {
	if filepath.IsAbs(path) || d.dir == "" {
		return path
	}
	return filepath.Join(d.dir, path)
}
