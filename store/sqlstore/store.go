// Package sqlstore keeps the installed-set in a SQL table.
//
// The name column is UNIQUE and inserts ignore duplicates, so concurrent
// installs of the same migration from several processes leave a single row.
// Ordering follows the auto-increment id.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/appmigrate/appmigrate/store"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "installed_migrations"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store is a database/sql backed store.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	closed  atomic.Bool
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// New returns a store using table on db. An empty table selects DefaultTable.
// Call Init before first use to create the table.
func New(db *sql.DB, dialect Dialect, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{db: db, dialect: dialect, table: table}, nil
}

// Init creates the table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(s.table)); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the underlying connection. Later calls return
// store.ErrStoreClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// IsInstalled reports whether name is installed.
func (s *Store) IsInstalled(ctx context.Context, name string) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrStoreClosed
	}
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE name = %s", s.table, s.dialect.placeholder(1))

	var one int
	err := s.db.QueryRowContext(ctx, query, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	return true, nil
}

// Installed returns all installed names in insertion order.
func (s *Store) Installed(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrStoreClosed
	}
	query := fmt.Sprintf("SELECT name FROM %s ORDER BY id", s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
	}
	return names, nil
}

// Add inserts name unless it is already installed.
func (s *Store) Add(ctx context.Context, name string) error {
	if s.closed.Load() {
		return store.ErrStoreClosed
	}
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.insertIgnore(s.table), name); err != nil {
		return fmt.Errorf("failed to insert %q: %w", name, err)
	}
	return nil
}

// Remove deletes name if present.
func (s *Store) Remove(ctx context.Context, name string) error {
	if s.closed.Load() {
		return store.ErrStoreClosed
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.table, s.dialect.placeholder(1))
	if _, err := s.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	return nil
}
