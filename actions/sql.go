package actions

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/appmigrate/appmigrate/migration"
	"github.com/appmigrate/appmigrate/store/sqlstore"
)

// SQL runs a script against a database inside one transaction.
//
// The script is split into statements with the PostgreSQL scanner. For the
// postgres dialect every statement is parsed before anything is executed, so
// a syntax error fails the action without touching the database.
type SQL struct {
	base
	db      *sql.DB
	dialect sqlstore.Dialect
	script  string
	file    string
}

// Compile-time check that SQL implements migration.Action.
var _ migration.Action = (*SQL)(nil)

// NewSQL returns an action running script on db.
func NewSQL(name string, db *sql.DB, dialect sqlstore.Dialect, script string, opts ...Option) *SQL {
	return &SQL{base: newBase(name, opts), db: db, dialect: dialect, script: script}
}

// NewSQLFile returns an action running the script stored at path. The file
// is read when the action is processed.
func NewSQLFile(name string, db *sql.DB, dialect sqlstore.Dialect, path string, opts ...Option) *SQL {
	return &SQL{base: newBase(name, opts), db: db, dialect: dialect, file: path}
}

// Statements splits the script into individual statements.
func (s *SQL) Statements() ([]string, error) {
	script := s.script
	if s.file != "" {
		data, err := os.ReadFile(s.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
		script = string(data)
	}

	stmts, err := pg_query.SplitWithScanner(script, true)
	if err != nil {
		return nil, fmt.Errorf("failed to split script: %w", err)
	}

	// SplitWithScanner keeps empty trailing segments for scripts like ";;".
	out := stmts[:0]
	for _, stmt := range stmts {
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// Validate checks that every statement parses. Only postgres scripts can be
// checked; other dialects are accepted as is.
func (s *SQL) Validate() error {
	stmts, err := s.Statements()
	if err != nil {
		return err
	}
	return s.validate(stmts)
}

func (s *SQL) validate(stmts []string) error {
	if s.dialect != sqlstore.DialectPostgres {
		return nil
	}
	for i, stmt := range stmts {
		if _, err := pg_query.Parse(stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQL) Process(ctx context.Context) error {
	s.info = nil

	if s.db == nil {
		return migration.Failf("no database configured")
	}
	stmts, err := s.Statements()
	if err != nil {
		return migration.Fail(err)
	}
	if err := s.validate(stmts); err != nil {
		return migration.Fail(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return migration.Failf("failed to begin transaction: %w", err)
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return migration.Failf("statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return migration.Failf("failed to commit: %w", err)
	}

	s.info = map[string]string{
		"dialect":    string(s.dialect),
		"statements": strconv.Itoa(len(stmts)),
	}
	return nil
}
