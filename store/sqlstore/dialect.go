package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Dialect is a supported SQL database flavour.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectLibSQL   Dialect = "libsql"
	DialectMySQL    Dialect = "mysql"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "libsql", "turso":
		return DialectLibSQL, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", name)
	}
}

// DetectDialect guesses the dialect from a connection string.
// Anything unrecognized is treated as a SQLite file path.
func DetectDialect(url string) Dialect {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres
	case strings.HasPrefix(lower, "libsql://"),
		strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "ws://"), strings.HasPrefix(lower, "wss://"):
		return DialectLibSQL
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

// DriverName returns the database/sql driver name for d.
func (d Dialect) DriverName() string {
	return string(d)
}

// DSN converts a URL-style connection string into what the driver expects.
func (d Dialect) DSN(url string) string {
	switch d {
	case DialectMySQL:
		return strings.TrimPrefix(url, "mysql://")
	case DialectSQLite:
		return strings.TrimPrefix(url, "sqlite://")
	default:
		return url
	}
}

// Open opens a connection for d and pings it.
func Open(ctx context.Context, d Dialect, url string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName(), d.DSN(url))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database.
	if d == DialectSQLite && strings.Contains(url, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// placeholder returns the n-th (1-based) bind parameter for d.
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) createTable(table string) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	installed_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table)
	case DialectMySQL:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL UNIQUE,
	installed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, table)
	default:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	installed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, table)
	}
}

// insertIgnore inserts a name and silently skips duplicates.
func (d Dialect) insertIgnore(table string) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", table)
	case DialectMySQL:
		return fmt.Sprintf("INSERT IGNORE INTO %s (name) VALUES (?)", table)
	default:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (name) VALUES (?)", table)
	}
}
