// Package store provides SQL-backed persistence for the LeadTrack server.
//
// The same Store runs against sqlite (single-node deployments) or postgres
// (shared deployments). Queries are written with ? placeholders and rebound
// for postgres at execution time.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var schemaSQLite string

//go:embed schema_postgres.sql
var schemaPostgres string

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides SQL-backed persistence for leads, tags, users, and sessions.
type Store struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open creates a new store on the given driver and DSN.
// For sqlite the DSN is a file path; WAL mode and pragmas are configured.
// The schema migration runs on every open and is idempotent.
func Open(driver, dsn string, logger *slog.Logger) (*Store, error) {
	var db *sql.DB
	var err error

	switch driver {
	case DriverSQLite:
		// Pragmas ride the DSN so that every pooled connection gets them.
		// foreign_keys in particular is per-connection state; an Exec
		// would only configure whichever connection it landed on.
		db, err = sql.Open("sqlite", "file:"+dsn+
			"?_pragma=journal_mode(WAL)"+
			"&_pragma=synchronous(NORMAL)"+
			"&_pragma=foreign_keys(1)"+
			"&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		// Set connection pool to a handful of readers (SQLite limitation on writers).
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)

		if _, err := db.Exec(schemaSQLite); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}

	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		if _, err := db.Exec(schemaPostgres); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	return &Store{db: db, driver: driver, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// dbtx is the subset of *sql.DB and *sql.Tx the query helpers need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rebind converts ? placeholders to $1..$n for postgres.
// Queries never contain literal question marks, so a plain scan suffices.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique constraint failure,
// for either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// timeLayout is RFC 3339 with a fixed nine-digit fraction. The fixed
// width keeps lexicographic TEXT ordering chronological; RFC3339Nano
// trims trailing zeros, which breaks ORDER BY for values like ".1Z"
// versus ".15Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp back to time.Time.
// RFC3339Nano accepts both the fixed-width form and older values.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a sql.NullString from a string, treating "" as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
