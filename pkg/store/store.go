// Package store is the persistence layer: key/value and relational storage
// for agents, personas, identities, curated memory, session logs, the
// full-text index mirroring session logs, skills, impressions, sessions,
// LLM usage metrics, model pricing, and model-experience notes (spec §3,
// §6). It wraps database/sql with three dialects the way the teacher's
// SQLSessionService does, and serializes the writer path for SQLite per
// spec §5's "SQLite-style single-writer" policy.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kadirpekel/agentcore/pkg/agentcfg"
)

// Dialect identifies the underlying SQL engine.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// PersistenceError wraps a storage failure; per spec §7 it propagates to
// the caller rather than being absorbed locally like a failed action
// Outcome.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// DB is the process-wide persistence handle. The router, provider adapters
// and action registry treat it as shared read-mostly state; writes are
// serialized per spec §5.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// Open connects to the configured store and applies schema migrations.
func Open(cfg agentcfg.StoreConfig) (*DB, error) {
	dialect := Dialect(cfg.Dialect)
	driverName := driverFor(dialect)
	if driverName == "" {
		return nil, fmt.Errorf("store: unsupported dialect %q", cfg.Dialect)
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	if dialect == DialectSQLite {
		// SQLite only supports one writer at a time; serialize at the
		// connection-pool level rather than fighting SQLITE_BUSY errors.
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
			return nil, wrapErr("pragma journal_mode", err)
		}
		if _, err := sqlDB.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
			return nil, wrapErr("pragma foreign_keys", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(10)
	}

	db := &DB{sql: sqlDB, dialect: dialect}
	if err := db.migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

func driverFor(d Dialect) string {
	switch d {
	case DialectSQLite:
		return "sqlite3"
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return ""
	}
}

// Close releases the underlying connection pool.
func (db *DB) Close() error { return db.sql.Close() }

// Dialect reports which engine this handle is connected to.
func (db *DB) Dialect() Dialect { return db.dialect }

func (db *DB) migrate() error {
	for _, stmt := range schemaStatements(db.dialect) {
		if _, err := db.sql.Exec(stmt); err != nil {
			return wrapErr("migrate", fmt.Errorf("%s: %w", firstLine(stmt), err))
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}

func nowUTC() time.Time { return time.Now().UTC() }
