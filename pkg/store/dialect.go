package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// rebind rewrites a query written with `?` placeholders into the form the
// connected dialect expects. SQLite and MySQL accept `?` natively; Postgres
// needs positional `$1, $2, ...`. Centralizing this here means every repo
// method can be written once, in the teacher's `?`-placeholder style, and
// still run against all three dialects.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(query string, args ...any) (sql.Result, error) {
	return db.sql.Exec(db.rebind(query), args...)
}

func (db *DB) queryRow(query string, args ...any) *sql.Row {
	return db.sql.QueryRow(db.rebind(query), args...)
}

func (db *DB) query(query string, args ...any) (*sql.Rows, error) {
	return db.sql.Query(db.rebind(query), args...)
}

// upsertSQL builds an insert-or-replace statement for a table keyed by
// keyCols, setting setCols on conflict. The conflict clause is the one
// genuinely dialect-specific piece of SQL in this package.
func (db *DB) upsertSQL(table string, keyCols, setCols []string) string {
	allCols := append(append([]string{}, keyCols...), setCols...)
	placeholders := strings.TrimRight(strings.Repeat("?,", len(allCols)), ",")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(allCols, ", "), placeholders)

	switch db.dialect {
	case DialectMySQL:
		assigns := make([]string, len(setCols))
		for i, c := range setCols {
			assigns[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
		}
		return insert + " ON DUPLICATE KEY UPDATE " + strings.Join(assigns, ", ")
	default: // sqlite, postgres both support ON CONFLICT
		assigns := make([]string, len(setCols))
		for i, c := range setCols {
			assigns[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		return insert + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET ", strings.Join(keyCols, ", ")) + strings.Join(assigns, ", ")
	}
}

func (db *DB) upsertArgs(vals ...any) []any { return vals }
