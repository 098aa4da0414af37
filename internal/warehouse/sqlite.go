// Package warehouse executes generated SQL against the transactions SQLite
// database. The connection is opened read-only and statements are checked
// against a read-only allow-list before execution, so a bad generation can
// never mutate the data.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insightx/server/internal/insight/model"
	logx "github.com/insightx/server/pkg/logger"
)

// DB wraps the read-only SQLite handle.
type DB struct {
	db *sql.DB
}

// Open opens the database at path in read-only mode. _query_only is a second
// fence at the SQLite level in case the statement check is ever bypassed.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_query_only=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}
	logx.Info().Str("path", path).Msg("warehouse opened read-only")
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Allowed reports whether the statement is a plain read: a single SELECT or
// WITH statement with no piggybacked second statement.
func Allowed(stmt string) bool {
	s := strings.TrimSpace(stmt)
	if s == "" {
		return false
	}
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return false
	}
	// reject "SELECT ...; DROP ..." while tolerating one trailing semicolon
	if rest := strings.TrimSuffix(strings.TrimSpace(s), ";"); strings.Contains(rest, ";") {
		return false
	}
	return true
}

// Query runs the statement and materializes the full result. SQL NULLs come
// back as the literal NullToken and blobs as strings, matching what the
// response layer serializes.
func (d *DB) Query(ctx context.Context, stmt string) (*model.Table, error) {
	if !Allowed(stmt) {
		return nil, fmt.Errorf("statement not allowed: only read queries may run")
	}

	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query warehouse: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &model.Table{Columns: cols}
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(model.Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(raw[i])
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

func normalize(v any) any {
	switch vv := v.(type) {
	case nil:
		return model.NullToken
	case []byte:
		return string(vv)
	default:
		return v
	}
}
