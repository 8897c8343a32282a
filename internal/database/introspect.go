package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ColumnMeta describes one column as reported by the database
type ColumnMeta struct {
	Name     string
	DataType string
	Nullable bool
	Default  *string
}

// ForeignKeyMeta describes one declared foreign key column
type ForeignKeyMeta struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// IndexMeta describes one index on a table
type IndexMeta struct {
	Name    string
	Columns []string
	Unique  bool
}

// Introspector enumerates schema objects for one SQL dialect
type Introspector interface {
	ListTables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]ColumnMeta, error)
	PrimaryKeys(ctx context.Context, table string) ([]string, error)
	ForeignKeys(ctx context.Context, table string) ([]ForeignKeyMeta, error)
	Indexes(ctx context.Context, table string) ([]IndexMeta, error)
}

// scanStrings collects a single-column result into a string slice
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}
