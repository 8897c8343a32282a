package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// duckdbIntrospector introspects a DuckDB database. Tables and columns come
// from information_schema; constraints come from duckdb_constraints(), whose
// column lists are only exposed reliably as constraint text, so the text is
// parsed.
type duckdbIntrospector struct {
	db *sql.DB
}

var (
	duckdbPrimaryKeyRe = regexp.MustCompile(`(?i)PRIMARY KEY\s*\(([^)]+)\)`)
	duckdbForeignKeyRe = regexp.MustCompile(`(?i)FOREIGN KEY\s*\(([^)]+)\)\s*REFERENCES\s+(\w+)\s*\(([^)]+)\)`)
)

func (d *duckdbIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return scanStrings(rows)
}

func (d *duckdbIntrospector) Columns(ctx context.Context, table string) ([]ColumnMeta, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := d.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnMeta

	for rows.Next() {
		var col ColumnMeta

		var nullable string

		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Nullable = nullable == "YES"
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (d *duckdbIntrospector) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	texts, err := d.constraintTexts(ctx, table, "PRIMARY KEY")
	if err != nil {
		return nil, err
	}

	var pks []string

	for _, text := range texts {
		if m := duckdbPrimaryKeyRe.FindStringSubmatch(text); m != nil {
			pks = append(pks, splitColumnList(m[1])...)
		}
	}

	return pks, nil
}

func (d *duckdbIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyMeta, error) {
	texts, err := d.constraintTexts(ctx, table, "FOREIGN KEY")
	if err != nil {
		return nil, err
	}

	var fks []ForeignKeyMeta

	for _, text := range texts {
		m := duckdbForeignKeyRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		from := splitColumnList(m[1])
		to := splitColumnList(m[3])

		for i := range from {
			fk := ForeignKeyMeta{Column: from[i], ReferencedTable: m[2], ReferencedColumn: "id"}
			if i < len(to) {
				fk.ReferencedColumn = to[i]
			}

			fks = append(fks, fk)
		}
	}

	return fks, nil
}

func (d *duckdbIntrospector) Indexes(ctx context.Context, table string) ([]IndexMeta, error) {
	query := `
		SELECT index_name, is_unique, sql
		FROM duckdb_indexes()
		WHERE table_name = ?
		ORDER BY index_name
	`

	rows, err := d.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []IndexMeta

	for rows.Next() {
		var (
			name   string
			unique bool
			ddl    sql.NullString
		)

		if err := rows.Scan(&name, &unique, &ddl); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}

		meta := IndexMeta{Name: name, Unique: unique}
		if ddl.Valid {
			if open := strings.LastIndex(ddl.String, "("); open >= 0 {
				if close := strings.Index(ddl.String[open:], ")"); close > 0 {
					meta.Columns = splitColumnList(ddl.String[open+1 : open+close])
				}
			}
		}

		indexes = append(indexes, meta)
	}

	return indexes, rows.Err()
}

func (d *duckdbIntrospector) constraintTexts(
	ctx context.Context,
	table, constraintType string,
) ([]string, error) {
	query := `
		SELECT constraint_text
		FROM duckdb_constraints()
		WHERE table_name = ? AND constraint_type = ?
		ORDER BY constraint_text
	`

	rows, err := d.db.QueryContext(ctx, query, table, constraintType)
	if err != nil {
		return nil, fmt.Errorf("failed to get constraints for %s: %w", table, err)
	}

	return scanStrings(rows)
}

func splitColumnList(list string) []string {
	parts := strings.Split(list, ",")

	var out []string

	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
