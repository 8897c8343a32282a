package database

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlIntrospector introspects a MySQL database through information_schema,
// scoped to the current database via DATABASE().
type mysqlIntrospector struct {
	db *sql.DB
}

func (m *mysqlIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return scanStrings(rows)
}

func (m *mysqlIntrospector) Columns(ctx context.Context, table string) ([]ColumnMeta, error) {
	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	rows, err := m.db.QueryContext(ctx, query, table)
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

func (m *mysqlIntrospector) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_NAME = ?
			AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION
	`

	rows, err := m.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary keys for %s: %w", table, err)
	}

	return scanStrings(rows)
}

func (m *mysqlIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyMeta, error) {
	query := `
		SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_NAME = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY COLUMN_NAME
	`

	rows, err := m.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKeyMeta

	for rows.Next() {
		var fk ForeignKeyMeta
		if err := rows.Scan(&fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func (m *mysqlIntrospector) Indexes(ctx context.Context, table string) ([]IndexMeta, error) {
	query := `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`

	rows, err := m.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var (
		indexes []IndexMeta
		byName  = map[string]int{}
	)

	for rows.Next() {
		var (
			indexName, columnName string
			nonUnique             int
		)

		if err := rows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}

		if i, ok := byName[indexName]; ok {
			indexes[i].Columns = append(indexes[i].Columns, columnName)
			continue
		}

		byName[indexName] = len(indexes)
		indexes = append(indexes, IndexMeta{
			Name:    indexName,
			Columns: []string{columnName},
			Unique:  nonUnique == 0,
		})
	}

	return indexes, rows.Err()
}
