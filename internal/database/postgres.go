package database

import (
	"context"
	"database/sql"
	"fmt"
)

// postgresIntrospector introspects a PostgreSQL database through
// information_schema and the pg_catalog index views.
type postgresIntrospector struct {
	db *sql.DB
}

func (p *postgresIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return scanStrings(rows)
}

func (p *postgresIntrospector) Columns(ctx context.Context, table string) ([]ColumnMeta, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, table)
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

func (p *postgresIntrospector) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
		ORDER BY kcu.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary keys for %s: %w", table, err)
	}

	return scanStrings(rows)
}

func (p *postgresIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyMeta, error) {
	query := `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
		ORDER BY kcu.column_name
	`

	rows, err := p.db.QueryContext(ctx, query, table)
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

func (p *postgresIntrospector) Indexes(ctx context.Context, table string) ([]IndexMeta, error) {
	query := `
		SELECT i.relname, a.attname, ix.indisunique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1 AND t.relkind = 'r'
		ORDER BY i.relname, a.attnum
	`

	rows, err := p.db.QueryContext(ctx, query, table)
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
			unique                bool
		)

		if err := rows.Scan(&indexName, &columnName, &unique); err != nil {
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
			Unique:  unique,
		})
	}

	return indexes, rows.Err()
}
