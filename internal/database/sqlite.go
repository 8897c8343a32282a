package database

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteIntrospector introspects a SQLite database through sqlite_master and
// the table_info/foreign_key_list/index_list PRAGMAs.
type sqliteIntrospector struct {
	db *sql.DB
}

func (s *sqliteIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	return scanStrings(rows)
}

func (s *sqliteIntrospector) Columns(ctx context.Context, table string) ([]ColumnMeta, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnMeta

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			defaultValue     sql.NullString
		)

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col := ColumnMeta{
			Name:     name,
			DataType: dataType,
			Nullable: notNull == 0,
		}
		if defaultValue.Valid {
			col.Default = &defaultValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (s *sqliteIntrospector) PrimaryKeys(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to get primary keys for %s: %w", table, err)
	}
	defer rows.Close()

	var pks []string

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			defaultValue     sql.NullString
		)

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		if pk > 0 {
			pks = append(pks, name)
		}
	}

	return pks, rows.Err()
}

func (s *sqliteIntrospector) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyMeta, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKeyMeta

	for rows.Next() {
		var (
			id, seq                              int
			refTable, from, onUpdate, onDelete   string
			to                                   sql.NullString
			match                                string
		)

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		fk := ForeignKeyMeta{
			Column:           from,
			ReferencedTable:  refTable,
			ReferencedColumn: "id",
		}
		// A NULL target column means the FK references the primary key.
		if to.Valid {
			fk.ReferencedColumn = to.String
		}

		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func (s *sqliteIntrospector) Indexes(ctx context.Context, table string) ([]IndexMeta, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []IndexMeta

	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}

		indexes = append(indexes, IndexMeta{Name: name, Unique: unique == 1})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range indexes {
		columns, err := s.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}

		indexes[i].Columns = columns
	}

	return indexes, nil
}

func (s *sqliteIntrospector) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, fmt.Errorf("failed to get index columns for %s: %w", index, err)
	}
	defer rows.Close()

	var columns []string

	for rows.Next() {
		var (
			seqno, cid int
			name       sql.NullString
		)

		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}

		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	return columns, rows.Err()
}
