// Package testutil provides shared fixtures and helpers for tests
package testutil

import (
	"github.com/mkoster/querylens/internal/schema"
)

// TableOption is a functional option for configuring test tables
type TableOption func(*schema.TableInfo)

// WithColumn adds a plain column
func WithColumn(name, dataType string) TableOption {
	return func(t *schema.TableInfo) {
		t.Columns = append(t.Columns, schema.ColumnInfo{
			Name:         name,
			DataType:     dataType,
			SemanticType: schema.InferColumnSemantic(name),
		})
	}
}

// WithPrimaryKey adds a primary key column
func WithPrimaryKey(name, dataType string) TableOption {
	return func(t *schema.TableInfo) {
		t.Columns = append(t.Columns, schema.ColumnInfo{
			Name:         name,
			DataType:     dataType,
			SemanticType: schema.InferColumnSemantic(name),
			IsPrimaryKey: true,
		})
		t.PrimaryKeys = append(t.PrimaryKeys, name)
	}
}

// WithForeignKey adds a column referencing another table
func WithForeignKey(name, dataType, refTable, refColumn string) TableOption {
	return func(t *schema.TableInfo) {
		t.Columns = append(t.Columns, schema.ColumnInfo{
			Name:         name,
			DataType:     dataType,
			SemanticType: schema.InferColumnSemantic(name),
			ForeignKey:   &schema.ForeignKeyRef{Table: refTable, Column: refColumn},
		})
	}
}

// WithRowCount sets the table's discovered row count
func WithRowCount(n int64) TableOption {
	return func(t *schema.TableInfo) {
		t.RowCount = n
	}
}

// NewTable builds a test table with an inferred semantic type
func NewTable(name string, opts ...TableOption) schema.TableInfo {
	table := schema.TableInfo{
		Name:         name,
		SemanticType: schema.InferTableSemantic(name),
	}

	for _, opt := range opts {
		opt(&table)
	}

	return table
}

// NewModel builds a test schema model, deriving relationships from the
// tables' foreign key columns.
func NewModel(dialect string, tables ...schema.TableInfo) *schema.Model {
	model := &schema.Model{
		Tables:  tables,
		Dialect: dialect,
		Indexes: map[string][]schema.IndexInfo{},
	}

	for _, table := range tables {
		for _, col := range table.Columns {
			if col.ForeignKey == nil {
				continue
			}

			model.Relationships = append(model.Relationships, schema.Relationship{
				FromTable:  table.Name,
				FromColumn: col.Name,
				ToTable:    col.ForeignKey.Table,
				ToColumn:   col.ForeignKey.Column,
				Kind:       schema.RelForeignKey,
			})
		}
	}

	return model
}

// CorpModel is the employees/departments fixture used across packages
func CorpModel() *schema.Model {
	return NewModel("sqlite",
		NewTable("departments",
			WithPrimaryKey("id", "INTEGER"),
			WithColumn("dept_name", "TEXT"),
			WithRowCount(2),
		),
		NewTable("employees",
			WithPrimaryKey("emp_id", "INTEGER"),
			WithColumn("full_name", "TEXT"),
			WithForeignKey("department_id", "INTEGER", "departments", "id"),
			WithColumn("annual_salary", "REAL"),
			WithColumn("hire_date", "TEXT"),
			WithRowCount(3),
		),
	)
}
