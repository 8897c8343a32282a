// Package schema discovers the structure of a connected database and infers
// semantic roles for its tables and columns from naming patterns.
package schema

// TableSemantic is the coarse domain role inferred for a table from its name
type TableSemantic string

const (
	TableEmployees   TableSemantic = "employees"
	TableDepartments TableSemantic = "departments"
	TableSalaries    TableSemantic = "salaries"
	TablePerformance TableSemantic = "performance"
	TableDocuments   TableSemantic = "documents"
	TableUnknown     TableSemantic = "unknown"
)

// ColumnSemantic is the coarse domain role inferred for a column from its name
type ColumnSemantic string

const (
	ColumnID         ColumnSemantic = "id"
	ColumnName       ColumnSemantic = "name"
	ColumnEmail      ColumnSemantic = "email"
	ColumnSalary     ColumnSemantic = "salary"
	ColumnDate       ColumnSemantic = "date"
	ColumnDepartment ColumnSemantic = "department"
	ColumnGeneral    ColumnSemantic = "general"
)

// RelationshipKind distinguishes declared foreign keys from naming-convention
// guesses. Inferred relationships can be wrong and callers must treat them as
// hints.
type RelationshipKind string

const (
	RelForeignKey RelationshipKind = "foreign_key"
	RelInferred   RelationshipKind = "inferred"
)

// ForeignKeyRef points a column at the table/column it references
type ForeignKeyRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnInfo describes one discovered column
type ColumnInfo struct {
	Name         string         `json:"name"`
	DataType     string         `json:"data_type"`
	Nullable     bool           `json:"nullable"`
	Default      *string        `json:"default,omitempty"`
	SemanticType ColumnSemantic `json:"semantic_type"`
	IsPrimaryKey bool           `json:"is_primary_key"`
	ForeignKey   *ForeignKeyRef `json:"foreign_key,omitempty"`
}

// TableInfo describes one discovered table. RowCount and SampleRows are
// best-effort diagnostics and may be zero/empty when the database denies
// access.
type TableInfo struct {
	Name         string                   `json:"name"`
	SemanticType TableSemantic            `json:"semantic_type"`
	Columns      []ColumnInfo             `json:"columns"`
	PrimaryKeys  []string                 `json:"primary_keys"`
	RowCount     int64                    `json:"row_count"`
	SampleRows   []map[string]interface{} `json:"sample_rows,omitempty"`
}

// Relationship links two tables, either by a declared foreign key or by an
// inferred naming convention (column containing "<table>_id")
type Relationship struct {
	FromTable  string           `json:"from_table"`
	FromColumn string           `json:"from_column"`
	ToTable    string           `json:"to_table"`
	ToColumn   string           `json:"to_column"`
	Kind       RelationshipKind `json:"kind"`
}

// IndexInfo describes one index on a table
type IndexInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Model is the immutable result of a discovery run. It is never mutated after
// Discover returns it; a reconnect produces a fresh Model that replaces the
// old one wholesale, so concurrent readers need no synchronization.
type Model struct {
	Tables        []TableInfo            `json:"tables"`
	Relationships []Relationship         `json:"relationships"`
	Indexes       map[string][]IndexInfo `json:"indexes"`
	Dialect       string                 `json:"dialect"`
}

// Table returns the table with the given name, or nil
func (m *Model) Table(name string) *TableInfo {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}

	return nil
}

// TableBySemantic returns the first table with the given semantic type, or nil
func (m *Model) TableBySemantic(semantic TableSemantic) *TableInfo {
	for i := range m.Tables {
		if m.Tables[i].SemanticType == semantic {
			return &m.Tables[i]
		}
	}

	return nil
}

// ColumnsBySemantic returns the names of the table's columns carrying the
// given semantic type
func (t *TableInfo) ColumnsBySemantic(semantic ColumnSemantic) []string {
	var names []string

	for _, col := range t.Columns {
		if col.SemanticType == semantic {
			names = append(names, col.Name)
		}
	}

	return names
}

// HasColumn reports whether the table declares a column with the given name
func (t *TableInfo) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col.Name == name {
			return true
		}
	}

	return false
}
