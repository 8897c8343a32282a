package schema

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoster/querylens/internal/database"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
)

// expectCorpDatabase wires up the full introspection sequence for a two-table
// SQLite database: departments(id, dept_name) and employees(emp_id,
// full_name, department_id, annual_salary) with a declared FK to departments.
func expectCorpDatabase(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT name\\s+FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("departments").
			AddRow("employees"))

	pragmaCols := []string{"cid", "name", "type", "notnull", "dflt_value", "pk"}

	// departments
	deptInfo := func() *sqlmock.Rows {
		return sqlmock.NewRows(pragmaCols).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "dept_name", "TEXT", 0, nil, 0)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("departments")`)).
		WillReturnRows(deptInfo())
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("departments")`)).
		WillReturnRows(deptInfo())
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("departments")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM departments LIMIT 5")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "dept_name"}).
			AddRow(1, "Engineering").
			AddRow(2, "Sales"))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA index_list("departments")`)).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "name", "unique", "origin", "partial"}))

	// employees
	empInfo := func() *sqlmock.Rows {
		return sqlmock.NewRows(pragmaCols).
			AddRow(0, "emp_id", "INTEGER", 1, nil, 1).
			AddRow(1, "full_name", "TEXT", 0, nil, 0).
			AddRow(2, "department_id", "INTEGER", 0, nil, 0).
			AddRow(3, "annual_salary", "REAL", 0, nil, 0)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("employees")`)).
		WillReturnRows(empInfo())
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("employees")`)).
		WillReturnRows(empInfo())
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("employees")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}).
			AddRow(0, 0, "departments", "department_id", "id", "NO ACTION", "NO ACTION", "NONE"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM employees")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM employees LIMIT 5")).
		WillReturnRows(sqlmock.NewRows(
			[]string{"emp_id", "full_name", "department_id", "annual_salary"}).
			AddRow(1, "Alice Chen", 1, 125000.0))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA index_list("employees")`)).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "name", "unique", "origin", "partial"}).
			AddRow(0, "idx_employees_dept", 0, "c", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA index_info("idx_employees_dept")`)).
		WillReturnRows(sqlmock.NewRows([]string{"seqno", "cid", "name"}).
			AddRow(0, 2, "department_id"))
}

func discoverCorp(t *testing.T) *Model {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })

	expectCorpDatabase(mock)

	db := database.NewFromSQL(sqlDB, database.DialectSQLite)
	discoverer := NewDiscoverer(logging.NewNop())

	model, err := discoverer.Discover(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	return model
}

func TestDiscoverBuildsModel(t *testing.T) {
	model := discoverCorp(t)

	require.Len(t, model.Tables, 2)
	assert.Equal(t, "departments", model.Tables[0].Name)
	assert.Equal(t, "employees", model.Tables[1].Name)

	dept := model.Table("departments")
	require.NotNil(t, dept)
	assert.Equal(t, TableDepartments, dept.SemanticType)
	assert.Equal(t, []string{"id"}, dept.PrimaryKeys)
	assert.Equal(t, int64(3), dept.RowCount)
	assert.Len(t, dept.SampleRows, 2)

	emp := model.Table("employees")
	require.NotNil(t, emp)
	assert.Equal(t, TableEmployees, emp.SemanticType)
	assert.Equal(t, int64(42), emp.RowCount)
	assert.True(t, emp.HasColumn("annual_salary"))
	assert.Equal(t, []string{"annual_salary"}, emp.ColumnsBySemantic(ColumnSalary))

	// declared FK is attached to the column
	var deptCol *ColumnInfo

	for i := range emp.Columns {
		if emp.Columns[i].Name == "department_id" {
			deptCol = &emp.Columns[i]
		}
	}

	require.NotNil(t, deptCol)
	require.NotNil(t, deptCol.ForeignKey)
	assert.Equal(t, "departments", deptCol.ForeignKey.Table)
	assert.Equal(t, "id", deptCol.ForeignKey.Column)

	assert.Len(t, model.Indexes["employees"], 1)
	assert.Equal(t, []string{"department_id"}, model.Indexes["employees"][0].Columns)
}

func TestDiscoverRelationships(t *testing.T) {
	model := discoverCorp(t)

	var declared, inferred []Relationship

	for _, rel := range model.Relationships {
		switch rel.Kind {
		case RelForeignKey:
			declared = append(declared, rel)
		case RelInferred:
			inferred = append(inferred, rel)
		}
	}

	require.Len(t, declared, 1)
	assert.Equal(t, "employees", declared[0].FromTable)
	assert.Equal(t, "department_id", declared[0].FromColumn)
	assert.Equal(t, "departments", declared[0].ToTable)
	assert.Equal(t, "id", declared[0].ToColumn)

	// employees.department_id also matches the naming heuristic, so it shows
	// up a second time flagged as inferred
	require.Len(t, inferred, 1)
	assert.Equal(t, RelInferred, inferred[0].Kind)
	assert.Equal(t, "departments", inferred[0].ToTable)
	assert.Equal(t, "id", inferred[0].ToColumn)
}

func TestDiscoverIdempotent(t *testing.T) {
	first := discoverCorp(t)
	second := discoverCorp(t)

	require.Len(t, second.Tables, len(first.Tables))

	for i := range first.Tables {
		assert.Equal(t, first.Tables[i].Name, second.Tables[i].Name)
		assert.Equal(t, first.Tables[i].SemanticType, second.Tables[i].SemanticType)
	}

	assert.Equal(t, first.Relationships, second.Relationships)
}

func TestDiscoverDiagnosticsFailSoft(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer sqlDB.Close()

	mock.ExpectQuery("SELECT name\\s+FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("widgets"))

	info := sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
		AddRow(0, "sku", "TEXT", 0, nil, 0)
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("widgets")`)).WillReturnRows(info)
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("widgets")`)).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "sku", "TEXT", 0, nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA foreign_key_list("widgets")`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}))

	// count and sample both denied: discovery still succeeds
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM widgets")).
		WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM widgets LIMIT 5")).
		WillReturnError(fmt.Errorf("permission denied"))
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA index_list("widgets")`)).
		WillReturnRows(sqlmock.NewRows([]string{"seq", "name", "unique", "origin", "partial"}))

	db := database.NewFromSQL(sqlDB, database.DialectSQLite)

	model, err := NewDiscoverer(logging.NewNop()).Discover(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, model.Tables, 1)
	assert.Equal(t, TableUnknown, model.Tables[0].SemanticType)
	assert.Equal(t, int64(0), model.Tables[0].RowCount)
	assert.Empty(t, model.Tables[0].SampleRows)
}

func TestDiscoverIntrospectionError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer sqlDB.Close()

	mock.ExpectQuery("SELECT name\\s+FROM sqlite_master").
		WillReturnError(fmt.Errorf("database is locked"))

	db := database.NewFromSQL(sqlDB, database.DialectSQLite)

	_, err = NewDiscoverer(logging.NewNop()).Discover(context.Background(), db)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeIntrospection))
}
