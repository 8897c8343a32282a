package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferTableSemantic(t *testing.T) {
	tests := []struct {
		table string
		want  TableSemantic
	}{
		{"employees", TableEmployees},
		{"staff", TableEmployees},
		{"personnel_records", TableEmployees},
		{"departments", TableDepartments},
		{"dept", TableDepartments},
		{"divisions", TableDepartments},
		{"payroll", TableSalaries},
		{"compensation_history", TableSalaries},
		{"performance_reviews", TablePerformance},
		{"evaluations", TablePerformance},
		{"documents", TableDocuments},
		{"attachments", TableDocuments},
		{"widgets", TableUnknown},
		{"EMPLOYEES", TableEmployees},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, InferTableSemantic(tt.table))
		})
	}
}

func TestInferColumnSemantic(t *testing.T) {
	tests := []struct {
		column string
		want   ColumnSemantic
	}{
		{"id", ColumnID},
		{"emp_id", ColumnID},
		{"full_name", ColumnName},
		{"contact_email", ColumnEmail},
		{"annual_salary", ColumnSalary},
		{"wage", ColumnSalary},
		{"hire_date", ColumnDate},
		{"joined", ColumnDate},
		{"dept", ColumnDepartment},
		{"team", ColumnDepartment},
		{"notes", ColumnGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.want, InferColumnSemantic(tt.column))
		})
	}
}

// Group order matters: "pay_rate" contains both "pay" fragments (salary) and
// no id fragment, while "department_id" contains both an id fragment and a
// department fragment. The id group is declared first and must win.
func TestInferColumnSemanticPriority(t *testing.T) {
	assert.Equal(t, ColumnID, InferColumnSemantic("department_id"))
	assert.Equal(t, ColumnSalary, InferColumnSemantic("pay_rate"))
}
