package schema

import "strings"

// patternGroup pairs a semantic type with the name fragments that map to it.
// Groups are evaluated in declaration order and the first matching group wins,
// so more specific fragments must come before broader ones.
type patternGroup[T ~string] struct {
	semantic T
	patterns []string
}

var tablePatterns = []patternGroup[TableSemantic]{
	{TableEmployees, []string{"employee", "employees", "emp", "staff", "personnel", "worker"}},
	{TableDepartments, []string{"department", "departments", "dept", "division", "divisions"}},
	{TableSalaries, []string{"salary", "salaries", "compensation", "pay", "payroll"}},
	{TablePerformance, []string{"performance", "review", "reviews", "evaluation", "evaluations"}},
	{TableDocuments, []string{"document", "documents", "file", "files", "attachment"}},
}

var columnPatterns = []patternGroup[ColumnSemantic]{
	{ColumnID, []string{"id", "_id", "key", "pk", "code"}},
	{ColumnName, []string{"name", "full_name", "fullname", "fname", "lname", "employee_name"}},
	{ColumnEmail, []string{"email", "e_mail", "mail", "contact_email"}},
	{ColumnSalary, []string{"salary", "compensation", "pay", "wage", "annual_salary", "pay_rate"}},
	{ColumnDate, []string{"date", "hired", "joined", "start", "created", "modified"}},
	{ColumnDepartment, []string{"dept", "department", "division", "team", "group"}},
}

// InferTableSemantic maps a table name onto its semantic type by substring
// matching against the pattern groups
func InferTableSemantic(tableName string) TableSemantic {
	lower := strings.ToLower(tableName)

	for _, group := range tablePatterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lower, pattern) {
				return group.semantic
			}
		}
	}

	return TableUnknown
}

// InferColumnSemantic maps a column name onto its semantic type by substring
// matching against the pattern groups
func InferColumnSemantic(columnName string) ColumnSemantic {
	lower := strings.ToLower(columnName)

	for _, group := range columnPatterns {
		for _, pattern := range group.patterns {
			if strings.Contains(lower, pattern) {
				return group.semantic
			}
		}
	}

	return ColumnGeneral
}
