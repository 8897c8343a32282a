package nlsql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mkoster/querylens/internal/schema"
)

// Fallback names assumed when the schema offers no recognizable match. A
// wrong assumption surfaces as an execution error, which the engine recovers
// from with a fallback query.
const (
	assumedDepartmentTable  = "departments"
	assumedSalaryColumn     = "annual_salary"
	assumedHireDateColumn   = "hire_date"
	assumedCertColumn       = "certifications"
	assumedDeptNameColumn   = "dept_name"
	assumedDeptForeignKey   = "department_id"
	assumedDeptPrimaryKey   = "id"
)

var (
	employeeTableKeywords   = []string{"emp", "staff", "personnel", "worker"}
	departmentTableKeywords = []string{"dept", "department", "division", "team"}

	salaryColumnKeywords = []string{"salary", "compensation", "pay", "wage"}
	dateColumnKeywords   = []string{"hire", "join", "start", "date"}
	certColumnKeywords   = []string{"cert", "skill", "qualification"}
)

// resolution holds the table and column names the synthesizer settled on for
// one query. Every field is a best-effort guess backed by an assumed default.
type resolution struct {
	employeeTable   string
	departmentTable string
	deptTableFound  bool

	salaryColumn   string
	hireDateColumn string
	certColumn     string

	deptNameColumn string
	deptForeignKey string
	deptPrimaryKey string
}

func resolve(model *schema.Model) resolution {
	r := resolution{
		departmentTable: assumedDepartmentTable,
		salaryColumn:    assumedSalaryColumn,
		hireDateColumn:  assumedHireDateColumn,
		certColumn:      assumedCertColumn,
		deptNameColumn:  assumedDeptNameColumn,
		deptForeignKey:  assumedDeptForeignKey,
		deptPrimaryKey:  assumedDeptPrimaryKey,
	}

	if emp := firstTableMatching(model, employeeTableKeywords); emp != "" {
		r.employeeTable = emp
	} else if len(model.Tables) > 0 {
		r.employeeTable = model.Tables[0].Name
	}

	if dept := firstTableMatching(model, departmentTableKeywords); dept != "" {
		r.departmentTable = dept
		r.deptTableFound = true
	}

	if emp := model.Table(r.employeeTable); emp != nil {
		if col := firstColumnMatching(emp, salaryColumnKeywords); col != "" {
			r.salaryColumn = col
		}

		if col := firstColumnMatching(emp, dateColumnKeywords); col != "" {
			r.hireDateColumn = col
		}

		if col := firstColumnMatching(emp, certColumnKeywords); col != "" {
			r.certColumn = col
		}

		if col := firstColumnMatching(emp, departmentTableKeywords); col != "" {
			r.deptForeignKey = col
		}
	}

	if dept := model.Table(r.departmentTable); dept != nil {
		if col := firstColumnMatching(dept, []string{"name"}); col != "" {
			r.deptNameColumn = col
		}

		if len(dept.PrimaryKeys) > 0 {
			r.deptPrimaryKey = dept.PrimaryKeys[0]
		}
	}

	return r
}

func firstTableMatching(model *schema.Model, keywords []string) string {
	for _, table := range model.Tables {
		lower := strings.ToLower(table.Name)

		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return table.Name
			}
		}
	}

	return ""
}

func firstColumnMatching(table *schema.TableInfo, keywords []string) string {
	for _, col := range table.Columns {
		lower := strings.ToLower(col.Name)

		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return col.Name
			}
		}
	}

	return ""
}

var numberWords = []struct {
	word  string
	value int
}{
	{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
}

var digitRunRe = regexp.MustCompile(`\d+`)

// extractNumber pulls the first number out of query text: spelled-out words
// one through ten first, then the first run of digits.
func extractNumber(query string) (int, bool) {
	lower := strings.ToLower(query)

	for _, nw := range numberWords {
		if strings.Contains(lower, nw.word) {
			return nw.value, true
		}
	}

	if m := digitRunRe.FindString(lower); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}

	return 0, false
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// extractYear finds a 4-digit year in the text, if any
func extractYear(query string) (int, bool) {
	if m := yearRe.FindString(query); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y, true
		}
	}

	return 0, false
}
