package nlsql

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/schema"
)

const (
	defaultTopN            = 10
	defaultSalaryThreshold = 100000
	defaultListLimit       = 100
)

// knownDepartments is the fixed set of department names recognized verbatim
// in query text. Only members of this set are ever interpolated into SQL, so
// user text never reaches an identifier or string position.
var knownDepartments = []string{
	"engineering", "sales", "marketing", "finance", "operations", "legal",
}

var comparisonWords = []string{"over", "above", "more than", ">"}

// Synthesizer generates SQL from natural-language text against a discovered
// schema. Generation is a fixed-priority rule chain: rules are tried in order
// and the first whose trigger matches produces the SQL. The ordering is part
// of the contract; reordering rules changes which query wins when several
// triggers match.
type Synthesizer struct {
	model *schema.Model
	res   resolution
}

// NewSynthesizer builds a synthesizer bound to one immutable schema model
func NewSynthesizer(model *schema.Model) *Synthesizer {
	return &Synthesizer{model: model, res: resolve(model)}
}

// Synthesize produces a SQL string for the query text. Fails only when the
// schema has no tables at all; every other input produces SQL via the
// fallback listing rule.
func (s *Synthesizer) Synthesize(query string) (string, error) {
	if len(s.model.Tables) == 0 {
		return "", errors.New(errors.ErrTypeNoSchema,
			"cannot generate SQL: discovered schema has no tables")
	}

	lower := strings.ToLower(query)

	rules := []func(string) (string, bool){
		s.ruleAverageSalaryByDepartment,
		s.ruleCertificationFilter,
		s.ruleCompoundFilter,
		s.ruleCount,
		s.ruleAverage,
		s.ruleListDepartments,
		s.ruleSuperlative,
		s.ruleLiteralDepartment,
		s.ruleNumericComparison,
		s.ruleHireDate,
	}

	for _, rule := range rules {
		if sql, ok := rule(lower); ok {
			return sql, nil
		}
	}

	return s.fallbackListing(), nil
}

// Rule 1: "average ... department" produces the grouped salary report
func (s *Synthesizer) ruleAverageSalaryByDepartment(query string) (string, bool) {
	if !strings.Contains(query, "average") || !strings.Contains(query, "department") {
		return "", false
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT d.%s, ROUND(AVG(e.%s), 2) AS average_salary FROM %s e JOIN %s d ON e.%s = d.%s GROUP BY d.%s ORDER BY average_salary DESC",
		r.deptNameColumn, r.salaryColumn, r.employeeTable, r.departmentTable,
		r.deptForeignKey, r.deptPrimaryKey, r.deptNameColumn,
	), true
}

// Rule 2: "aws" plus a certification word filters on the cert column
func (s *Synthesizer) ruleCertificationFilter(query string) (string, bool) {
	if !strings.Contains(query, "aws") {
		return "", false
	}

	certWord := false

	for _, kw := range certColumnKeywords {
		if strings.Contains(query, kw) {
			certWord = true
			break
		}
	}

	if !certWord {
		return "", false
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT * FROM %s WHERE LOWER(%s) LIKE '%%aws%%' ORDER BY %s DESC LIMIT %d",
		r.employeeTable, r.certColumn, r.salaryColumn, defaultListLimit,
	), true
}

// Rule 3: "python" + "engineering" + a comparison word builds the joined
// multi-condition filter with an extracted salary threshold
func (s *Synthesizer) ruleCompoundFilter(query string) (string, bool) {
	if !strings.Contains(query, "python") || !strings.Contains(query, "engineering") {
		return "", false
	}

	if !containsAny(query, comparisonWords) {
		return "", false
	}

	threshold, ok := extractNumber(query)
	if !ok {
		threshold = defaultSalaryThreshold
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT e.* FROM %s e JOIN %s d ON e.%s = d.%s WHERE LOWER(e.%s) LIKE '%%python%%' AND LOWER(d.%s) = 'engineering' AND e.%s > %d LIMIT %d",
		r.employeeTable, r.departmentTable, r.deptForeignKey, r.deptPrimaryKey,
		r.certColumn, r.deptNameColumn, r.salaryColumn, threshold, defaultListLimit,
	), true
}

// Rule 4: count queries, optionally grouped by department
func (s *Synthesizer) ruleCount(query string) (string, bool) {
	if !containsAny(query, []string{"how many", "count", "number of", "total"}) {
		return "", false
	}

	r := s.res

	if groupedByDepartment(query) {
		return fmt.Sprintf(
			"SELECT d.%s, COUNT(*) AS employee_count FROM %s e JOIN %s d ON e.%s = d.%s GROUP BY d.%s ORDER BY employee_count DESC",
			r.deptNameColumn, r.employeeTable, r.departmentTable,
			r.deptForeignKey, r.deptPrimaryKey, r.deptNameColumn,
		), true
	}

	return fmt.Sprintf("SELECT COUNT(*) AS total_employees FROM %s", r.employeeTable), true
}

// Rule 5: generic average, optionally grouped by department
func (s *Synthesizer) ruleAverage(query string) (string, bool) {
	if !strings.Contains(query, "average") && !strings.Contains(query, "avg") {
		return "", false
	}

	r := s.res

	if groupedByDepartment(query) {
		return fmt.Sprintf(
			"SELECT d.%s, ROUND(AVG(e.%s), 2) AS average_salary FROM %s e JOIN %s d ON e.%s = d.%s GROUP BY d.%s",
			r.deptNameColumn, r.salaryColumn, r.employeeTable, r.departmentTable,
			r.deptForeignKey, r.deptPrimaryKey, r.deptNameColumn,
		), true
	}

	return fmt.Sprintf(
		"SELECT ROUND(AVG(%s), 2) AS average_salary FROM %s",
		r.salaryColumn, r.employeeTable,
	), true
}

// Rule 6: plain department listing
func (s *Synthesizer) ruleListDepartments(query string) (string, bool) {
	if !strings.Contains(query, "department") {
		return "", false
	}

	if !containsAny(query, []string{"list", "show", "display", "all", "what"}) {
		return "", false
	}

	r := s.res

	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s", r.departmentTable, r.deptNameColumn), true
}

// Rule 7: superlative queries order by salary with an extracted limit
func (s *Synthesizer) ruleSuperlative(query string) (string, bool) {
	if !containsAny(query, []string{"highest", "top", "maximum", "max"}) {
		return "", false
	}

	n, ok := extractNumber(query)
	if !ok {
		n = defaultTopN
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT * FROM %s ORDER BY %s DESC LIMIT %d",
		r.employeeTable, r.salaryColumn, n,
	), true
}

// Rule 8: a known department name appearing verbatim filters to that
// department
func (s *Synthesizer) ruleLiteralDepartment(query string) (string, bool) {
	for _, dept := range knownDepartments {
		if !strings.Contains(query, dept) {
			continue
		}

		r := s.res

		return fmt.Sprintf(
			"SELECT e.* FROM %s e JOIN %s d ON e.%s = d.%s WHERE LOWER(d.%s) = '%s' LIMIT %d",
			r.employeeTable, r.departmentTable, r.deptForeignKey, r.deptPrimaryKey,
			r.deptNameColumn, dept, defaultListLimit,
		), true
	}

	return "", false
}

// Rule 9: numeric comparison on salary. Fires only when a number is actually
// extractable; otherwise evaluation falls through to later rules.
func (s *Synthesizer) ruleNumericComparison(query string) (string, bool) {
	if !containsAny(query, comparisonWords) {
		return "", false
	}

	n, ok := extractNumber(query)
	if !ok {
		return "", false
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s > %d LIMIT %d",
		r.employeeTable, r.salaryColumn, n, defaultListLimit,
	), true
}

// Rule 10: hire-date queries filter on the year component of the hire column
func (s *Synthesizer) ruleHireDate(query string) (string, bool) {
	if !strings.Contains(query, "hired") && !strings.Contains(query, "joined") {
		return "", false
	}

	year, ok := extractYear(query)
	if !ok {
		if !strings.Contains(query, "this year") {
			return "", false
		}

		year = currentYear()
	}

	r := s.res

	return fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = %d LIMIT %d",
		r.employeeTable, s.yearExpr(r.hireDateColumn), year, defaultListLimit,
	), true
}

// Rule 11: default fallback, an unfiltered listing joined to the department
// table when one was actually discovered
func (s *Synthesizer) fallbackListing() string {
	r := s.res

	if r.deptTableFound {
		return fmt.Sprintf(
			"SELECT e.*, d.%s FROM %s e LEFT JOIN %s d ON e.%s = d.%s LIMIT %d",
			r.deptNameColumn, r.employeeTable, r.departmentTable,
			r.deptForeignKey, r.deptPrimaryKey, defaultListLimit,
		)
	}

	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", r.employeeTable, defaultListLimit)
}

// yearExpr renders the dialect-appropriate year extraction for a date column
func (s *Synthesizer) yearExpr(column string) string {
	if s.model.Dialect == "sqlite" {
		return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", column)
	}

	return fmt.Sprintf("EXTRACT(YEAR FROM %s)", column)
}

func currentYear() int {
	return time.Now().Year()
}

func groupedByDepartment(query string) bool {
	return strings.Contains(query, "by department") || strings.Contains(query, "per department")
}

func containsAny(query string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}

	return false
}
