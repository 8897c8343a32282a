package nlsql

import "strings"

// deniedSQLTokens are the mutating/DDL keywords and comment markers that must
// never appear in generated SQL. Templates never emit them, so a hit here
// indicates a template bug, not user input leaking through.
var deniedSQLTokens = []string{
	"DROP", "DELETE", "TRUNCATE", "UPDATE",
	"INSERT", "ALTER", "CREATE", "EXEC",
	"EXECUTE", "SCRIPT", "--", "/*", "*/",
}

// ValidateSQL reports whether the SQL string is safe to execute. The check is
// a case-folded substring scan of the denylist, a defense-in-depth backstop
// behind the template discipline.
func ValidateSQL(sqlString string) bool {
	upper := strings.ToUpper(sqlString)

	for _, token := range deniedSQLTokens {
		if strings.Contains(upper, token) {
			return false
		}
	}

	return true
}
