// Package nlsql turns natural-language query text into classified intent and
// schema-aware SQL.
package nlsql

import "strings"

// QueryType is the classified intent of a natural-language query
type QueryType string

const (
	QueryTypeSQL      QueryType = "sql"
	QueryTypeDocument QueryType = "document"
	QueryTypeHybrid   QueryType = "hybrid"
)

var sqlKeywords = []string{
	"how many", "count", "average", "sum", "total", "list",
	"show", "display", "find", "get", "salary", "department",
	"hired", "employees", "staff",
}

var documentKeywords = []string{
	"resume", "cv", "document", "file", "review", "performance",
	"feedback", "skills", "experience", "qualification",
}

// Classify maps query text onto sql, document, or hybrid intent by counting
// keyword hits from two fixed sets. Matching is substring containment, so a
// keyword inside a longer word still counts. SQL is the default when nothing
// matches. Total over all inputs, never errors.
func Classify(query string) QueryType {
	lower := strings.ToLower(query)

	var sqlHits, docHits int

	for _, kw := range sqlKeywords {
		if strings.Contains(lower, kw) {
			sqlHits++
		}
	}

	for _, kw := range documentKeywords {
		if strings.Contains(lower, kw) {
			docHits++
		}
	}

	switch {
	case sqlHits > 0 && docHits > 0:
		return QueryTypeHybrid
	case docHits > 0:
		return QueryTypeDocument
	default:
		return QueryTypeSQL
	}
}
