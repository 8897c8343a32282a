// Package formatter renders query results, schemas, and cache statistics for
// terminal output.
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mkoster/querylens/internal/cache"
	"github.com/mkoster/querylens/internal/database"
	"github.com/mkoster/querylens/internal/document"
	"github.com/mkoster/querylens/internal/engine"
	"github.com/mkoster/querylens/internal/schema"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatPlain OutputFormat = "plain"
)

const maxCellWidth = 40

// Formatter handles result output formatting
type Formatter struct {
	format OutputFormat
}

// NewFormatter creates a new formatter instance
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// FormatResult renders an engine result: the SQL table, document matches, or
// both for hybrid queries.
func (f *Formatter) FormatResult(result *engine.Result) string {
	var sections []string

	if result.GeneratedSQL != "" {
		sections = append(sections, "SQL: "+result.GeneratedSQL)
	}

	if result.SQLResults != nil {
		sections = append(sections, f.FormatResultSet(result.SQLResults))
	}

	if len(result.DocumentResults) > 0 {
		sections = append(sections, f.FormatDocumentResults(result.DocumentResults))
	}

	if result.SQLResults == nil && len(result.DocumentResults) == 0 {
		sections = append(sections, "No results.")
	}

	footer := fmt.Sprintf("(%dms", result.ElapsedMs)
	if result.CacheHit {
		footer += ", cached"
	}

	footer += ")"
	sections = append(sections, footer)

	return strings.Join(sections, "\n\n")
}

// FormatResultSet renders a result set as an aligned text table
func (f *Formatter) FormatResultSet(rs *database.ResultSet) string {
	if len(rs.Columns) == 0 {
		return "No rows."
	}

	widths := make([]int, len(rs.Columns))
	for i, col := range rs.Columns {
		widths[i] = len(col)
	}

	cells := make([][]string, len(rs.Rows))

	for i, row := range rs.Rows {
		cells[i] = make([]string, len(rs.Columns))

		for j := range rs.Columns {
			var text string
			if j < len(row) {
				text = formatValue(row[j])
			}

			if len(text) > maxCellWidth {
				text = text[:maxCellWidth-3] + "..."
			}

			cells[i][j] = text

			if len(text) > widths[j] {
				widths[j] = len(text)
			}
		}
	}

	var b strings.Builder

	writeRow := func(values []string) {
		for j, v := range values {
			if j > 0 {
				b.WriteString("  ")
			}

			b.WriteString(v)
			b.WriteString(strings.Repeat(" ", widths[j]-len(v)))
		}

		b.WriteString("\n")
	}

	writeRow(rs.Columns)

	separators := make([]string, len(rs.Columns))
	for j := range rs.Columns {
		separators[j] = strings.Repeat("-", widths[j])
	}

	writeRow(separators)

	for _, row := range cells {
		writeRow(row)
	}

	b.WriteString(fmt.Sprintf("(%d rows)", len(rs.Rows)))

	return b.String()
}

// FormatDocumentResults renders ranked document matches
func (f *Formatter) FormatDocumentResults(results []document.SearchResult) string {
	if len(results) == 0 {
		return "No matching documents."
	}

	var b strings.Builder

	b.WriteString("Document matches:\n")

	for i, r := range results {
		b.WriteString(fmt.Sprintf("%d. %s (score %.3f)\n   %s\n",
			i+1, r.SourceName, r.RelevanceScore, r.Excerpt))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatSchema renders the discovered schema model
func (f *Formatter) FormatSchema(model *schema.Model) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Schema (%s): %d tables\n", model.Dialect, len(model.Tables)))

	tables := make([]schema.TableInfo, len(model.Tables))
	copy(tables, model.Tables)
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	for _, table := range tables {
		b.WriteString(fmt.Sprintf("\n%s (%s, %d rows)\n",
			table.Name, table.SemanticType, table.RowCount))

		for _, col := range table.Columns {
			var marks []string
			if col.IsPrimaryKey {
				marks = append(marks, "PK")
			}

			if col.ForeignKey != nil {
				marks = append(marks, fmt.Sprintf("FK -> %s.%s",
					col.ForeignKey.Table, col.ForeignKey.Column))
			}

			suffix := ""
			if len(marks) > 0 {
				suffix = "  [" + strings.Join(marks, ", ") + "]"
			}

			b.WriteString(fmt.Sprintf("  %-24s %-12s %s%s\n",
				col.Name, col.DataType, col.SemanticType, suffix))
		}
	}

	if len(model.Relationships) > 0 {
		b.WriteString("\nRelationships:\n")

		for _, rel := range model.Relationships {
			b.WriteString(fmt.Sprintf("  %s.%s -> %s.%s (%s)\n",
				rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn, rel.Kind))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatCacheStats renders cache statistics
func (f *Formatter) FormatCacheStats(stats cache.Stats) string {
	lines := []string{
		fmt.Sprintf("Total queries:     %d", stats.TotalQueries),
		fmt.Sprintf("Cache hits:        %d", stats.Hits),
		fmt.Sprintf("Cache misses:      %d", stats.Misses),
		fmt.Sprintf("Hit rate:          %.1f%%", stats.HitRate),
		fmt.Sprintf("Evictions:         %d", stats.Evictions),
		fmt.Sprintf("Entries:           %d/%d", stats.CurrentSize, stats.MaxSize),
		fmt.Sprintf("TTL:               %ds", stats.TTLSeconds),
		fmt.Sprintf("Avg response time: %.1fms", stats.AvgResponseTime),
	}

	return strings.Join(lines, "\n")
}

// formatValue renders a single cell. Byte slices were already decoded by the
// executor, so only scalar driver types remain.
func formatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}

		return fmt.Sprintf("%.2f", value)
	case string:
		return value
	default:
		return fmt.Sprintf("%v", value)
	}
}
