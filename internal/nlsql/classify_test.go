package nlsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  QueryType
	}{
		{"count only", "how many employees are there", QueryTypeSQL},
		{"document only", "find the resume for alice", QueryTypeDocument},
		{"both sets", "count resumes mentioning python", QueryTypeHybrid},
		{"neither set defaults to sql", "weather tomorrow", QueryTypeSQL},
		{"empty input", "", QueryTypeSQL},
		{"substring containment counts", "discvoery", QueryTypeDocument},
		{"keyword inside longer word", "recover my cv", QueryTypeDocument},
		{"mixed case", "Show ALL Performance REVIEWS", QueryTypeHybrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

// Classify must return one of the three types for any input, including
// garbage. It has no error path.
func TestClassifyTotality(t *testing.T) {
	inputs := []string{
		"", " ", "\x00\xff", "SELECT * FROM x; DROP TABLE y",
		"ħełłø wörłd", "1234567890",
	}

	for _, in := range inputs {
		got := Classify(in)
		assert.Contains(t, []QueryType{QueryTypeSQL, QueryTypeDocument, QueryTypeHybrid}, got)
	}
}
