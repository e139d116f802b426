package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	"github.com/benno-ai/benno/internal/domain"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounded by prose", input: `noise {"a":1} noise`, want: `{"a":1}`},
		{name: "nested object", input: `prefix {"a":{"b":1}} suffix`, want: `{"a":{"b":1}}`},
		{name: "no json", input: `no json`, want: `{}`},
		{name: "empty input", input: ``, want: `{}`},
		{name: "unclosed object", input: `{"a":1`, want: `{}`},
		{name: "deeply nested", input: `x {"a":{"b":{"c":{}}}} y`, want: `{"a":{"b":{"c":{}}}}`},
		{name: "trailing second object ignored", input: `{"a":1} {"b":2}`, want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.ExtractJSONObject(tt.input))
		})
	}
}

func TestParseComments_ValidEnvelope(t *testing.T) {
	raw := `{
		"comments": [
			{
				"line_start": 10,
				"line_end": 12,
				"severity": "critical",
				"category": "security",
				"message": "SQL injection via string concatenation",
				"suggestion": "Use parameterized queries",
				"suggested_code": "db.Query(q, args...)"
			},
			{
				"line_start": 3,
				"severity": "warning",
				"category": "performance",
				"message": "Query inside loop"
			}
		]
	}`

	comments := llm.ParseComments(raw, "src/db.go")
	require.Len(t, comments, 2)

	assert.Equal(t, "src/db.go", comments[0].FilePath)
	assert.Equal(t, 10, comments[0].LineStart)
	assert.Equal(t, 12, comments[0].LineEnd)
	assert.Equal(t, domain.SeverityCritical, comments[0].Severity)
	assert.Equal(t, "security", comments[0].Category)
	assert.Equal(t, "Use parameterized queries", comments[0].Suggestion)
	assert.Equal(t, "db.Query(q, args...)", comments[0].SuggestedCode)

	assert.Equal(t, 0, comments[1].LineEnd)
	assert.Equal(t, "3", comments[1].LineRange())
}

func TestParseComments_NotJSON(t *testing.T) {
	assert.Empty(t, llm.ParseComments("I could not find any issues in this file.", "a.go"))
}

func TestParseComments_WrongEnvelope(t *testing.T) {
	assert.Empty(t, llm.ParseComments(`{"findings": [{"message": "x"}]}`, "a.go"))
}

func TestParseComments_UnknownSeverityDropsOnlyThatComment(t *testing.T) {
	raw := `{"comments": [
		{"line_start": 1, "severity": "blocker", "message": "dropped"},
		{"line_start": 2, "severity": "warning", "message": "kept"}
	]}`

	comments := llm.ParseComments(raw, "a.go")
	require.Len(t, comments, 1)
	assert.Equal(t, "kept", comments[0].Message)
	assert.Equal(t, domain.SeverityWarning, comments[0].Severity)
}

func TestParseComments_Defaults(t *testing.T) {
	raw := `{"comments": [{"message": "needs a docstring"}]}`

	comments := llm.ParseComments(raw, "a.go")
	require.Len(t, comments, 1)
	assert.Equal(t, 1, comments[0].LineStart)
	assert.Equal(t, domain.SeveritySuggestion, comments[0].Severity)
	assert.Equal(t, "best-practice", comments[0].Category)
}

func TestParseComments_InvalidEntriesDropped(t *testing.T) {
	raw := `{"comments": [
		{"line_start": -4, "message": "negative start"},
		{"line_start": 8, "line_end": 5, "message": "end before start"},
		{"line_start": 2, "severity": "info"},
		{"line_start": 9, "message": "valid"}
	]}`

	comments := llm.ParseComments(raw, "a.go")
	require.Len(t, comments, 1)
	assert.Equal(t, "valid", comments[0].Message)
}

func TestParseComments_ExtraEnvelopeFieldsIgnored(t *testing.T) {
	raw := `{"comments": [{"line_start": 3, "message": "ok"}], "summary": "looks fine"}`

	comments := llm.ParseComments(raw, "a.go")
	require.Len(t, comments, 1)
	assert.Equal(t, "ok", comments[0].Message)
}
