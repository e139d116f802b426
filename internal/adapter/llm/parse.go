package llm

import (
	"encoding/json"

	"github.com/benno-ai/benno/internal/domain"
)

// ExtractJSONObject locates the first JSON object embedded in free-form model
// output. It scans from the first '{' tracking raw brace depth and returns the
// substring that closes it; with no opening brace it returns "{}".
//
// Braces inside string values are not accounted for. That can truncate an
// object whose strings contain unbalanced braces, which is acceptable here:
// the caller treats any unparsable result as zero findings.
func ExtractJSONObject(text string) string {
	start := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return "{}"
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return "{}"
}

// commentPayload mirrors one entry of the reply envelope's "comments" array.
// Severity is a pointer so a missing field (default to suggestion) can be
// told apart from a present-but-invalid one (drop the comment).
type commentPayload struct {
	LineStart     int     `json:"line_start"`
	LineEnd       int     `json:"line_end"`
	Severity      *string `json:"severity"`
	Category      string  `json:"category"`
	Message       string  `json:"message"`
	Suggestion    string  `json:"suggestion"`
	SuggestedCode string  `json:"suggested_code"`
}

// The envelope also carries a "summary" field; the orchestrator builds its
// own run summary from severity counts, so it is not decoded here.
type replyEnvelope struct {
	Comments []commentPayload `json:"comments"`
}

// ParseComments converts a backend reply into domain comments for filePath.
//
// The policy is best-effort lossy-tolerant: a reply that is not the expected
// envelope yields zero comments, never an error. Within a valid envelope each
// entry is mapped independently; an entry with an unknown severity, an empty
// message, a non-positive start line, or an end line before the start line is
// dropped without affecting its siblings. Missing severity defaults to
// suggestion, missing category to best-practice.
func ParseComments(raw string, filePath string) []domain.Comment {
	var envelope replyEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil
	}

	comments := make([]domain.Comment, 0, len(envelope.Comments))
	for _, item := range envelope.Comments {
		severity := domain.SeveritySuggestion
		if item.Severity != nil {
			parsed, err := domain.ParseSeverity(*item.Severity)
			if err != nil {
				continue
			}
			severity = parsed
		}

		lineStart := item.LineStart
		if lineStart == 0 {
			lineStart = 1
		}
		if lineStart < 0 {
			continue
		}
		if item.LineEnd != 0 && item.LineEnd < lineStart {
			continue
		}
		if item.Message == "" {
			continue
		}

		category := item.Category
		if category == "" {
			category = "best-practice"
		}

		comments = append(comments, domain.Comment{
			FilePath:      filePath,
			LineStart:     lineStart,
			LineEnd:       item.LineEnd,
			Severity:      severity,
			Category:      category,
			Message:       item.Message,
			Suggestion:    item.Suggestion,
			SuggestedCode: item.SuggestedCode,
		})
	}

	return comments
}
