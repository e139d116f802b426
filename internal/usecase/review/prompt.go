package review

import (
	"fmt"
	"strings"
)

const baseSystemPrompt = `You are an expert code reviewer. Investigate the submitted change and report every issue you find.

Focus on:
1. Security vulnerabilities (injection, secrets in code, unsafe deserialization, auth flaws)
2. Bugs and logic errors
3. Performance problems
4. Maintainability and readability
5. Error handling gaps

Respond with a JSON object of exactly this shape:
{
  "comments": [
    {
      "line_start": <int>,
      "line_end": <int, optional>,
      "severity": "critical" | "warning" | "suggestion" | "info",
      "category": "security" | "bug" | "performance" | "style" | "best-practice",
      "message": "<what is wrong and why it matters>",
      "suggestion": "<how to fix it, optional>",
      "suggested_code": "<replacement code, optional>"
    }
  ],
  "summary": "<one or two sentences on the overall state of the change>"
}

Report an empty comments list when the change is clean. Do not invent issues.`

// levelInstructions tunes how deep the investigation goes. An unknown or
// empty level gets no extra instruction, which behaves like standard.
var levelInstructions = map[string]string{
	"minimal":  "Report only critical and warning findings. Skip style and minor suggestions.",
	"detailed": "Be thorough. Include style, naming, and documentation findings alongside functional issues.",
}

// SystemPrompt assembles the instruction prompt for the given review level,
// appending project guidelines when any are configured.
func SystemPrompt(level string, guidelines []string) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	if instruction, ok := levelInstructions[level]; ok {
		b.WriteString("\n\n")
		b.WriteString(instruction)
	}

	if len(guidelines) > 0 {
		b.WriteString("\n\nAdditional investigation guidelines:\n")
		for _, g := range guidelines {
			b.WriteString("- ")
			b.WriteString(g)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// UserPrompt renders one file change for the model. Full-content changes
// send the file body; diff-only changes send the diff text.
func UserPrompt(path, language, content, diffText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nLanguage: %s\n\n", path, language)
	if content != "" {
		fmt.Fprintf(&b, "Content:\n```\n%s\n```", content)
	} else {
		fmt.Fprintf(&b, "Diff:\n```\n%s\n```", diffText)
	}
	return b.String()
}
