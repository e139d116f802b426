package diff

import (
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".jsx":   "javascript",
	".go":    "go",
	".rs":    "rust",
	".java":  "java",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".cpp":   "cpp",
	".c":     "c",
	".swift": "swift",
	".kt":    "kotlin",
}

// DetectLanguage maps a file path to a language name by extension,
// case-insensitively. Unrecognized extensions report "unknown".
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return "unknown"
}
