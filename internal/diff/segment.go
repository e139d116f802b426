package diff

import (
	"strings"

	"github.com/benno-ai/benno/internal/domain"
)

const fileHeaderPrefix = "diff --git"

// Segment splits a multi-file unified diff into one FileChange per file.
//
// A line beginning with "diff --git" opens a new unit; every following line
// up to the next header belongs to that unit, including the header itself.
// Text before the first header is discarded. Input with no headers at all
// yields an empty slice.
//
// The file path is taken from the header's " b/" marker. A header without
// one produces a unit with an empty path; callers decide whether to skip it.
func Segment(unified string) []domain.FileChange {
	if unified == "" {
		return nil
	}

	var changes []domain.FileChange
	var current []string
	currentPath := ""
	inUnit := false

	flush := func() {
		if !inUnit {
			return
		}
		text := strings.Join(current, "\n")
		added, removed := countChangedLines(current)
		changes = append(changes, domain.FileChange{
			Path:         currentPath,
			Diff:         text,
			Language:     DetectLanguage(currentPath),
			AddedLines:   added,
			RemovedLines: removed,
		})
	}

	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, fileHeaderPrefix) {
			flush()
			current = []string{line}
			currentPath = headerPath(line)
			inUnit = true
			continue
		}
		if inUnit {
			current = append(current, line)
		}
	}
	flush()

	return changes
}

// headerPath extracts the new-side path from a "diff --git a/x b/x" header.
func headerPath(header string) string {
	idx := strings.Index(header, " b/")
	if idx < 0 {
		return ""
	}
	return header[idx+len(" b/"):]
}

// countChangedLines tallies additions and removals in a unit, ignoring the
// +++/--- file markers.
func countChangedLines(lines []string) (added, removed int) {
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
