package diff

import (
	"strconv"
	"strings"
)

// LineKind classifies a hunk line.
type LineKind int

const (
	// KindContext is an unchanged line.
	KindContext LineKind = iota
	// KindAddition is a line added on the new side.
	KindAddition
	// KindRemoval is a line present only on the old side.
	KindRemoval
)

// HunkLine is one line inside an @@ hunk. NewLine is the line number on the
// new side of the file, or 0 for removals. Position counts every line after
// the first hunk header, 1-indexed and including later @@ lines, the way the
// GitHub review API anchors inline comments.
type HunkLine struct {
	Kind     LineKind
	Content  string
	NewLine  int
	Position int
}

// Hunk is a single @@ section of a unified diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []HunkLine
}

// FilePatch is the parsed hunk structure of a single file's diff.
type FilePatch struct {
	Hunks []Hunk
}

// ParsePatch parses one file's unified diff text. File headers and
// "\ No newline" markers are skipped; malformed hunk headers are ignored
// rather than failing the whole patch.
func ParsePatch(patch string) FilePatch {
	var fp FilePatch
	if patch == "" {
		return fp
	}

	var current *Hunk
	position := 0
	newLine := 0
	seenHeader := false

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case line == "",
			strings.HasPrefix(line, fileHeaderPrefix),
			strings.HasPrefix(line, "index "),
			strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "+++ "),
			strings.HasPrefix(line, "\\ "):
			continue
		case strings.HasPrefix(line, "@@"):
			if current != nil {
				fp.Hunks = append(fp.Hunks, *current)
			}
			// Every header after the first occupies a position of its own.
			if seenHeader {
				position++
			}
			seenHeader = true
			h, ok := parseHunkHeader(line)
			if !ok {
				current = nil
				continue
			}
			current = &h
			newLine = h.NewStart
			continue
		}

		if current == nil {
			continue
		}

		position++
		hl := HunkLine{Position: position, Content: line, Kind: KindContext}
		switch line[0] {
		case '+':
			hl.Kind = KindAddition
			hl.Content = line[1:]
			hl.NewLine = newLine
			newLine++
		case '-':
			hl.Kind = KindRemoval
			hl.Content = line[1:]
		case ' ':
			hl.Content = line[1:]
			hl.NewLine = newLine
			newLine++
		default:
			hl.NewLine = newLine
			newLine++
		}
		current.Lines = append(current.Lines, hl)
	}

	if current != nil {
		fp.Hunks = append(fp.Hunks, *current)
	}
	return fp
}

// FindPosition maps a new-side line number to its diff position. The second
// return is false when the line does not appear in the patch, which covers
// removals, lines outside every hunk, and non-positive input.
func (fp FilePatch) FindPosition(newLine int) (int, bool) {
	if newLine <= 0 {
		return 0, false
	}
	for _, h := range fp.Hunks {
		for _, l := range h.Lines {
			if l.NewLine == newLine {
				return l.Position, true
			}
		}
	}
	return 0, false
}

// parseHunkHeader reads "@@ -old,count +new,count @@ context".
func parseHunkHeader(line string) (Hunk, bool) {
	parts := strings.Split(line, "@@")
	if len(parts) < 2 {
		return Hunk{}, false
	}

	var h Hunk
	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		switch {
		case strings.HasPrefix(field, "-"):
			h.OldStart, h.OldCount = parseRange(field[1:])
		case strings.HasPrefix(field, "+"):
			h.NewStart, h.NewCount = parseRange(field[1:])
		}
	}
	return h, true
}

// parseRange reads "start,count" or bare "start" (count defaults to 1).
func parseRange(s string) (start, count int) {
	if idx := strings.Index(s, ","); idx >= 0 {
		start, _ = strconv.Atoi(s[:idx])
		count, _ = strconv.Atoi(s[idx+1:])
		return start, count
	}
	start, _ = strconv.Atoi(s)
	return start, 1
}
