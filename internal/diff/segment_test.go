package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFileDiff = `diff --git a/src/main.py b/src/main.py
index 1111111..2222222 100644
--- a/src/main.py
+++ b/src/main.py
@@ -1,3 +1,4 @@
 import os
+import sys

 def main():
diff --git a/README.md b/README.md
index 3333333..4444444 100644
--- a/README.md
+++ b/README.md
@@ -1,2 +1,1 @@
-old title
-subtitle
+new title
`

func TestSegment_TwoFiles(t *testing.T) {
	changes := Segment(twoFileDiff)

	require.Len(t, changes, 2)

	assert.Equal(t, "src/main.py", changes[0].Path)
	assert.Equal(t, "python", changes[0].Language)
	assert.Contains(t, changes[0].Diff, "diff --git a/src/main.py")
	assert.Contains(t, changes[0].Diff, "+import sys")
	assert.NotContains(t, changes[0].Diff, "README")
	assert.Equal(t, 1, changes[0].AddedLines)
	assert.Equal(t, 0, changes[0].RemovedLines)

	assert.Equal(t, "README.md", changes[1].Path)
	assert.Equal(t, "unknown", changes[1].Language)
	assert.Equal(t, 1, changes[1].AddedLines)
	assert.Equal(t, 2, changes[1].RemovedLines)
}

func TestSegment_DiscardsPreamble(t *testing.T) {
	changes := Segment("commit 0a1b2c\nAuthor: someone\n\n" + twoFileDiff)

	require.Len(t, changes, 2)
	assert.NotContains(t, changes[0].Diff, "Author:")
}

func TestSegment_NoHeaders(t *testing.T) {
	assert.Empty(t, Segment("just some text\nwith no diff headers\n"))
	assert.Empty(t, Segment(""))
}

func TestSegment_HeaderWithoutPath(t *testing.T) {
	changes := Segment("diff --git\n+content\n")

	require.Len(t, changes, 1)
	assert.Equal(t, "", changes[0].Path)
	assert.Equal(t, "unknown", changes[0].Language)
}

func TestSegment_FileMarkersNotCountedAsChanges(t *testing.T) {
	changes := Segment(twoFileDiff)

	require.Len(t, changes, 2)
	// "--- a/..." and "+++ b/..." are headers, not removals or additions.
	assert.Equal(t, 1, changes[0].AddedLines)
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"app/models.py":    "python",
		"web/index.jsx":    "javascript",
		"web/App.TSX":      "typescript",
		"cmd/main.go":      "go",
		"lib/parse.rs":     "rust",
		"Server.java":      "java",
		"tool.rb":          "ruby",
		"site.php":         "php",
		"Program.cs":       "csharp",
		"engine.cpp":       "cpp",
		"boot.c":           "c",
		"View.swift":       "swift",
		"Main.kt":          "kotlin",
		"Makefile":         "unknown",
		"notes.txt":        "unknown",
		"":                 "unknown",
		"dir.py/file.lock": "unknown",
	}
	for path, want := range cases {
		assert.Equal(t, want, DetectLanguage(path), path)
	}
}
