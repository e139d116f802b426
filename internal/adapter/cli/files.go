package cli

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/benno-ai/benno/internal/diff"
	"github.com/benno-ai/benno/internal/domain"
)

// binarySniffLen bounds how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// collectFiles expands the investigate arguments into file changes.
// Directories are walked recursively; dotted directories (.git and friends)
// are skipped, and binary files are reported back rather than reviewed.
func collectFiles(paths []string) ([]domain.FileChange, []string, error) {
	var changes []domain.FileChange
	var skipped []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			change, ok, err := loadFile(p)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				skipped = append(skipped, p)
				continue
			}
			changes = append(changes, change)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); strings.HasPrefix(name, ".") && path != p {
					return filepath.SkipDir
				}
				return nil
			}
			change, ok, err := loadFile(path)
			if err != nil {
				return err
			}
			if !ok {
				skipped = append(skipped, path)
				return nil
			}
			changes = append(changes, change)
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	return changes, skipped, nil
}

// loadFile reads one file; ok is false for binary content.
func loadFile(path string) (domain.FileChange, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.FileChange{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	if looksBinary(raw) {
		return domain.FileChange{}, false, nil
	}
	return domain.FileChange{
		Path:     path,
		Content:  string(raw),
		Language: diff.DetectLanguage(path),
	}, true, nil
}

// looksBinary applies git's heuristic: a NUL byte near the start means the
// file is not text.
func looksBinary(raw []byte) bool {
	sniff := raw
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}
