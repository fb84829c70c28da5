package main

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// maxAttachment caps the size of a single attached file.
const maxAttachment = 256 << 10

// attachments expands patterns against fsys and returns the matched files
// wrapped in <file> tags, in path order. A pattern that matches nothing is an
// error.
func attachments(fsys fs.FS, patterns []string) (string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("attach: invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return "", fmt.Errorf("attach: %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return "", fmt.Errorf("attach: %s: no files match", pattern)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	var b strings.Builder
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return "", fmt.Errorf("attach: %w", err)
		}
		if len(data) > maxAttachment {
			return "", fmt.Errorf("attach: %s: larger than %d bytes", p, maxAttachment)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<file path=%q>\n%s\n</file>", p, strings.TrimRight(string(data), "\n"))
	}
	return b.String(), nil
}
