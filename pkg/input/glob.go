package input

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ExpandGlobs expands a list of file paths and glob patterns into a deduplicated,
// sorted list of paths. Patterns that don't match any files are returned as-is
// so that opening them reports a useful error. StdinName is kept in place and
// only once, ahead of the expanded files.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	stdin := false

	for _, pattern := range patterns {
		if pattern == StdinName {
			stdin = true
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				files = append(files, match)
			}
		}
	}

	sort.Strings(files)

	if stdin {
		files = append([]string{StdinName}, files...)
	}
	return files, nil
}
