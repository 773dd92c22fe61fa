package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/strrl/llm-code/internal/pipeline"
)

// readInputs expands each glob (with ** support) and reads the matching
// files. Order follows the patterns, then the lexical order of matches;
// a file matched twice is read once.
func readInputs(patterns []string) ([]pipeline.FileInput, error) {
	var (
		files []pipeline.FileInput
		seen  = make(map[string]struct{})
	)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, usageError("invalid input glob %q: %v", pattern, err)
		}
		sort.Strings(matches)

		matched := 0
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", match, err)
			}
			if info.IsDir() {
				continue
			}
			matched++

			key := filepath.Clean(match)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			data, err := os.ReadFile(match)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", match, err)
			}
			files = append(files, pipeline.FileInput{Name: filepath.ToSlash(match), Content: string(data)})
		}

		if matched == 0 {
			return nil, usageError("no files match %q", pattern)
		}
	}

	return files, nil
}
