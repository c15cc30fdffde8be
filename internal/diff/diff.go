// Package diff parses unified diff text into changed-file records.
package diff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// ParseChangedFiles parses a unified diff into per-file change records with
// reconstructed per-file patches, matching the shape the GitHub files API
// returns. Binary files carry an empty patch.
func ParseChangedFiles(raw string) ([]model.ChangedFile, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	files := make([]model.ChangedFile, 0, len(parsed))
	for _, f := range parsed {
		cf := model.ChangedFile{Path: fileName(f)}

		var patch strings.Builder
		for _, frag := range f.TextFragments {
			patch.WriteString(frag.Header())
			patch.WriteByte('\n')
			for _, line := range frag.Lines {
				patch.WriteString(line.String())
				switch line.Op {
				case gitdiff.OpAdd:
					cf.Additions++
				case gitdiff.OpDelete:
					cf.Deletions++
				}
			}
		}
		cf.Patch = strings.TrimRight(patch.String(), "\n")

		files = append(files, cf)
	}
	return files, nil
}

// fileName picks the post-change path, falling back to the old path for
// deletions.
func fileName(f *gitdiff.File) string {
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}
