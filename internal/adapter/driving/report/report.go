// Package report renders maintainer summaries to markdown, JSON, and
// HTML files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// WriteOutputs writes markdown, JSON, and HTML renderings of the summary
// into outputDir, creating it if needed. Returns the markdown and JSON
// paths.
func WriteOutputs(s *model.MaintainerSummary, outputDir string) (mdPath, jsonPath string, err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	base := baseName(s)
	mdPath = filepath.Join(outputDir, base+".md")
	jsonPath = filepath.Join(outputDir, base+".json")
	htmlPath := filepath.Join(outputDir, base+".html")

	md := RenderMarkdown(s)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write json report: %w", err)
	}

	if err := os.WriteFile(htmlPath, []byte(RenderHTML(md)), 0o644); err != nil {
		return "", "", fmt.Errorf("write html report: %w", err)
	}

	return mdPath, jsonPath, nil
}

func baseName(s *model.MaintainerSummary) string {
	repo := strings.ReplaceAll(s.Repo, "/", "-")
	if s.PRNumber > 0 {
		return fmt.Sprintf("review-%s-pr%d", repo, s.PRNumber)
	}
	return fmt.Sprintf("review-%s-%s", repo, s.GeneratedAt.Format("20060102-150405"))
}
