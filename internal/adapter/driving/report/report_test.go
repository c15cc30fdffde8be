package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

func sampleSummary() *model.MaintainerSummary {
	return &model.MaintainerSummary{
		Repo:      "acme/widgets",
		PRNumber:  42,
		PRTitle:   "Add widget rotation API",
		Verdict:   model.MergeNeedsChanges,
		RiskFlags: []string{model.RiskAPISurface},
		ReviewerReviews: []model.ReviewerReview{
			{
				Reviewer:       "alice",
				SummaryBullets: []string{"Touches the public API surface."},
				Comments: []model.ReviewComment{
					{
						Kind: model.KindBlocker,
						Body: "Exported function changed signature without deprecation.",
						File: "pkg/api/widget.go",
						Line: 10,
						Evidence: &model.Evidence{
							Type: model.EvidenceDiff,
							Ref:  "pkg/api/widget.go:10",
						},
						Confidence: 0.9,
					},
				},
				Verdict: model.VerdictRequestChanges,
			},
			{Reviewer: "bob", Verdict: model.VerdictApprove},
		},
		MergedBlockers: []model.ReviewComment{
			{
				Kind: model.KindBlocker,
				Body: "Exported function changed signature without deprecation.",
				File: "pkg/api/widget.go",
				Line: 10,
			},
		},
		Disagreements: []model.Disagreement{
			{
				Type:      model.DisagreementVerdictSplit,
				Approvers: []string{"bob"},
				Rejecters: []string{"alice"},
				Note:      "bob approves while alice requests changes.",
			},
		},
		FixPlan:     []string{"[P0] pkg/api/widget.go: Exported function changed signature without deprecation."},
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleSummary())

	assert.Contains(t, md, "# Review Summary: acme/widgets #42")
	assert.Contains(t, md, "## Verdict: Needs changes (`NEEDS_CHANGES`)")
	assert.Contains(t, md, "`api-surface`")
	assert.Contains(t, md, "## Blockers")
	assert.Contains(t, md, "`pkg/api/widget.go:10`")
	assert.Contains(t, md, "## Fix Plan")
	assert.Contains(t, md, "1. [P0] pkg/api/widget.go")
	assert.Contains(t, md, "| alice | request-changes | 1 |")
	assert.Contains(t, md, "### bob")
}

func TestRenderHTML(t *testing.T) {
	html := RenderHTML("# Title\n\n- **bold** item\n")

	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")

	assert.Empty(t, RenderHTML(""))

	// Script tags never survive sanitization.
	assert.NotContains(t, RenderHTML("hi <script>alert(1)</script>"), "<script>")
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary()

	mdPath, jsonPath, err := WriteOutputs(s, filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out", "review-acme-widgets-pr42.md"), mdPath)
	assert.Equal(t, filepath.Join(dir, "out", "review-acme-widgets-pr42.json"), jsonPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var decoded model.MaintainerSummary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Verdict, decoded.Verdict)
	assert.Len(t, decoded.ReviewerReviews, 2)

	htmlData, err := os.ReadFile(filepath.Join(dir, "out", "review-acme-widgets-pr42.html"))
	require.NoError(t, err)
	assert.Contains(t, string(htmlData), "<h1>")
}

func TestWriteOutputsDiffMode(t *testing.T) {
	s := sampleSummary()
	s.PRNumber = 0

	mdPath, _, err := WriteOutputs(s, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(mdPath), "review-acme-widgets-20260801-120000")
}
