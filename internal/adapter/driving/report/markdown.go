package report

import (
	"fmt"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

var verdictHeadlines = map[model.MergeVerdict]string{
	model.MergeReady:        "Ready to merge",
	model.MergeNeedsChanges: "Needs changes",
	model.MergeRisky:        "Risky, merge with caution",
}

// RenderMarkdown formats a maintainer summary as a GitHub-flavored
// markdown report.
func RenderMarkdown(s *model.MaintainerSummary) string {
	var b strings.Builder

	if s.PRNumber > 0 {
		fmt.Fprintf(&b, "# Review Summary: %s #%d\n\n", s.Repo, s.PRNumber)
	} else {
		fmt.Fprintf(&b, "# Review Summary: %s\n\n", s.Repo)
	}
	if s.PRTitle != "" {
		fmt.Fprintf(&b, "**%s**\n\n", s.PRTitle)
	}

	headline := verdictHeadlines[s.Verdict]
	if headline == "" {
		headline = string(s.Verdict)
	}
	fmt.Fprintf(&b, "## Verdict: %s (`%s`)\n\n", headline, s.Verdict)

	if len(s.RiskFlags) > 0 {
		b.WriteString("Risk flags: ")
		for i, f := range s.RiskFlags {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%s`", f)
		}
		b.WriteString("\n\n")
	}

	if len(s.MergedBlockers) > 0 {
		b.WriteString("## Blockers\n\n")
		for _, c := range s.MergedBlockers {
			writeComment(&b, c)
		}
		b.WriteString("\n")
	}

	if len(s.MergedSuggestions) > 0 {
		b.WriteString("## Suggestions\n\n")
		for _, c := range s.MergedSuggestions {
			writeComment(&b, c)
		}
		b.WriteString("\n")
	}

	if len(s.Disagreements) > 0 {
		b.WriteString("## Disagreements\n\n")
		for _, d := range s.Disagreements {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.Type, d.Note)
		}
		b.WriteString("\n")
	}

	if len(s.FixPlan) > 0 {
		b.WriteString("## Fix Plan\n\n")
		for i, item := range s.FixPlan {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Reviewer Breakdown\n\n")
	b.WriteString("| Reviewer | Verdict | Comments |\n")
	b.WriteString("|----------|---------|----------|\n")
	for _, r := range s.ReviewerReviews {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", r.Reviewer, r.Verdict, len(r.Comments))
	}
	b.WriteString("\n")

	for _, r := range s.ReviewerReviews {
		fmt.Fprintf(&b, "### %s\n\n", r.Reviewer)
		for _, bullet := range r.SummaryBullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		if len(r.SummaryBullets) > 0 {
			b.WriteString("\n")
		}
		for _, c := range r.Comments {
			writeComment(&b, c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n\nGenerated at %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	return b.String()
}

func writeComment(b *strings.Builder, c model.ReviewComment) {
	loc := ""
	if c.File != "" {
		if c.Line > 0 {
			loc = fmt.Sprintf(" (`%s:%d`)", c.File, c.Line)
		} else {
			loc = fmt.Sprintf(" (`%s`)", c.File)
		}
	}
	fmt.Fprintf(b, "- **[%s]**%s %s\n", c.Kind, loc, c.Body)
	if c.Evidence != nil {
		fmt.Fprintf(b, "  - evidence (%s): %s\n", c.Evidence.Type, c.Evidence.Ref)
	}
}
