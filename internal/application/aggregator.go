package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// dedupThreshold is the Jaccard word-set similarity above which two comment
// bodies are treated as the same finding.
const dedupThreshold = 0.5

// maxFixPlanItems caps the fix plan after priority ordering.
const maxFixPlanItems = 15

// MaintainerAggregator merges per-persona reviews into one maintainer
// summary: deduplicated findings, disagreement records, a merge verdict,
// and a prioritized fix plan. It is pure and deterministic over its inputs.
type MaintainerAggregator struct{}

// NewMaintainerAggregator creates an aggregator.
func NewMaintainerAggregator() *MaintainerAggregator {
	return &MaintainerAggregator{}
}

// Aggregate produces the maintainer summary for one change. Input reviews are
// carried through unmodified; only the merged views are deduplicated.
func (a *MaintainerAggregator) Aggregate(ctx model.ChangeContext, reviews []model.ReviewerReview) model.MaintainerSummary {
	var allBlockers, allSuggestions []model.ReviewComment
	for _, review := range reviews {
		for _, comment := range review.Comments {
			if comment.Kind == model.KindBlocker {
				allBlockers = append(allBlockers, comment)
			} else {
				allSuggestions = append(allSuggestions, comment)
			}
		}
	}

	mergedBlockers := deduplicateComments(allBlockers)
	mergedSuggestions := deduplicateComments(allSuggestions)

	return model.MaintainerSummary{
		Repo:              ctx.Repo,
		PRNumber:          ctx.PRNumber,
		PRTitle:           ctx.PRTitle,
		Verdict:           computeMergeVerdict(reviews, mergedBlockers, ctx),
		RiskFlags:         ctx.RiskFlags,
		ReviewerReviews:   reviews,
		MergedBlockers:    mergedBlockers,
		MergedSuggestions: mergedSuggestions,
		Disagreements:     findDisagreements(reviews),
		FixPlan:           buildFixPlan(mergedBlockers, mergedSuggestions),
		GeneratedAt:       time.Now().UTC(),
	}
}

// deduplicateComments drops near-duplicate comments. The first occurrence
// wins; a comment is a duplicate when its lowercased word set has Jaccard
// similarity above dedupThreshold with any already-kept comment.
func deduplicateComments(comments []model.ReviewComment) []model.ReviewComment {
	if len(comments) == 0 {
		return nil
	}

	unique := make([]model.ReviewComment, 0, len(comments))
	seenWordSets := make([]map[string]bool, 0, len(comments))

	for _, comment := range comments {
		words := wordSet(comment.Body)
		isDup := false
		for _, seen := range seenWordSets {
			if len(words) == 0 || len(seen) == 0 {
				continue
			}
			if jaccard(words, seen) > dedupThreshold {
				isDup = true
				break
			}
		}
		if !isDup {
			unique = append(unique, comment)
			seenWordSets = append(seenWordSets, words)
		}
	}
	return unique
}

func wordSet(body string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(body)) {
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// computeMergeVerdict decides merge readiness. Rules apply top to bottom:
// strong rejection signals first, then the unanimous-approval fast path, then
// risk-flag escalation, then residual caution.
func computeMergeVerdict(reviews []model.ReviewerReview, blockers []model.ReviewComment, ctx model.ChangeContext) model.MergeVerdict {
	approvals, rejections := 0, 0
	for _, r := range reviews {
		switch r.Verdict {
		case model.VerdictApprove:
			approvals++
		case model.VerdictRequestChanges:
			rejections++
		}
	}

	if rejections >= 2 || len(blockers) >= 3 {
		return model.MergeNeedsChanges
	}
	if rejections == 0 && len(blockers) == 0 && approvals == len(reviews) {
		return model.MergeReady
	}

	if ctx.HasRiskFlag(model.RiskSecurity) || ctx.HasRiskFlag(model.RiskAPISurface) || ctx.HasRiskFlag(model.RiskCompat) {
		if rejections > 0 || len(blockers) > 0 {
			return model.MergeNeedsChanges
		}
		return model.MergeRisky
	}

	if rejections > 0 || len(blockers) > 0 {
		return model.MergeRisky
	}
	return model.MergeReady
}

// findDisagreements records verdict splits and file contention. Reviewer
// lists keep first-seen order so output is stable across runs.
func findDisagreements(reviews []model.ReviewerReview) []model.Disagreement {
	var disagreements []model.Disagreement

	var approvers, rejecters []string
	for _, r := range reviews {
		switch r.Verdict {
		case model.VerdictApprove:
			approvers = append(approvers, r.Reviewer)
		case model.VerdictRequestChanges:
			rejecters = append(rejecters, r.Reviewer)
		}
	}
	if len(approvers) > 0 && len(rejecters) > 0 {
		disagreements = append(disagreements, model.Disagreement{
			Type:      model.DisagreementVerdictSplit,
			Approvers: approvers,
			Rejecters: rejecters,
			Note:      "Reviewers disagree on merge readiness.",
		})
	}

	type fileComment struct {
		reviewer string
		kind     model.CommentKind
	}
	fileComments := make(map[string][]fileComment)
	var fileOrder []string
	for _, review := range reviews {
		for _, comment := range review.Comments {
			if comment.File == "" {
				continue
			}
			if _, seen := fileComments[comment.File]; !seen {
				fileOrder = append(fileOrder, comment.File)
			}
			fileComments[comment.File] = append(fileComments[comment.File], fileComment{review.Reviewer, comment.Kind})
		}
	}

	for _, path := range fileOrder {
		entries := fileComments[path]
		if len(entries) < 2 {
			continue
		}
		hasBlocker := false
		for _, e := range entries {
			if e.kind == model.KindBlocker {
				hasBlocker = true
				break
			}
		}
		if !hasBlocker {
			continue
		}
		var reviewers []string
		seen := make(map[string]bool)
		for _, e := range entries {
			if !seen[e.reviewer] {
				seen[e.reviewer] = true
				reviewers = append(reviewers, e.reviewer)
			}
		}
		if len(reviewers) < 2 {
			continue
		}
		disagreements = append(disagreements, model.Disagreement{
			Type:      model.DisagreementFileContention,
			File:      path,
			Reviewers: reviewers,
			Note:      fmt.Sprintf("Multiple reviewers have comments on `%s`, including blockers.", path),
		})
	}

	return disagreements
}

// buildFixPlan turns merged findings into a prioritized action list: P0 for
// blockers, P1 for missing tests and docs, P2 for everything else.
func buildFixPlan(blockers, suggestions []model.ReviewComment) []string {
	var plan []string

	for _, b := range blockers {
		fileRef := ""
		if b.File != "" {
			fileRef = fmt.Sprintf(" in `%s`", b.File)
		}
		plan = append(plan, fmt.Sprintf("[P0] %s%s", b.Body, fileRef))
	}

	for _, s := range suggestions {
		switch s.Kind {
		case model.KindMissingTest:
			fileRef := ""
			if s.File != "" {
				fileRef = fmt.Sprintf(" for `%s`", s.File)
			}
			plan = append(plan, fmt.Sprintf("[P1] Add tests%s: %s", fileRef, s.Body))
		case model.KindDocsNeeded:
			plan = append(plan, fmt.Sprintf("[P1] %s", s.Body))
		}
	}

	for _, s := range suggestions {
		if s.Kind != model.KindMissingTest && s.Kind != model.KindDocsNeeded {
			plan = append(plan, fmt.Sprintf("[P2] %s", s.Body))
		}
	}

	if len(plan) > maxFixPlanItems {
		plan = plan[:maxFixPlanItems]
	}
	return plan
}
