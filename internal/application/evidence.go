// Package application contains the review pipeline: evidence validation,
// per-persona review simulation, and maintainer aggregation, plus the
// supporting services that feed them (mapping, profiling, discovery,
// ingestion).
package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// Confidence values assigned when downgrading comments.
const (
	ConfidenceMissingEvidence = 0.5
	ConfidenceInvalidEvidence = 0.6
	ConfidenceLenientPenalty  = 0.15
)

// Minimum meaningful ref length ("a.py" is 4 chars).
const minRefLength = 2

// Reference-format patterns per evidence type.
var (
	// Diff refs look like "path/file.ext:123", a bare file path, or the
	// "N files changed" aggregate form.
	diffRefWithLine = regexp.MustCompile(`^.+:\d+$`)
	diffRefFileOnly = regexp.MustCompile(`^[^\s:]+\.[a-zA-Z0-9]+$|^\d+ files? changed$`)

	// Doc refs reference a documentation file or a #-anchor section.
	docRefPattern = regexp.MustCompile(`(?i)(\.md|\.rst|\.txt|docs/|README|CONTRIBUTING|CHANGELOG|LICENSE|MAINTAINERS|ADR|design|#[a-zA-Z])`)

	// History refs mention a PR number, commit hash, or discussion.
	historyRefPattern = regexp.MustCompile(`(?i)(pr\s*#?\d+|pull\s*#?\d+|#\d+|commit\s+[0-9a-f]{7,}|[0-9a-f]{7,40}\b|discussion|comment)`)
)

// EvidenceValidationResult is the outcome of validating one Evidence value.
type EvidenceValidationResult struct {
	IsValid bool
	Issues  []string
}

// EvidenceValidator enforces the "no claim without evidence" rule. In strict
// mode both presence and ref format/quality are enforced; invalid or missing
// evidence downgrades the comment to a question. In lenient mode only
// completely missing evidence triggers a downgrade, and malformed evidence
// merely reduces confidence.
//
// All transforms return new values; inputs are never mutated.
type EvidenceValidator struct {
	Strict bool
}

// NewEvidenceValidator returns a validator in the given mode.
func NewEvidenceValidator(strict bool) *EvidenceValidator {
	return &EvidenceValidator{Strict: strict}
}

// ValidateEvidence checks shape, reference format, and basic quality.
func (v *EvidenceValidator) ValidateEvidence(ev model.Evidence) EvidenceValidationResult {
	var issues []string

	trimmed := strings.TrimSpace(ev.Ref)
	if trimmed == "" {
		issues = append(issues, "Evidence ref is empty")
	} else if len(trimmed) < minRefLength {
		issues = append(issues, fmt.Sprintf("Evidence ref %q is too short (min %d chars)", ev.Ref, minRefLength))
	}

	if trimmed != "" {
		issues = append(issues, refIssues(ev.Type, trimmed)...)
	}

	// Diff evidence must carry a code snippet.
	if ev.Type == model.EvidenceDiff && strings.TrimSpace(ev.Snippet) == "" {
		issues = append(issues, "Diff evidence should include a code snippet")
	}

	return EvidenceValidationResult{IsValid: len(issues) == 0, Issues: issues}
}

func refIssues(typ model.EvidenceType, ref string) []string {
	switch typ {
	case model.EvidenceDiff:
		if diffRefWithLine.MatchString(ref) || diffRefFileOnly.MatchString(ref) {
			return nil
		}
		// Freeform refs pass if they contain path-like content.
		if strings.Contains(ref, "/") || strings.Contains(ref, ".") || strings.Contains(strings.ToLower(ref), "file") {
			return nil
		}
		return []string{fmt.Sprintf("Diff ref %q does not look like a file path or path:line reference", ref)}
	case model.EvidenceDoc:
		if docRefPattern.MatchString(ref) {
			return nil
		}
		return []string{fmt.Sprintf("Doc ref %q does not reference a recognizable documentation file or section", ref)}
	case model.EvidenceHistory:
		if historyRefPattern.MatchString(ref) {
			return nil
		}
		return []string{fmt.Sprintf("History ref %q does not reference a PR, commit, or discussion", ref)}
	}
	return nil
}

// ValidateComment returns the comment unchanged when its evidence holds up,
// or a downgraded copy when it does not. Questions are exempt.
func (v *EvidenceValidator) ValidateComment(c model.ReviewComment) model.ReviewComment {
	if c.Kind == model.KindQuestion {
		return c
	}

	if c.Evidence == nil {
		return downgradeToQuestion(c, "Evidence needed", ConfidenceMissingEvidence)
	}

	result := v.ValidateEvidence(*c.Evidence)
	if !result.IsValid {
		if v.Strict {
			return downgradeToQuestion(c, strings.Join(result.Issues, "; "), ConfidenceInvalidEvidence)
		}
		// Lenient: keep the claim, penalize confidence.
		c.Confidence = max(0.1, c.Confidence-ConfidenceLenientPenalty)
		return c
	}

	return c
}

// ValidateComments applies ValidateComment to every element, preserving order.
func (v *EvidenceValidator) ValidateComments(comments []model.ReviewComment) []model.ReviewComment {
	out := make([]model.ReviewComment, len(comments))
	for i, c := range comments {
		out[i] = v.ValidateComment(c)
	}
	return out
}

// ValidateReview returns a copy of the review with all comments validated.
func (v *EvidenceValidator) ValidateReview(r model.ReviewerReview) model.ReviewerReview {
	r.Comments = v.ValidateComments(r.Comments)
	return r
}

// ValidateReviews validates every review in a batch, preserving order.
func (v *EvidenceValidator) ValidateReviews(reviews []model.ReviewerReview) []model.ReviewerReview {
	out := make([]model.ReviewerReview, len(reviews))
	for i, r := range reviews {
		out[i] = v.ValidateReview(r)
	}
	return out
}

func downgradeToQuestion(c model.ReviewComment, reason string, confidence float64) model.ReviewComment {
	c.Kind = model.KindQuestion
	c.Body = "[" + reason + "] " + c.Body
	c.Confidence = confidence
	return c
}
