package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

func TestValidateEvidenceDiffRefs(t *testing.T) {
	v := NewEvidenceValidator(true)

	cases := []struct {
		ref     string
		snippet string
		valid   bool
	}{
		{"pkg/api/widget.go:42", "w.Rotate()", true},
		{"pkg/api/widget.go", "w.Rotate()", true},
		{"3 files changed", "x", true},
		{"1 file changed", "x", true},
		{"somewhere", "x", false},
		{"pkg/api/widget.go:42", "", false}, // diff evidence needs a snippet
		{"", "x", false},
	}
	for _, tc := range cases {
		got := v.ValidateEvidence(model.Evidence{Type: model.EvidenceDiff, Ref: tc.ref, Snippet: tc.snippet})
		assert.Equal(t, tc.valid, got.IsValid, "ref=%q snippet=%q issues=%v", tc.ref, tc.snippet, got.Issues)
	}
}

func TestValidateEvidenceDocAndHistoryRefs(t *testing.T) {
	v := NewEvidenceValidator(true)

	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceDoc, Ref: "docs/api.md"}).IsValid)
	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceDoc, Ref: "CONTRIBUTING"}).IsValid)
	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceDoc, Ref: "guide#error-handling"}).IsValid)
	assert.False(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceDoc, Ref: "somewhere else"}).IsValid)

	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceHistory, Ref: "PR #1234"}).IsValid)
	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceHistory, Ref: "commit abc1234"}).IsValid)
	assert.True(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceHistory, Ref: "see discussion"}).IsValid)
	assert.False(t, v.ValidateEvidence(model.Evidence{Type: model.EvidenceHistory, Ref: "trust me"}).IsValid)
}

func TestValidateCommentMissingEvidence(t *testing.T) {
	v := NewEvidenceValidator(true)

	got := v.ValidateComment(model.ReviewComment{
		Kind:       model.KindBlocker,
		Body:       "This breaks the API.",
		Confidence: 0.9,
	})

	assert.Equal(t, model.KindQuestion, got.Kind)
	assert.Equal(t, "[Evidence needed] This breaks the API.", got.Body)
	assert.Equal(t, ConfidenceMissingEvidence, got.Confidence)
}

func TestValidateCommentInvalidEvidenceStrict(t *testing.T) {
	v := NewEvidenceValidator(true)

	got := v.ValidateComment(model.ReviewComment{
		Kind:       model.KindBlocker,
		Body:       "Bad change.",
		Evidence:   &model.Evidence{Type: model.EvidenceHistory, Ref: "trust me"},
		Confidence: 0.9,
	})

	assert.Equal(t, model.KindQuestion, got.Kind)
	assert.Equal(t, ConfidenceInvalidEvidence, got.Confidence)
	assert.Contains(t, got.Body, "Bad change.")
}

func TestValidateCommentInvalidEvidenceLenient(t *testing.T) {
	v := NewEvidenceValidator(false)

	got := v.ValidateComment(model.ReviewComment{
		Kind:       model.KindSuggestion,
		Body:       "Consider renaming.",
		Evidence:   &model.Evidence{Type: model.EvidenceHistory, Ref: "trust me"},
		Confidence: 0.9,
	})

	// Lenient mode keeps the claim and shaves confidence.
	assert.Equal(t, model.KindSuggestion, got.Kind)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)

	low := v.ValidateComment(model.ReviewComment{
		Kind:       model.KindSuggestion,
		Body:       "Consider renaming.",
		Evidence:   &model.Evidence{Type: model.EvidenceHistory, Ref: "trust me"},
		Confidence: 0.12,
	})
	assert.InDelta(t, 0.1, low.Confidence, 1e-9)
}

func TestValidateCommentLenientStillDowngradesMissing(t *testing.T) {
	v := NewEvidenceValidator(false)

	got := v.ValidateComment(model.ReviewComment{Kind: model.KindBlocker, Body: "Nope.", Confidence: 0.9})
	assert.Equal(t, model.KindQuestion, got.Kind)
	assert.Equal(t, ConfidenceMissingEvidence, got.Confidence)
}

func TestValidateCommentQuestionExempt(t *testing.T) {
	v := NewEvidenceValidator(true)

	in := model.ReviewComment{Kind: model.KindQuestion, Body: "Why this approach?", Confidence: 0.8}
	assert.Equal(t, in, v.ValidateComment(in))
}

func TestValidateReviewsPreservesOrder(t *testing.T) {
	v := NewEvidenceValidator(true)

	reviews := []model.ReviewerReview{
		{
			Reviewer: "alice",
			Comments: []model.ReviewComment{
				{Kind: model.KindBlocker, Body: "first", Confidence: 0.9},
				{Kind: model.KindQuestion, Body: "second", Confidence: 0.8},
			},
		},
		{Reviewer: "bob"},
	}

	out := v.ValidateReviews(reviews)
	require.Len(t, out, 2)
	require.Len(t, out[0].Comments, 2)
	assert.Equal(t, model.KindQuestion, out[0].Comments[0].Kind)
	assert.Equal(t, "second", out[0].Comments[1].Body)

	// Inputs are never mutated.
	assert.Equal(t, model.KindBlocker, reviews[0].Comments[0].Kind)
}
