package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

func blocker(body, file string) model.ReviewComment {
	return model.ReviewComment{Kind: model.KindBlocker, Body: body, File: file, Confidence: 1.0}
}

func suggestion(body, file string) model.ReviewComment {
	return model.ReviewComment{Kind: model.KindSuggestion, Body: body, File: file, Confidence: 1.0}
}

func TestAggregateMergesAndDedups(t *testing.T) {
	agg := NewMaintainerAggregator()

	reviews := []model.ReviewerReview{
		{
			Reviewer: "alice",
			Verdict:  model.VerdictRequestChanges,
			Comments: []model.ReviewComment{
				blocker("Exported symbol removed without deprecation notice", "pkg/a.go"),
				suggestion("Consider pre-allocating the slice", "pkg/b.go"),
			},
		},
		{
			Reviewer: "bob",
			Verdict:  model.VerdictComment,
			Comments: []model.ReviewComment{
				// Near-identical wording to alice's blocker collapses away.
				blocker("Exported symbol removed without any deprecation notice", "pkg/a.go"),
			},
		},
	}

	summary := agg.Aggregate(model.ChangeContext{Repo: "acme/widgets", PRNumber: 9}, reviews)

	assert.Equal(t, "acme/widgets", summary.Repo)
	assert.Equal(t, 9, summary.PRNumber)
	require.Len(t, summary.MergedBlockers, 1)
	assert.Equal(t, "alice", reviews[0].Reviewer) // inputs carried through untouched
	require.Len(t, summary.MergedSuggestions, 1)
	assert.Len(t, summary.ReviewerReviews, 2)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestDeduplicateCommentsFirstSeenWins(t *testing.T) {
	comments := []model.ReviewComment{
		{Kind: model.KindBlocker, Body: "Hardcoded secret detected in config loader"},
		{Kind: model.KindBlocker, Body: "Hardcoded secret detected in the config loader"},
		{Kind: model.KindBlocker, Body: "Missing context propagation on the RPC path"},
	}

	unique := deduplicateComments(comments)
	require.Len(t, unique, 2)
	assert.Equal(t, "Hardcoded secret detected in config loader", unique[0].Body)
	assert.Equal(t, "Missing context propagation on the RPC path", unique[1].Body)

	assert.Nil(t, deduplicateComments(nil))
}

func TestJaccard(t *testing.T) {
	a := wordSet("add tests for the parser")
	b := wordSet("add tests for the renderer")
	assert.InDelta(t, 4.0/6.0, jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, jaccard(map[string]bool{}, map[string]bool{}))
}

func TestComputeMergeVerdict(t *testing.T) {
	approve := model.ReviewerReview{Verdict: model.VerdictApprove}
	reject := model.ReviewerReview{Verdict: model.VerdictRequestChanges}
	comment := model.ReviewerReview{Verdict: model.VerdictComment}
	oneBlocker := []model.ReviewComment{blocker("x", "")}
	threeBlockers := []model.ReviewComment{blocker("x", ""), blocker("y", ""), blocker("z", "")}

	t.Run("two rejections need changes", func(t *testing.T) {
		got := computeMergeVerdict([]model.ReviewerReview{reject, reject, approve}, nil, model.ChangeContext{})
		assert.Equal(t, model.MergeNeedsChanges, got)
	})

	t.Run("three blockers need changes", func(t *testing.T) {
		got := computeMergeVerdict([]model.ReviewerReview{approve}, threeBlockers, model.ChangeContext{})
		assert.Equal(t, model.MergeNeedsChanges, got)
	})

	t.Run("unanimous clean approval is ready", func(t *testing.T) {
		got := computeMergeVerdict([]model.ReviewerReview{approve, approve}, nil, model.ChangeContext{})
		assert.Equal(t, model.MergeReady, got)
	})

	t.Run("risk flag escalates to risky", func(t *testing.T) {
		ctx := model.ChangeContext{RiskFlags: []string{model.RiskSecurity}}
		got := computeMergeVerdict([]model.ReviewerReview{approve, comment}, nil, ctx)
		assert.Equal(t, model.MergeRisky, got)
	})

	t.Run("risk flag plus blocker needs changes", func(t *testing.T) {
		ctx := model.ChangeContext{RiskFlags: []string{model.RiskAPISurface}}
		got := computeMergeVerdict([]model.ReviewerReview{approve, comment}, oneBlocker, ctx)
		assert.Equal(t, model.MergeNeedsChanges, got)
	})

	t.Run("single rejection without risk is risky", func(t *testing.T) {
		got := computeMergeVerdict([]model.ReviewerReview{reject, approve}, nil, model.ChangeContext{})
		assert.Equal(t, model.MergeRisky, got)
	})

	t.Run("comments only is ready", func(t *testing.T) {
		got := computeMergeVerdict([]model.ReviewerReview{comment, comment}, nil, model.ChangeContext{})
		assert.Equal(t, model.MergeReady, got)
	})
}

func TestFindDisagreementsVerdictSplit(t *testing.T) {
	reviews := []model.ReviewerReview{
		{Reviewer: "alice", Verdict: model.VerdictApprove},
		{Reviewer: "bob", Verdict: model.VerdictRequestChanges},
		{Reviewer: "carol", Verdict: model.VerdictComment},
	}

	ds := findDisagreements(reviews)
	require.Len(t, ds, 1)
	assert.Equal(t, model.DisagreementVerdictSplit, ds[0].Type)
	assert.Equal(t, []string{"alice"}, ds[0].Approvers)
	assert.Equal(t, []string{"bob"}, ds[0].Rejecters)
}

func TestFindDisagreementsFileContention(t *testing.T) {
	reviews := []model.ReviewerReview{
		{
			Reviewer: "alice",
			Verdict:  model.VerdictComment,
			Comments: []model.ReviewComment{blocker("breaks API", "pkg/a.go")},
		},
		{
			Reviewer: "bob",
			Verdict:  model.VerdictComment,
			Comments: []model.ReviewComment{suggestion("nit", "pkg/a.go")},
		},
		{
			Reviewer: "carol",
			Verdict:  model.VerdictComment,
			Comments: []model.ReviewComment{suggestion("fine", "pkg/b.go")},
		},
	}

	ds := findDisagreements(reviews)
	require.Len(t, ds, 1)
	assert.Equal(t, model.DisagreementFileContention, ds[0].Type)
	assert.Equal(t, "pkg/a.go", ds[0].File)
	assert.Equal(t, []string{"alice", "bob"}, ds[0].Reviewers)
	assert.Contains(t, ds[0].Note, "`pkg/a.go`")
}

func TestFindDisagreementsSingleReviewerNotContention(t *testing.T) {
	reviews := []model.ReviewerReview{
		{
			Reviewer: "alice",
			Verdict:  model.VerdictComment,
			Comments: []model.ReviewComment{
				blocker("breaks API", "pkg/a.go"),
				suggestion("also this", "pkg/a.go"),
			},
		},
	}
	assert.Empty(t, findDisagreements(reviews))
}

func TestBuildFixPlanPriorities(t *testing.T) {
	blockers := []model.ReviewComment{blocker("Remove the hardcoded secret", "cfg.go")}
	suggestions := []model.ReviewComment{
		suggestion("Rename for clarity", "a.go"),
		{Kind: model.KindMissingTest, Body: "No tests for parser", File: "parse.go"},
		{Kind: model.KindDocsNeeded, Body: "Update the upgrade guide"},
	}

	plan := buildFixPlan(blockers, suggestions)
	require.Len(t, plan, 4)
	assert.Equal(t, "[P0] Remove the hardcoded secret in `cfg.go`", plan[0])
	assert.Equal(t, "[P1] Add tests for `parse.go`: No tests for parser", plan[1])
	assert.Equal(t, "[P1] Update the upgrade guide", plan[2])
	assert.Equal(t, "[P2] Rename for clarity", plan[3])
}

func TestBuildFixPlanCap(t *testing.T) {
	var blockers []model.ReviewComment
	for i := 0; i < 20; i++ {
		blockers = append(blockers, blocker("issue", ""))
	}
	assert.Len(t, buildFixPlan(blockers, nil), maxFixPlanItems)
}
