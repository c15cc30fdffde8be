package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

func histComment(body, path string) model.HistoricalComment {
	return model.HistoricalComment{Reviewer: "alice", Body: body, Path: path}
}

func TestBuildCardNoHistory(t *testing.T) {
	p := NewReviewerProfiler(newMockHistoryStore(), newMockCardStore(), false)

	card, err := p.BuildCard(context.Background(), "acme/widgets", "ghost")
	require.NoError(t, err)
	assert.Equal(t, "ghost", card.Reviewer)
	assert.Equal(t, model.BlockingMedium, card.BlockingThreshold)
	assert.Zero(t, card.TotalReviews)
}

func TestBuildCard(t *testing.T) {
	history := newMockHistoryStore()
	history.stats["alice"] = model.ReviewerStats{
		TotalReviews:     10,
		Approved:         4,
		ChangesRequested: 5,
		TotalComments:    25,
	}
	history.commentsByReviewer["alice"] = []model.HistoricalComment{
		histComment("Missing test for this path, please add unit test coverage", "pkg/a.go"),
		histComment("No test here either, the test suite should cover this", "pkg/b.go"),
		histComment("This needs a benchmark before we can accept the change", "pkg/c.go"),
	}

	p := NewReviewerProfiler(history, newMockCardStore(), false)
	card, err := p.BuildCard(context.Background(), "acme/widgets", "alice")
	require.NoError(t, err)

	assert.Equal(t, 10, card.TotalReviews)
	assert.InDelta(t, 0.4, card.ApprovalRate, 1e-9)
	assert.InDelta(t, 2.5, card.AvgCommentsPerReview, 1e-9)
	// 5/10 changes requested is above the high boundary.
	assert.Equal(t, model.BlockingHigh, card.BlockingThreshold)
	// Tests dominate the keyword counts, so that weight normalizes to 1.
	assert.Equal(t, 1.0, card.FocusWeights.Tests)
	assert.Contains(t, card.CommonBlockers, "missing tests")
	assert.Contains(t, card.EvidencePreferences, "benchmarks")
	assert.NotEmpty(t, card.QuoteBank)
}

func TestProfileAllPersistsCards(t *testing.T) {
	history := newMockHistoryStore()
	history.topReviewers = []model.ReviewerActivity{
		{Reviewer: "alice", ReviewCount: 9},
		{Reviewer: "bob", ReviewCount: 3},
	}
	history.stats["alice"] = model.ReviewerStats{TotalReviews: 9, Approved: 9}
	cards := newMockCardStore()

	p := NewReviewerProfiler(history, cards, false)
	built, err := p.ProfileAll(context.Background(), "acme/widgets", 10)
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, []string{"alice", "bob"}, cards.upserted)
	assert.Equal(t, model.BlockingLow, built[0].BlockingThreshold)
	assert.Equal(t, model.BlockingMedium, built[1].BlockingThreshold) // no history default
}

func TestComputeBlockingThreshold(t *testing.T) {
	cases := []struct {
		requested int
		total     int
		want      model.BlockingThreshold
	}{
		{5, 10, model.BlockingHigh},
		{2, 10, model.BlockingMedium},
		{1, 10, model.BlockingLow},
		{0, 0, model.BlockingMedium},
	}
	for _, tc := range cases {
		got := computeBlockingThreshold(model.ReviewerStats{TotalReviews: tc.total, ChangesRequested: tc.requested})
		assert.Equal(t, tc.want, got, "%d/%d", tc.requested, tc.total)
	}
}

func TestLabelCounterTieBreak(t *testing.T) {
	lc := newLabelCounter()
	lc.add("beta")
	lc.add("alpha")
	lc.add("alpha")
	lc.add("gamma")

	// alpha wins on count; beta and gamma tie and keep first-seen order.
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, lc.topN(3))
	assert.Equal(t, []string{"alpha", "beta"}, lc.topN(2))
}

func TestExtractCommonBlockers(t *testing.T) {
	comments := []model.HistoricalComment{
		histComment("There is a race condition in this handler", ""),
		histComment("Race condition again, and missing test coverage", ""),
		histComment("hardcoded path, please make it configurable", ""),
	}
	blockers := extractCommonBlockers(comments)
	assert.Equal(t, "race condition", blockers[0])
	assert.Contains(t, blockers, "hardcoded values")
}

func TestBuildQuoteBank(t *testing.T) {
	comments := []model.HistoricalComment{
		histComment("Please add a regression test for this before merging. LGTM otherwise.", ""),
		histComment("please add a regression test for this before merging", ""), // dedup, case-insensitive
		histComment("nit", ""), // too short
	}

	quotes := buildQuoteBank(comments, false)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Please add a regression test for this before merging", quotes[0])
}

func TestBuildQuoteBankRedaction(t *testing.T) {
	comments := []model.HistoricalComment{
		histComment("As @alice noted in #42 see https://example.com/issue for full details", ""),
	}

	quotes := buildQuoteBank(comments, true)
	require.Len(t, quotes, 1)
	assert.Equal(t, "As @<user> noted in #<number> see <url> for full details", quotes[0])
}

func TestBuildQuoteBankCap(t *testing.T) {
	var comments []model.HistoricalComment
	for i := 0; i < 30; i++ {
		body := "This sentence number " + strings.Repeat("x", i+1) + " has exactly enough words here"
		comments = append(comments, histComment(body, ""))
	}
	quotes := buildQuoteBank(comments, false)
	assert.Len(t, quotes, maxQuotes)
}

func TestComputeFocusWeightsEmpty(t *testing.T) {
	w := computeFocusWeights(nil)
	assert.Equal(t, model.FocusWeights{}, w)
}
