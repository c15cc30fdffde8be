package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

func newDefaultClassifier(t *testing.T) *PRClassifier {
	t.Helper()
	c, err := NewPRClassifier(DefaultPRFilterPolicy())
	require.NoError(t, err)
	return c
}

func TestShouldSkipBotAuthors(t *testing.T) {
	c := newDefaultClassifier(t)

	tests := []struct {
		author string
		skip   bool
	}{
		{"dependabot[bot]", true},
		{"dependabot", true},
		{"renovate[bot]", true},
		{"snyk-bot", true},
		{"github-actions[bot]", true},
		{"my-team-bot", true},
		{"custom[bot]", true},
		{"alice", false},
		{"robotics-dev", false},
	}
	for _, tt := range tests {
		t.Run(tt.author, func(t *testing.T) {
			skip, reason := c.ShouldSkip(model.HistoricalPR{Author: tt.author, Title: "Fix widget parser"})
			assert.Equal(t, tt.skip, skip)
			if tt.skip {
				assert.Equal(t, "bot-author:"+tt.author, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}

func TestShouldSkipEmptyAuthorNotMatched(t *testing.T) {
	c := newDefaultClassifier(t)

	// An absent author must never trip the bot heuristic.
	skip, reason := c.ShouldSkip(model.HistoricalPR{Author: "", Title: "Fix widget parser"})
	assert.False(t, skip)
	assert.Empty(t, reason)
}

func TestShouldSkipTitlePatterns(t *testing.T) {
	c := newDefaultClassifier(t)

	tests := []struct {
		name  string
		title string
		skip  bool
	}{
		{"cve", "Patch for CVE-2024-12345 in parser", true},
		{"bump from to", "Bump lodash from 4.17.20 to 4.17.21", true},
		{"chore scoped bump", "chore(deps): bump golang.org/x/net", true},
		{"security bump", "[Security] Bump pillow to 10.0.1", true},
		{"requirement update", "Update requests requirement to >=2.31", true},
		{"case insensitive", "BUMP foo FROM 1.0 TO 2.0", true},
		{"human fix", "Fix race in scheduler shutdown", false},
		{"mentions version", "Support protocol version 2 upgrades", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := c.ShouldSkip(model.HistoricalPR{Author: "alice", Title: tt.title})
			assert.Equal(t, tt.skip, skip)
			if tt.skip {
				assert.Contains(t, reason, "title-pattern:")
			}
		})
	}
}

func TestShouldSkipLabels(t *testing.T) {
	c := newDefaultClassifier(t)

	skip, reason := c.ShouldSkip(model.HistoricalPR{
		Author: "alice",
		Title:  "Refresh lockfile",
		Labels: []string{"enhancement", "dependencies"},
	})
	assert.True(t, skip)
	assert.Equal(t, "label:dependencies", reason)

	skip, reason = c.ShouldSkip(model.HistoricalPR{
		Author: "alice",
		Title:  "Refresh lockfile",
		Labels: []string{"enhancement", "needs-review"},
	})
	assert.False(t, skip)
	assert.Empty(t, reason)
}

func TestShouldSkipAllowlistWins(t *testing.T) {
	policy := DefaultPRFilterPolicy()
	policy.AllowlistAuthors = []string{"Dependabot[bot]"}
	policy.AllowlistTitleSubstrings = []string{"critical fix"}
	c, err := NewPRClassifier(policy)
	require.NoError(t, err)

	// Author allowlist is case-insensitive and beats the bot patterns.
	skip, reason := c.ShouldSkip(model.HistoricalPR{Author: "dependabot[bot]", Title: "Bump foo from 1 to 2"})
	assert.False(t, skip)
	assert.Empty(t, reason)

	// Title substring allowlist beats the title patterns.
	skip, _ = c.ShouldSkip(model.HistoricalPR{Author: "alice", Title: "CRITICAL FIX for CVE-2024-99999"})
	assert.False(t, skip)

	// Unrelated bot authors still get skipped.
	skip, _ = c.ShouldSkip(model.HistoricalPR{Author: "renovate[bot]", Title: "Bump foo from 1 to 2"})
	assert.True(t, skip)
}

func TestShouldSkipDisabledPolicy(t *testing.T) {
	c, err := NewPRClassifier(PRFilterPolicy{})
	require.NoError(t, err)

	skip, reason := c.ShouldSkip(model.HistoricalPR{Author: "dependabot[bot]", Title: "Bump foo from 1 to 2", Labels: []string{"dependencies"}})
	assert.False(t, skip)
	assert.Empty(t, reason)
}

func TestNewPRClassifierInvalidPattern(t *testing.T) {
	policy := DefaultPRFilterPolicy()
	policy.TitlePatterns = append(policy.TitlePatterns, `(unclosed`)

	_, err := NewPRClassifier(policy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile filter pattern")
}
