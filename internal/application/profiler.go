package application

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Keyword sets per focus topic. A comment contributes to a topic score once
// per keyword occurrence in its body+path text.
var topicKeywords = map[string][]string{
	"api": {
		"api", "endpoint", "proto", "swagger", "openapi", "grpc", "rest",
		"backward", "compat", "breaking", "deprecat", "version", "schema",
	},
	"tests": {
		"test", "coverage", "e2e", "unit", "integration", "flak", "ci",
		"fixture", "mock", "stub", "assert", "expect",
	},
	"perf": {
		"perf", "benchmark", "latency", "throughput", "memory", "cpu",
		"cache", "pool", "buffer", "optim", "slow", "fast",
	},
	"docs": {
		"doc", "readme", "comment", "godoc", "docstring", "changelog",
		"release note", "example", "tutorial",
	},
	"security": {
		"security", "auth", "token", "secret", "cve", "vuln", "inject",
		"sanitiz", "escape", "tls", "cert", "crypto", "permission",
	},
	"style": {
		"style", "lint", "format", "naming", "convention", "nit",
		"readab", "clean", "refactor", "unused", "dead code",
	},
	"backward_compat": {
		"backward", "compat", "migration", "deprecat", "breaking",
		"upgrade", "downgrade", "rollback",
	},
}

// topicOrder fixes the topic iteration order wherever first-seen order
// feeds a tie-break.
var topicOrder = []string{"api", "tests", "perf", "docs", "security", "style", "backward_compat"}

type labeledPattern struct {
	re    *regexp.Regexp
	label string
}

var blockerPatterns = []labeledPattern{
	{regexp.MustCompile(`(?i)\bmissing test`), "missing tests"},
	{regexp.MustCompile(`(?i)\bno test`), "missing tests"},
	{regexp.MustCompile(`(?i)\btest coverage`), "test coverage"},
	{regexp.MustCompile(`(?i)\berror handling`), "error handling"},
	{regexp.MustCompile(`(?i)\brace condition`), "race condition"},
	{regexp.MustCompile(`(?i)\bnot thread.safe`), "thread safety"},
	{regexp.MustCompile(`(?i)\bnull|nil pointer`), "null safety"},
	{regexp.MustCompile(`(?i)\bbreak.*change`), "breaking change"},
	{regexp.MustCompile(`(?i)\bbackward.*compat`), "backward compatibility"},
	{regexp.MustCompile(`(?i)\bdoc(s|umentation)?\s+(missing|needed|required)`), "missing documentation"},
	{regexp.MustCompile(`(?i)\brelease note`), "release notes needed"},
	{regexp.MustCompile(`(?i)\blog(ging)?\s+(missing|needed)`), "missing logging"},
	{regexp.MustCompile(`(?i)\bvalidat`), "input validation"},
	{regexp.MustCompile(`(?i)\bsecur`), "security concern"},
	{regexp.MustCompile(`(?i)\bperformance`), "performance concern"},
	{regexp.MustCompile(`(?i)\bmemory leak`), "memory leak"},
	{regexp.MustCompile(`(?i)\bhardcod`), "hardcoded values"},
	{regexp.MustCompile(`(?i)\bmagic number`), "magic numbers"},
	{regexp.MustCompile(`(?i)\btodo|fixme|hack`), "TODO/FIXME left behind"},
}

var evidenceKeywords = []labeledPattern{
	{regexp.MustCompile(`(?i)\bbenchmark`), "benchmarks"},
	{regexp.MustCompile(`(?i)\be2e`), "e2e tests"},
	{regexp.MustCompile(`(?i)\bunit test`), "unit tests"},
	{regexp.MustCompile(`(?i)\bintegration test`), "integration tests"},
	{regexp.MustCompile(`(?i)\bdoc(s|umentation)`), "documentation"},
	{regexp.MustCompile(`(?i)\brelease note`), "release notes"},
	{regexp.MustCompile(`(?i)\bchangelog`), "changelog"},
	{regexp.MustCompile(`(?i)\bexample`), "usage examples"},
	{regexp.MustCompile(`(?i)\breproduci`), "reproduction steps"},
}

var stylePatterns = []labeledPattern{
	{regexp.MustCompile(`explicit.*error|error.*explicit`), "prefers explicit error handling"},
	{regexp.MustCompile(`avoid.*hidden|hidden.*default`), "avoid hidden defaults"},
	{regexp.MustCompile(`naming|name should|rename`), "cares about naming"},
	{regexp.MustCompile(`comment.*why|explain.*why`), "wants comments explaining why"},
	{regexp.MustCompile(`dry|don.t repeat`), "prefers DRY code"},
	{regexp.MustCompile(`simple|simplif|kiss`), "prefers simplicity"},
	{regexp.MustCompile(`idiomatic`), "prefers idiomatic patterns"},
	{regexp.MustCompile(`early return`), "prefers early returns"},
}

var redactPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`@[a-zA-Z0-9_-]+`), "@<user>"},
	{regexp.MustCompile(`#\d+`), "#<number>"},
	{regexp.MustCompile(`https?://\S+`), "<url>"},
	{regexp.MustCompile(`\b[a-f0-9]{7,40}\b`), "<sha>"},
}

const (
	maxQuoteWords     = 25
	minQuoteWords     = 5
	maxQuotes         = 10
	maxStylePrefs     = 8
	profileCommentCap = 500
	recentCommentCap  = 50
)

// Blocking-threshold boundaries on the changes-requested rate.
const (
	highBlockRate   = 0.4
	mediumBlockRate = 0.15
)

// ReviewerProfiler mines persona skill cards out of stored review history.
type ReviewerProfiler struct {
	history      driven.HistoryStore
	cards        driven.CardStore
	redactQuotes bool
	logger       *slog.Logger
}

// NewReviewerProfiler creates a profiler. When redactQuotes is set,
// @mentions, PR numbers, URLs, and commit SHAs are masked in the quote bank.
func NewReviewerProfiler(history driven.HistoryStore, cards driven.CardStore, redactQuotes bool) *ReviewerProfiler {
	return &ReviewerProfiler{
		history:      history,
		cards:        cards,
		redactQuotes: redactQuotes,
		logger:       slog.Default(),
	}
}

// BuildCard analyzes one reviewer's history into a skill card. Reviewers
// with no recorded reviews get an empty default card.
func (p *ReviewerProfiler) BuildCard(ctx context.Context, repo, reviewer string) (model.ReviewerSkillCard, error) {
	stats, err := p.history.GetReviewerStats(ctx, repo, reviewer)
	if err != nil {
		return model.ReviewerSkillCard{}, err
	}
	if stats.TotalReviews == 0 {
		return model.ReviewerSkillCard{Reviewer: reviewer, BlockingThreshold: model.BlockingMedium}, nil
	}

	comments, err := p.history.GetReviewerComments(ctx, repo, reviewer, profileCommentCap)
	if err != nil {
		return model.ReviewerSkillCard{}, err
	}

	total := float64(stats.TotalReviews)
	return model.ReviewerSkillCard{
		Reviewer:             reviewer,
		FocusWeights:         computeFocusWeights(comments),
		BlockingThreshold:    computeBlockingThreshold(stats),
		CommonBlockers:       extractCommonBlockers(comments),
		StylePreferences:     extractStylePreferences(comments),
		EvidencePreferences:  extractEvidencePreferences(comments),
		RecentInterests:      extractRecentInterests(comments),
		QuoteBank:            buildQuoteBank(comments, p.redactQuotes),
		TotalReviews:         stats.TotalReviews,
		ApprovalRate:         round3(float64(stats.Approved) / total),
		AvgCommentsPerReview: round2(float64(stats.TotalComments) / total),
	}, nil
}

// ProfileAll builds and persists cards for the top reviewers by review
// count.
func (p *ReviewerProfiler) ProfileAll(ctx context.Context, repo string, topN int) ([]model.ReviewerSkillCard, error) {
	top, err := p.history.GetTopReviewers(ctx, repo, topN)
	if err != nil {
		return nil, err
	}

	cards := make([]model.ReviewerSkillCard, 0, len(top))
	for _, entry := range top {
		p.logger.Info("profiling reviewer", "reviewer", entry.Reviewer, "reviews", entry.ReviewCount)
		card, err := p.BuildCard(ctx, repo, entry.Reviewer)
		if err != nil {
			return nil, err
		}
		if err := p.cards.UpsertCard(ctx, repo, card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// computeFocusWeights scores topics by keyword frequency, normalized so the
// dominant topic scores 1.0.
func computeFocusWeights(comments []model.HistoricalComment) model.FocusWeights {
	scores := make(map[string]float64, len(topicKeywords))
	for topic := range topicKeywords {
		scores[topic] = 0
	}

	for _, c := range comments {
		text := strings.ToLower(c.Body) + " " + strings.ToLower(c.Path)
		for topic, keywords := range topicKeywords {
			for _, kw := range keywords {
				scores[topic] += float64(strings.Count(text, kw))
			}
		}
	}

	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore > 0 {
		for topic := range scores {
			scores[topic] = round3(scores[topic] / maxScore)
		}
	}

	return model.FocusWeights{
		API:            scores["api"],
		Tests:          scores["tests"],
		Perf:           scores["perf"],
		Docs:           scores["docs"],
		Security:       scores["security"],
		Style:          scores["style"],
		BackwardCompat: scores["backward_compat"],
	}
}

func computeBlockingThreshold(stats model.ReviewerStats) model.BlockingThreshold {
	if stats.TotalReviews == 0 {
		return model.BlockingMedium
	}
	changeRate := float64(stats.ChangesRequested) / float64(stats.TotalReviews)
	switch {
	case changeRate > highBlockRate:
		return model.BlockingHigh
	case changeRate > mediumBlockRate:
		return model.BlockingMedium
	default:
		return model.BlockingLow
	}
}

// labelCounter counts label hits while remembering first-seen order, so
// frequency ties resolve deterministically.
type labelCounter struct {
	counts map[string]int
	order  []string
}

func newLabelCounter() *labelCounter {
	return &labelCounter{counts: make(map[string]int)}
}

func (lc *labelCounter) add(label string) {
	if _, seen := lc.counts[label]; !seen {
		lc.order = append(lc.order, label)
	}
	lc.counts[label]++
}

func (lc *labelCounter) topN(n int) []string {
	labels := make([]string, len(lc.order))
	copy(labels, lc.order)
	sort.SliceStable(labels, func(i, j int) bool {
		return lc.counts[labels[i]] > lc.counts[labels[j]]
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

func extractCommonBlockers(comments []model.HistoricalComment) []string {
	counter := newLabelCounter()
	for _, c := range comments {
		for _, p := range blockerPatterns {
			if p.re.MatchString(c.Body) {
				counter.add(p.label)
			}
		}
	}
	return counter.topN(5)
}

func extractStylePreferences(comments []model.HistoricalComment) []string {
	set := make(map[string]bool)
	for _, c := range comments {
		body := strings.ToLower(c.Body)
		for _, p := range stylePatterns {
			if p.re.MatchString(body) {
				set[p.label] = true
			}
		}
	}
	prefs := sortedKeys(set)
	if len(prefs) > maxStylePrefs {
		prefs = prefs[:maxStylePrefs]
	}
	return prefs
}

func extractEvidencePreferences(comments []model.HistoricalComment) []string {
	counter := newLabelCounter()
	for _, c := range comments {
		for _, p := range evidenceKeywords {
			if p.re.MatchString(c.Body) {
				counter.add(p.label)
			}
		}
	}
	return counter.topN(5)
}

// extractRecentInterests ranks topics over the newest comments. Input must
// be sorted newest first, which is the HistoryStore contract. A comment
// counts at most once per topic.
func extractRecentInterests(comments []model.HistoricalComment) []string {
	recent := comments
	if len(recent) > recentCommentCap {
		recent = recent[:recentCommentCap]
	}

	counter := newLabelCounter()
	for _, c := range recent {
		text := strings.ToLower(c.Body) + " " + strings.ToLower(c.Path)
		for _, topic := range topicOrder {
			for _, kw := range topicKeywords[topic] {
				if strings.Contains(text, kw) {
					counter.add(topic)
					break
				}
			}
		}
	}
	return counter.topN(3)
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s`)

// buildQuoteBank collects up to ten short representative sentences, deduped
// case-insensitively.
func buildQuoteBank(comments []model.HistoricalComment, redact bool) []string {
	var quotes []string
	seen := make(map[string]bool)

	for _, c := range comments {
		body := strings.TrimSpace(c.Body)
		if body == "" {
			continue
		}
		for _, sent := range sentenceSplitRe.Split(body, -1) {
			words := strings.Fields(sent)
			if len(words) < minQuoteWords || len(words) > maxQuoteWords {
				continue
			}
			normalized := strings.Join(words, " ")
			if redact {
				for _, rp := range redactPatterns {
					normalized = rp.re.ReplaceAllString(normalized, rp.replacement)
				}
			}
			key := strings.ToLower(normalized)
			if seen[key] {
				continue
			}
			seen[key] = true
			quotes = append(quotes, normalized)
			if len(quotes) >= maxQuotes {
				return quotes
			}
		}
	}
	return quotes
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
