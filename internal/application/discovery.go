package application

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Scoring weights for reviewer ranking.
const (
	weightOwnership  = 1.0
	weightHistorical = 0.7
	weightRecency    = 0.3

	// Teams from CODEOWNERS with no individual review history rank far
	// below real people.
	teamPenalty = 0.1
	// Reviewers with a stored skill card are preferred simulation targets.
	cardBoost = 1.5
)

var (
	categoryTestPathRe = regexp.MustCompile(`(?i)test|spec|_test\.`)
	categoryTestBodyRe = regexp.MustCompile(`\b(test|coverage|ci|flak[ey]|e2e|unit test|integration)\b`)
	categoryAPIPathRe  = regexp.MustCompile(`(?i)api|proto|openapi|swagger`)
	categoryAPIBodyRe  = regexp.MustCompile(`\b(api|backward|compat|breaking|deprecat|version)\b`)
	categorySecBodyRe  = regexp.MustCompile(`\b(security|auth|token|secret|cve|vuln|inject|sanitiz|escape)\b`)
	categoryDocPathRe  = regexp.MustCompile(`(?i)\.md$|docs/|README`)
)

// ReviewerDiscovery ranks likely reviewers for a change from ownership
// rules, historical activity on the touched paths, and repo-wide activity.
type ReviewerDiscovery struct {
	ownership driven.OwnershipStore
	history   driven.HistoryStore
	cards     driven.CardStore
	logger    *slog.Logger
}

// NewReviewerDiscovery creates a discovery service.
func NewReviewerDiscovery(ownership driven.OwnershipStore, history driven.HistoryStore, cards driven.CardStore) *ReviewerDiscovery {
	return &ReviewerDiscovery{
		ownership: ownership,
		history:   history,
		cards:     cards,
		logger:    slog.Default(),
	}
}

// Discover returns the top-K ranked reviewer candidates for the change,
// plus up to two extras that cover categories the top-K miss. Ties rank in
// first-discovered order.
func (d *ReviewerDiscovery) Discover(ctx context.Context, change model.ChangeContext, topK int) ([]model.ReviewerInfo, error) {
	repo := change.Repo
	paths := make([]string, len(change.ChangedFiles))
	for i, f := range change.ChangedFiles {
		paths[i] = f.Path
	}

	scores := make(map[string]float64)
	var order []string
	ownershipPaths := make(map[string][]string)
	categories := make(map[string]map[model.ReviewerCategory]bool)

	score := func(login string, delta float64) {
		if _, seen := scores[login]; !seen {
			order = append(order, login)
			categories[login] = make(map[model.ReviewerCategory]bool)
		}
		scores[login] += delta
	}

	for _, path := range paths {
		rules, err := d.ownership.GetOwnersForPath(ctx, repo, path)
		if err != nil {
			return nil, err
		}
		for _, rule := range rules {
			score(rule.Owner, weightOwnership)
			ownershipPaths[rule.Owner] = append(ownershipPaths[rule.Owner], rule.PathPattern)
			categories[rule.Owner][model.CategoryPrimaryOwner] = true
		}
	}

	hist, err := d.history.GetReviewersForPaths(ctx, repo, paths, 30)
	if err != nil {
		return nil, err
	}
	for _, entry := range hist {
		score(entry.Reviewer, weightHistorical*min(float64(entry.ReviewCount)/5.0, 3.0))
	}

	// Repo-wide top reviewers as fallback candidates only.
	topGlobal, err := d.history.GetTopReviewers(ctx, repo, 20)
	if err != nil {
		return nil, err
	}
	for _, entry := range topGlobal {
		if _, seen := scores[entry.Reviewer]; !seen {
			score(entry.Reviewer, weightRecency*min(float64(entry.ReviewCount)/10.0, 1.5))
		}
	}

	ranked := make([]model.ReviewerInfo, 0, len(order))
	for _, login := range order {
		comments, err := d.history.GetReviewerComments(ctx, repo, login, 100)
		if err != nil {
			return nil, err
		}
		for _, cat := range detectCategories(comments) {
			categories[login][cat] = true
		}

		stats, err := d.history.GetReviewerStats(ctx, repo, login)
		if err != nil {
			return nil, err
		}

		finalScore := scores[login]
		if isTeamLogin(login) && stats.TotalReviews == 0 {
			finalScore *= teamPenalty
		}
		card, err := d.cards.GetCard(ctx, repo, login)
		if err != nil {
			return nil, err
		}
		if card != nil {
			finalScore *= cardBoost
		}

		ranked = append(ranked, model.ReviewerInfo{
			Login:          login,
			Score:          round3(finalScore),
			Categories:     sortedCategories(categories[login]),
			OwnershipPaths: ownershipPaths[login],
			ReviewCount:    stats.TotalReviews,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if topK > len(ranked) {
		topK = len(ranked)
	}
	result := ranked[:topK:topK]

	// Category diversity: pull in up to two lower-ranked reviewers that
	// cover categories the head of the list misses.
	covered := make(map[model.ReviewerCategory]bool)
	for _, r := range result {
		for _, cat := range r.Categories {
			covered[cat] = true
		}
	}
	for _, r := range ranked[topK:] {
		if len(result) >= topK+2 {
			break
		}
		addsNew := false
		for _, cat := range r.Categories {
			if !covered[cat] {
				addsNew = true
			}
		}
		if addsNew {
			result = append(result, r)
			for _, cat := range r.Categories {
				covered[cat] = true
			}
		}
	}
	return result, nil
}

// detectCategories classifies a reviewer by the paths they comment on and
// the vocabulary of their comment bodies.
func detectCategories(comments []model.HistoricalComment) []model.ReviewerCategory {
	if len(comments) == 0 {
		return nil
	}

	var bodies strings.Builder
	var catSet []model.ReviewerCategory
	testPaths, apiPaths, docPaths := 0, 0, 0
	for _, c := range comments {
		bodies.WriteString(c.Body)
		bodies.WriteByte(' ')
		if c.Path == "" {
			continue
		}
		if categoryTestPathRe.MatchString(c.Path) {
			testPaths++
		}
		if categoryAPIPathRe.MatchString(c.Path) {
			apiPaths++
		}
		if categoryDocPathRe.MatchString(c.Path) {
			docPaths++
		}
	}
	lowered := strings.ToLower(bodies.String())

	if testPaths > 3 || len(categoryTestBodyRe.FindAllString(lowered, -1)) > 5 {
		catSet = append(catSet, model.CategoryTestCIHawk)
	}
	if apiPaths > 2 || len(categoryAPIBodyRe.FindAllString(lowered, -1)) > 5 {
		catSet = append(catSet, model.CategoryAPIStabilityHawk)
	}
	if len(categorySecBodyRe.FindAllString(lowered, -1)) > 3 {
		catSet = append(catSet, model.CategorySecurityHawk)
	}
	if docPaths > 3 {
		catSet = append(catSet, model.CategoryDocsHawk)
	}
	if len(catSet) == 0 {
		catSet = append(catSet, model.CategoryGeneral)
	}
	return catSet
}

// isTeamLogin reports whether a login is an org/team handle from CODEOWNERS
// rather than an individual user.
func isTeamLogin(login string) bool {
	return strings.Contains(login, "/")
}

func sortedCategories(set map[model.ReviewerCategory]bool) []model.ReviewerCategory {
	if len(set) == 0 {
		return nil
	}
	cats := make([]model.ReviewerCategory, 0, len(set))
	for c := range set {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
