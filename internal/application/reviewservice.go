package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// ErrNoChangedFiles is returned when the input diff or PR has no parseable
// file changes.
var ErrNoChangedFiles = errors.New("no changed files found in the diff")

// ReviewRequest describes one review run: either a PR number to fetch or a
// pre-parsed local diff.
type ReviewRequest struct {
	Repo     string
	PRNumber int

	// DiffText and ChangedFiles are used directly when PRNumber is zero.
	DiffText     string
	ChangedFiles []model.ChangedFile

	ReviewerCount int
}

// ReviewService runs the whole review pipeline: change context, reviewer
// discovery, skill card loading, per-persona simulation, and aggregation.
type ReviewService struct {
	mapper     *RepoMapper
	discovery  *ReviewerDiscovery
	cards      driven.CardStore
	simulator  *ReviewSimulator
	aggregator *MaintainerAggregator
	gh         driven.GitHubClient
	logger     *slog.Logger
}

// NewReviewService wires the pipeline. gh may be nil when reviews only come
// from local diffs.
func NewReviewService(mapper *RepoMapper, discovery *ReviewerDiscovery, cards driven.CardStore, simulator *ReviewSimulator, aggregator *MaintainerAggregator, gh driven.GitHubClient) *ReviewService {
	return &ReviewService{
		mapper:     mapper,
		discovery:  discovery,
		cards:      cards,
		simulator:  simulator,
		aggregator: aggregator,
		gh:         gh,
		logger:     slog.Default(),
	}
}

// Run executes one review and returns the maintainer summary.
func (s *ReviewService) Run(ctx context.Context, req ReviewRequest) (model.MaintainerSummary, error) {
	if req.ReviewerCount <= 0 {
		req.ReviewerCount = 5
	}

	diffText := req.DiffText
	changedFiles := req.ChangedFiles
	prTitle, prBody := "", ""

	if req.PRNumber > 0 {
		if s.gh == nil {
			return model.MaintainerSummary{}, errors.New("GitHub client required to review a PR by number")
		}
		var err error
		prTitle, prBody, err = s.gh.FetchPR(ctx, req.Repo, req.PRNumber)
		if err != nil {
			return model.MaintainerSummary{}, fmt.Errorf("fetch PR #%d: %w", req.PRNumber, err)
		}
		diffText, err = s.gh.FetchPRDiff(ctx, req.Repo, req.PRNumber)
		if err != nil {
			return model.MaintainerSummary{}, fmt.Errorf("fetch diff for PR #%d: %w", req.PRNumber, err)
		}
		changedFiles, err = s.gh.FetchPRFiles(ctx, req.Repo, req.PRNumber)
		if err != nil {
			return model.MaintainerSummary{}, fmt.Errorf("fetch files for PR #%d: %w", req.PRNumber, err)
		}
	}

	if len(changedFiles) == 0 {
		return model.MaintainerSummary{}, ErrNoChangedFiles
	}
	s.logger.Info("analyzing change", "repo", req.Repo, "files", len(changedFiles))

	change := s.mapper.BuildChangeContext(ctx, req.Repo, changedFiles, req.PRNumber, prTitle, prBody, "main", "")
	s.logger.Info("change context built", "areas", change.Areas, "risk_flags", change.RiskFlags)

	infos, err := s.discovery.Discover(ctx, change, req.ReviewerCount)
	if err != nil {
		return model.MaintainerSummary{}, fmt.Errorf("discover reviewers: %w", err)
	}
	if len(infos) == 0 {
		s.logger.Warn("no ranked reviewers found, falling back to ownership list")
		limit := min(req.ReviewerCount, len(change.LikelyReviewers))
		for _, login := range change.LikelyReviewers[:limit] {
			infos = append(infos, model.ReviewerInfo{Login: login})
		}
	}
	logins := make([]string, len(infos))
	for i, ri := range infos {
		logins[i] = ri.Login
	}
	s.logger.Info("selected reviewers", "reviewers", logins)

	cards, err := s.loadCards(ctx, req.Repo, infos)
	if err != nil {
		return model.MaintainerSummary{}, err
	}

	reviews := s.simulator.SimulateAll(ctx, change, diffText, cards)
	return s.aggregator.Aggregate(change, reviews), nil
}

// loadCards fetches stored skill cards, synthesizing category-derived
// defaults for reviewers the profiler has never seen.
func (s *ReviewService) loadCards(ctx context.Context, repo string, infos []model.ReviewerInfo) ([]model.ReviewerSkillCard, error) {
	cards := make([]model.ReviewerSkillCard, 0, len(infos))
	for _, ri := range infos {
		card, err := s.cards.GetCard(ctx, repo, ri.Login)
		if err != nil {
			return nil, fmt.Errorf("load card for %s: %w", ri.Login, err)
		}
		if card != nil {
			cards = append(cards, *card)
			continue
		}
		cards = append(cards, model.ReviewerSkillCard{
			Reviewer:          ri.Login,
			FocusWeights:      DefaultFocusForCategories(ri.Categories),
			BlockingThreshold: model.BlockingMedium,
			TotalReviews:      ri.ReviewCount,
		})
	}
	return cards, nil
}

// DefaultFocusForCategories builds fallback focus weights for an unprofiled
// reviewer, boosting the topics their discovery categories imply.
func DefaultFocusForCategories(categories []model.ReviewerCategory) model.FocusWeights {
	focus := model.FocusWeights{
		API: 0.4, Tests: 0.4, Perf: 0.3, Docs: 0.3,
		Security: 0.4, Style: 0.3, BackwardCompat: 0.3,
	}
	for _, cat := range categories {
		switch cat {
		case model.CategoryTestCIHawk:
			focus.Tests = 0.9
		case model.CategoryAPIStabilityHawk:
			focus.API = 0.9
			focus.BackwardCompat = 0.7
		case model.CategorySecurityHawk:
			focus.Security = 0.9
		case model.CategoryDocsHawk:
			focus.Docs = 0.9
		}
	}
	return focus
}
