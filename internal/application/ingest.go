package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// IngestOptions controls one ingestion run.
type IngestOptions struct {
	// SinceDays is the look-back window. PRs created earlier are skipped.
	SinceDays int
	// MaxPRs caps how many closed PRs are fetched from GitHub.
	MaxPRs int
	// Areas, when set, restricts ingestion to PRs touching these areas.
	Areas []string
	// Resume narrows the window to PRs created after the last ingest.
	Resume bool
}

// IngestStats counts what one run stored and skipped.
type IngestStats struct {
	PRs            int
	Files          int
	Reviews        int
	Comments       int
	OwnershipRules int
	SkippedArea    int
	SkippedBotCVE  int
}

// Ingestor pulls closed-PR metadata, reviews, and review comments from
// GitHub into the history store, feeding profiling and discovery.
type Ingestor struct {
	history    driven.HistoryStore
	gh         driven.GitHubClient
	mapper     *RepoMapper
	classifier *PRClassifier
	logger     *slog.Logger
}

// NewIngestor creates an ingestor with the given filter policy.
func NewIngestor(history driven.HistoryStore, gh driven.GitHubClient, mapper *RepoMapper, policy PRFilterPolicy) (*Ingestor, error) {
	classifier, err := NewPRClassifier(policy)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()
	if policy.Enabled {
		logger.Info("PR filter enabled, bot/CVE heuristics active")
	}
	return &Ingestor{
		history:    history,
		gh:         gh,
		mapper:     mapper,
		classifier: classifier,
		logger:     logger,
	}, nil
}

// Ingest runs one ingestion pass for the repo. Per-PR detail fetch failures
// are logged and skipped; the run keeps going so one bad PR does not waste
// the rest of the window.
func (ing *Ingestor) Ingest(ctx context.Context, repo string, opts IngestOptions) (IngestStats, error) {
	if opts.SinceDays <= 0 {
		opts.SinceDays = 180
	}
	if opts.MaxPRs <= 0 {
		opts.MaxPRs = 300
	}

	ing.logger.Info("starting ingestion", "repo", repo, "since_days", opts.SinceDays, "max_prs", opts.MaxPRs)
	cutoff := time.Now().UTC().AddDate(0, 0, -opts.SinceDays)

	if opts.Resume {
		lastTS, err := ing.history.GetLastIngest(ctx, repo)
		if err != nil {
			return IngestStats{}, fmt.Errorf("load last ingest watermark: %w", err)
		}
		if lastTS != "" {
			resumeCutoff, err := time.Parse(time.RFC3339, lastTS)
			if err == nil && resumeCutoff.After(cutoff) {
				cutoff = resumeCutoff
				ing.logger.Info("resuming from last ingest", "watermark", lastTS)
			}
		}
	}

	var stats IngestStats

	ownershipCount, err := ing.mapper.IngestOwnership(ctx, repo)
	if err != nil {
		return stats, fmt.Errorf("ingest ownership: %w", err)
	}
	stats.OwnershipRules = ownershipCount
	ing.logger.Info("ingested ownership rules", "rules", ownershipCount)

	prs, err := ing.gh.FetchClosedPRs(ctx, repo, opts.MaxPRs)
	if err != nil {
		return stats, fmt.Errorf("list closed PRs: %w", err)
	}
	ing.logger.Info("fetched PRs from GitHub", "count", len(prs))

	var latestCreated time.Time

	for _, pr := range prs {
		if !pr.CreatedAt.IsZero() && pr.CreatedAt.Before(cutoff) {
			continue
		}

		if skip, reason := ing.classifier.ShouldSkip(pr); skip {
			ing.logger.Debug("skipping PR", "number", pr.Number, "title", pr.Title, "reason", reason)
			stats.SkippedBotCVE++
			continue
		}

		files, err := ing.gh.FetchPRFiles(ctx, repo, pr.Number)
		if err != nil {
			ing.logger.Warn("failed to fetch PR files", "number", pr.Number, "error", err)
			files = nil
		}

		if len(opts.Areas) > 0 && len(files) > 0 {
			paths := make([]string, len(files))
			for i, f := range files {
				paths[i] = f.Path
			}
			if !anyAreaMatch(ing.mapper.DetectAreas(paths), opts.Areas) {
				stats.SkippedArea++
				continue
			}
		}

		ing.logger.Debug("processing PR", "number", pr.Number, "title", pr.Title)

		if pr.CreatedAt.After(latestCreated) {
			latestCreated = pr.CreatedAt
		}

		pr.Repo = repo
		if pr.MergedAt != nil {
			pr.State = "merged"
		} else if pr.State == "" {
			pr.State = "closed"
		}
		prID, err := ing.history.UpsertPR(ctx, pr)
		if err != nil {
			return stats, fmt.Errorf("upsert PR #%d: %w", pr.Number, err)
		}
		stats.PRs++

		if len(files) > 0 {
			records := make([]model.HistoricalFile, len(files))
			for i, f := range files {
				records[i] = model.HistoricalFile{
					PRID:      prID,
					Path:      f.Path,
					Additions: f.Additions,
					Deletions: f.Deletions,
				}
			}
			if err := ing.history.InsertPRFiles(ctx, prID, records); err != nil {
				return stats, fmt.Errorf("insert files for PR #%d: %w", pr.Number, err)
			}
			stats.Files += len(records)
		}

		reviews, err := ing.gh.FetchReviews(ctx, repo, pr.Number)
		if err != nil {
			ing.logger.Warn("failed to fetch reviews", "number", pr.Number, "error", err)
		} else {
			for _, review := range reviews {
				if review.Reviewer == "" {
					continue
				}
				review.PRID = prID
				if review.State == "" {
					review.State = "COMMENTED"
				}
				if err := ing.history.InsertReview(ctx, review); err != nil {
					return stats, fmt.Errorf("insert review for PR #%d: %w", pr.Number, err)
				}
				stats.Reviews++
			}
		}

		comments, err := ing.gh.FetchReviewComments(ctx, repo, pr.Number)
		if err != nil {
			ing.logger.Warn("failed to fetch review comments", "number", pr.Number, "error", err)
		} else {
			for _, comment := range comments {
				if comment.Reviewer == "" {
					continue
				}
				comment.PRID = prID
				comment.PRNumber = pr.Number
				if err := ing.history.InsertReviewComment(ctx, comment); err != nil {
					return stats, fmt.Errorf("insert comment for PR #%d: %w", pr.Number, err)
				}
				stats.Comments++
			}
		}
	}

	if !latestCreated.IsZero() {
		if err := ing.history.SetLastIngest(ctx, repo, latestCreated.Format(time.RFC3339)); err != nil {
			return stats, fmt.Errorf("store ingest watermark: %w", err)
		}
	}

	ing.logger.Info("ingestion complete",
		"prs", stats.PRs, "files", stats.Files, "reviews", stats.Reviews, "comments", stats.Comments,
		"skipped_area", stats.SkippedArea, "skipped_bot_cve", stats.SkippedBotCVE)
	return stats, nil
}

func anyAreaMatch(prAreas, wanted []string) bool {
	set := make(map[string]bool, len(prAreas))
	for _, a := range prAreas {
		set[a] = true
	}
	for _, a := range wanted {
		if set[a] {
			return true
		}
	}
	return false
}
