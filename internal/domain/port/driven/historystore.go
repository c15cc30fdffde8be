// Package driven defines the outbound port interfaces implemented by
// storage, GitHub, and LLM adapters.
package driven

import (
	"context"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// HistoryStore persists ingested PR review history and answers the ranking
// and profiling queries built on top of it.
type HistoryStore interface {
	UpsertPR(ctx context.Context, pr model.HistoricalPR) (int64, error)
	InsertPRFiles(ctx context.Context, prID int64, files []model.HistoricalFile) error
	InsertReview(ctx context.Context, review model.HistoricalReview) error
	InsertReviewComment(ctx context.Context, comment model.HistoricalComment) error

	// GetLastIngest returns the created_at watermark of the most recent
	// ingested PR for a repo, or "" when the repo has never been ingested.
	GetLastIngest(ctx context.Context, repo string) (string, error)
	SetLastIngest(ctx context.Context, repo string, timestamp string) error

	GetReviewerStats(ctx context.Context, repo, reviewer string) (model.ReviewerStats, error)
	GetReviewerComments(ctx context.Context, repo, reviewer string, limit int) ([]model.HistoricalComment, error)
	GetTopReviewers(ctx context.Context, repo string, limit int) ([]model.ReviewerActivity, error)
	GetReviewersForPaths(ctx context.Context, repo string, paths []string, limit int) ([]model.ReviewerActivity, error)
}
