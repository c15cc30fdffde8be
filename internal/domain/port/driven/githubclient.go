package driven

import (
	"context"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// GitHubClient fetches PR metadata, diffs, and review history from GitHub.
type GitHubClient interface {
	// FetchPR returns the title and body of a single pull request.
	FetchPR(ctx context.Context, repo string, number int) (title, body string, err error)

	// FetchPRDiff returns the whole-PR unified diff text.
	FetchPRDiff(ctx context.Context, repo string, number int) (string, error)

	// FetchPRFiles returns the changed files of a PR with per-file patches.
	FetchPRFiles(ctx context.Context, repo string, number int) ([]model.ChangedFile, error)

	// FetchClosedPRs lists closed PRs sorted by most recently updated.
	FetchClosedPRs(ctx context.Context, repo string, maxItems int) ([]model.HistoricalPR, error)

	// FetchReviews returns the review submissions on a PR.
	FetchReviews(ctx context.Context, repo string, number int) ([]model.HistoricalReview, error)

	// FetchReviewComments returns the line-level review comments on a PR.
	FetchReviewComments(ctx context.Context, repo string, number int) ([]model.HistoricalComment, error)

	// FetchFileContent returns the raw content of a file at HEAD, or
	// "", nil when the file does not exist.
	FetchFileContent(ctx context.Context, repo, path string) (string, error)
}
