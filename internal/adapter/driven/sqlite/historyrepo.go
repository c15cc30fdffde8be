package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.HistoryStore = (*HistoryRepo)(nil)

// HistoryRepo is the SQLite implementation of the HistoryStore port
// interface.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new HistoryRepo backed by the given DB.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// UpsertPR inserts or updates a PR and returns its database id. Labels are
// serialized as a JSON array in the TEXT column.
func (r *HistoryRepo) UpsertPR(ctx context.Context, pr model.HistoricalPR) (int64, error) {
	const query = `
		INSERT INTO prs (repo, number, title, author, created_at, merged_at, state, labels_json, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, number) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			created_at = excluded.created_at,
			merged_at = excluded.merged_at,
			state = excluded.state,
			labels_json = excluded.labels_json,
			body = excluded.body
	`

	labels := pr.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return 0, fmt.Errorf("marshal labels: %w", err)
	}

	var mergedAt any
	if pr.MergedAt != nil {
		mergedAt = formatTime(*pr.MergedAt)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query,
		pr.Repo, pr.Number, pr.Title, pr.Author, formatTime(pr.CreatedAt),
		mergedAt, pr.State, string(labelsJSON), pr.Body,
	); err != nil {
		return 0, fmt.Errorf("upsert PR %s#%d: %w", pr.Repo, pr.Number, err)
	}

	var id int64
	err = r.db.Reader.QueryRowContext(ctx,
		`SELECT id FROM prs WHERE repo = ? AND number = ?`, pr.Repo, pr.Number,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("get PR id %s#%d: %w", pr.Repo, pr.Number, err)
	}
	return id, nil
}

// InsertPRFiles stores the changed files of a PR. Duplicate rows on
// re-ingest are ignored.
func (r *HistoryRepo) InsertPRFiles(ctx context.Context, prID int64, files []model.HistoricalFile) error {
	const query = `
		INSERT OR IGNORE INTO pr_files (pr_id, path, additions, deletions)
		VALUES (?, ?, ?, ?)
	`
	for _, f := range files {
		if _, err := r.db.Writer.ExecContext(ctx, query, prID, f.Path, f.Additions, f.Deletions); err != nil {
			return fmt.Errorf("insert PR file %s: %w", f.Path, err)
		}
	}
	return nil
}

// InsertReview stores one review submission.
func (r *HistoryRepo) InsertReview(ctx context.Context, review model.HistoricalReview) error {
	const query = `
		INSERT OR IGNORE INTO reviews (pr_id, reviewer, state, submitted_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Writer.ExecContext(ctx, query,
		review.PRID, review.Reviewer, review.State, formatTime(review.SubmittedAt),
	); err != nil {
		return fmt.Errorf("insert review by %s: %w", review.Reviewer, err)
	}
	return nil
}

// InsertReviewComment stores one line-level review comment. The unique
// constraint on (pr_id, reviewer, path, created_at) makes re-ingest
// idempotent.
func (r *HistoryRepo) InsertReviewComment(ctx context.Context, comment model.HistoricalComment) error {
	const query = `
		INSERT OR IGNORE INTO review_comments (pr_id, reviewer, body, path, line, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Writer.ExecContext(ctx, query,
		comment.PRID, comment.Reviewer, comment.Body, comment.Path, comment.Line, formatTime(comment.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert review comment by %s: %w", comment.Reviewer, err)
	}
	return nil
}

// GetLastIngest returns the stored ingest watermark for a repo, or "" when
// the repo has never been ingested.
func (r *HistoryRepo) GetLastIngest(ctx context.Context, repo string) (string, error) {
	var value string
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, "last_ingest:"+repo,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last ingest for %s: %w", repo, err)
	}
	return value, nil
}

// SetLastIngest records the created_at watermark of the newest ingested PR.
func (r *HistoryRepo) SetLastIngest(ctx context.Context, repo string, timestamp string) error {
	const query = `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, "last_ingest:"+repo, timestamp); err != nil {
		return fmt.Errorf("set last ingest for %s: %w", repo, err)
	}
	return nil
}

// GetReviewerStats aggregates a reviewer's historical review behavior.
func (r *HistoryRepo) GetReviewerStats(ctx context.Context, repo, reviewer string) (model.ReviewerStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN r.state = 'APPROVED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN r.state = 'CHANGES_REQUESTED' THEN 1 ELSE 0 END), 0)
		FROM reviews r
		JOIN prs p ON p.id = r.pr_id
		WHERE p.repo = ? AND r.reviewer = ?
	`

	var stats model.ReviewerStats
	err := r.db.Reader.QueryRowContext(ctx, query, repo, reviewer).Scan(
		&stats.TotalReviews, &stats.Approved, &stats.ChangesRequested,
	)
	if err != nil {
		return model.ReviewerStats{}, fmt.Errorf("get reviewer stats for %s: %w", reviewer, err)
	}

	const commentQuery = `
		SELECT COUNT(*)
		FROM review_comments rc
		JOIN prs p ON p.id = rc.pr_id
		WHERE p.repo = ? AND rc.reviewer = ?
	`
	if err := r.db.Reader.QueryRowContext(ctx, commentQuery, repo, reviewer).Scan(&stats.TotalComments); err != nil {
		return model.ReviewerStats{}, fmt.Errorf("get reviewer comment count for %s: %w", reviewer, err)
	}
	return stats, nil
}

// GetReviewerComments returns a reviewer's comments, newest first.
func (r *HistoryRepo) GetReviewerComments(ctx context.Context, repo, reviewer string, limit int) ([]model.HistoricalComment, error) {
	const query = `
		SELECT rc.pr_id, rc.body, rc.path, rc.line, rc.created_at, p.number
		FROM review_comments rc
		JOIN prs p ON p.id = rc.pr_id
		WHERE p.repo = ? AND rc.reviewer = ?
		ORDER BY rc.created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repo, reviewer, limit)
	if err != nil {
		return nil, fmt.Errorf("query reviewer comments: %w", err)
	}
	defer rows.Close()

	var comments []model.HistoricalComment
	for rows.Next() {
		var c model.HistoricalComment
		var body, path, createdAt sql.NullString
		var line sql.NullInt64
		if err := rows.Scan(&c.PRID, &body, &path, &line, &createdAt, &c.PRNumber); err != nil {
			return nil, fmt.Errorf("scan review comment: %w", err)
		}
		c.Reviewer = reviewer
		c.Body = body.String
		c.Path = path.String
		c.Line = int(line.Int64)
		if createdAt.String != "" {
			t, err := parseTime(createdAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse comment created_at: %w", err)
			}
			c.CreatedAt = t
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review comments: %w", err)
	}
	return comments, nil
}

// GetTopReviewers ranks reviewers for a repo by review count.
func (r *HistoryRepo) GetTopReviewers(ctx context.Context, repo string, limit int) ([]model.ReviewerActivity, error) {
	const query = `
		SELECT r.reviewer, COUNT(*) AS review_count
		FROM reviews r
		JOIN prs p ON p.id = r.pr_id
		WHERE p.repo = ?
		GROUP BY r.reviewer
		ORDER BY review_count DESC
		LIMIT ?
	`
	return r.queryActivity(ctx, query, repo, limit)
}

// GetReviewersForPaths ranks reviewers by how many distinct PRs they
// commented on among PRs touching the given paths.
func (r *HistoryRepo) GetReviewersForPaths(ctx context.Context, repo string, paths []string, limit int) ([]model.ReviewerActivity, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(paths))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		SELECT rc.reviewer, COUNT(DISTINCT rc.pr_id) AS review_count
		FROM review_comments rc
		JOIN pr_files pf ON rc.pr_id = pf.pr_id
		JOIN prs p ON p.id = rc.pr_id
		WHERE p.repo = ? AND pf.path IN (%s)
		GROUP BY rc.reviewer
		ORDER BY review_count DESC
		LIMIT ?
	`, placeholders)

	args := make([]any, 0, len(paths)+2)
	args = append(args, repo)
	for _, p := range paths {
		args = append(args, p)
	}
	args = append(args, limit)

	return r.queryActivity(ctx, query, args...)
}

func (r *HistoryRepo) queryActivity(ctx context.Context, query string, args ...any) ([]model.ReviewerActivity, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviewer activity: %w", err)
	}
	defer rows.Close()

	var activity []model.ReviewerActivity
	for rows.Next() {
		var a model.ReviewerActivity
		if err := rows.Scan(&a.Reviewer, &a.ReviewCount); err != nil {
			return nil, fmt.Errorf("scan reviewer activity: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviewer activity: %w", err)
	}
	return activity, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
