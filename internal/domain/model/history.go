package model

import "time"

// HistoricalPR is a past pull request ingested from GitHub, used for
// reviewer profiling and discovery.
type HistoricalPR struct {
	ID        int64
	Repo      string
	Number    int
	Title     string
	Author    string
	Body      string
	State     string // "merged" or "closed".
	Labels    []string
	CreatedAt time.Time
	MergedAt  *time.Time
}

// HistoricalFile is one file touched by a historical PR.
type HistoricalFile struct {
	PRID      int64
	Path      string
	Additions int
	Deletions int
}

// HistoricalReview is a past review submission (APPROVED, CHANGES_REQUESTED,
// COMMENTED) on a historical PR.
type HistoricalReview struct {
	PRID        int64
	Reviewer    string
	State       string
	SubmittedAt time.Time
}

// HistoricalComment is a past line-level review comment.
type HistoricalComment struct {
	PRID      int64
	Reviewer  string
	Body      string
	Path      string
	Line      int
	PRNumber  int
	CreatedAt time.Time
}

// ReviewerStats aggregates one reviewer's historical behavior for a repo.
type ReviewerStats struct {
	TotalReviews     int
	Approved         int
	ChangesRequested int
	TotalComments    int
}

// ReviewerActivity is a (reviewer, review count) pair from a ranking query.
type ReviewerActivity struct {
	Reviewer    string
	ReviewCount int
}
