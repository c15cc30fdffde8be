package model

import "time"

// Disagreement types emitted by the aggregator.
const (
	DisagreementVerdictSplit   = "verdict-split"
	DisagreementFileContention = "file-contention"
)

// Disagreement records a conflict between reviewers: either a verdict split
// (someone approves while someone else requests changes) or contention on a
// single file that includes at least one blocker.
type Disagreement struct {
	Type      string   `json:"type"`
	File      string   `json:"file,omitempty"`
	Approvers []string `json:"approvers,omitempty"`
	Rejecters []string `json:"rejecters,omitempty"`
	Reviewers []string `json:"reviewers,omitempty"`
	Note      string   `json:"note"`
}

// MaintainerSummary is the terminal artifact of one review run: the merged
// maintainer view over all simulated reviews. Immutable once built.
type MaintainerSummary struct {
	Repo              string           `json:"repo"`
	PRNumber          int              `json:"pr_number"`
	PRTitle           string           `json:"pr_title"`
	Verdict           MergeVerdict     `json:"verdict"`
	RiskFlags         []string         `json:"risk_flags"`
	ReviewerReviews   []ReviewerReview `json:"reviewer_reviews"`
	MergedBlockers    []ReviewComment  `json:"merged_blockers"`
	MergedSuggestions []ReviewComment  `json:"merged_suggestions"`
	Disagreements     []Disagreement   `json:"disagreements"`
	FixPlan           []string         `json:"fix_plan"`
	GeneratedAt       time.Time        `json:"generated_at"`
}
