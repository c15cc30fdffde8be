package model

// FocusWeights scores how much a reviewer cares about each topic, in [0, 1].
// Field declaration order is significant: it is the tie-break order when the
// simulator picks a persona's top focus areas.
type FocusWeights struct {
	API            float64 `json:"api" yaml:"api"`
	Tests          float64 `json:"tests" yaml:"tests"`
	Perf           float64 `json:"perf" yaml:"perf"`
	Docs           float64 `json:"docs" yaml:"docs"`
	Security       float64 `json:"security" yaml:"security"`
	Style          float64 `json:"style" yaml:"style"`
	BackwardCompat float64 `json:"backward_compat" yaml:"backward_compat"`
}

// Named returns (topic, weight) pairs in declaration order.
func (w FocusWeights) Named() []FocusWeight {
	return []FocusWeight{
		{"api", w.API},
		{"tests", w.Tests},
		{"perf", w.Perf},
		{"docs", w.Docs},
		{"security", w.Security},
		{"style", w.Style},
		{"backward_compat", w.BackwardCompat},
	}
}

// FocusWeight is one named topic weight.
type FocusWeight struct {
	Topic  string
	Weight float64
}

// ReviewerSkillCard is a persona profile: what a reviewer cares about, how
// readily they block, and behavioral stats mined from review history.
// Treated as immutable input to one simulation call.
type ReviewerSkillCard struct {
	Reviewer             string            `json:"reviewer"`
	FocusWeights         FocusWeights      `json:"focus_weights"`
	BlockingThreshold    BlockingThreshold `json:"blocking_threshold"`
	CommonBlockers       []string          `json:"common_blockers,omitempty"`
	StylePreferences     []string          `json:"style_preferences,omitempty"`
	EvidencePreferences  []string          `json:"evidence_preferences,omitempty"`
	RecentInterests      []string          `json:"recent_interests,omitempty"`
	QuoteBank            []string          `json:"quote_bank,omitempty"`
	TotalReviews         int               `json:"total_reviews"`
	ApprovalRate         float64           `json:"approval_rate"`
	AvgCommentsPerReview float64           `json:"avg_comments_per_review"`
}

// ReviewerInfo is a ranked reviewer candidate produced by discovery.
type ReviewerInfo struct {
	Login          string             `json:"login"`
	Score          float64            `json:"score"`
	Categories     []ReviewerCategory `json:"categories,omitempty"`
	OwnershipPaths []string           `json:"ownership_paths,omitempty"`
	ReviewCount    int                `json:"review_count"`
}
