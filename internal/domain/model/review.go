package model

// Evidence is a typed reference backing a review claim. Ref format depends
// on Type: "path:line" or a file path for diff evidence, a doc file/anchor
// for doc evidence, a PR/commit/discussion reference for history evidence.
type Evidence struct {
	Type    EvidenceType `json:"type"`
	Ref     string       `json:"ref"`
	Snippet string       `json:"snippet,omitempty"`
}

// ReviewComment is a single claim made by a simulated reviewer. Every
// non-question comment either carries valid Evidence or gets downgraded to
// a question by the evidence validator.
type ReviewComment struct {
	Kind       CommentKind `json:"kind"`
	Body       string      `json:"body"`
	File       string      `json:"file,omitempty"`
	Line       int         `json:"line,omitempty"` // 1-based patch line; 0 when not tied to a line.
	Evidence   *Evidence   `json:"evidence,omitempty"`
	Confidence float64     `json:"confidence"`
}

// ReviewerReview is one persona's complete output for a change.
type ReviewerReview struct {
	Reviewer       string          `json:"reviewer"`
	Category       string          `json:"category,omitempty"`
	SummaryBullets []string        `json:"summary_bullets"`
	Comments       []ReviewComment `json:"comments"`
	Verdict        Verdict         `json:"verdict"`
}
