package model

// EvidenceType identifies what kind of reference backs a review claim.
type EvidenceType string

const (
	EvidenceDiff    EvidenceType = "diff"    // File/line reference into the PR diff.
	EvidenceDoc     EvidenceType = "doc"     // Repository documentation reference.
	EvidenceHistory EvidenceType = "history" // Prior PR, commit, or discussion reference.
)

// ParseEvidenceType maps a raw string to an EvidenceType. Returns false for
// unrecognized values so callers can discard evidence instead of trusting it.
func ParseEvidenceType(s string) (EvidenceType, bool) {
	switch EvidenceType(s) {
	case EvidenceDiff, EvidenceDoc, EvidenceHistory:
		return EvidenceType(s), true
	}
	return "", false
}

// CommentKind classifies a review comment.
type CommentKind string

const (
	KindBlocker     CommentKind = "blocker"
	KindSuggestion  CommentKind = "suggestion"
	KindMissingTest CommentKind = "missing-test"
	KindDocsNeeded  CommentKind = "docs-needed"
	KindQuestion    CommentKind = "question"
)

// Verdict is a single reviewer's conclusion on a PR.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request-changes"
	VerdictComment        Verdict = "comment"
)

// MergeVerdict is the aggregated maintainer recommendation.
type MergeVerdict string

const (
	MergeReady        MergeVerdict = "READY"
	MergeNeedsChanges MergeVerdict = "NEEDS_CHANGES"
	MergeRisky        MergeVerdict = "RISKY"
)

// BlockingThreshold controls how readily a persona requests changes.
type BlockingThreshold string

const (
	BlockingLow    BlockingThreshold = "low"
	BlockingMedium BlockingThreshold = "medium"
	BlockingHigh   BlockingThreshold = "high"
)

// ReviewerCategory is a coarse label for a reviewer's historical behavior.
type ReviewerCategory string

const (
	CategoryPrimaryOwner     ReviewerCategory = "primary-owner"
	CategoryTestCIHawk       ReviewerCategory = "test-ci-hawk"
	CategoryAPIStabilityHawk ReviewerCategory = "api-stability-hawk"
	CategorySecurityHawk     ReviewerCategory = "security-hawk"
	CategoryDocsHawk         ReviewerCategory = "docs-hawk"
	CategoryGeneral          ReviewerCategory = "general"
)

// Risk flags attached to a ChangeContext by path and size heuristics.
const (
	RiskAPISurface    = "api-surface"
	RiskSecurity      = "security"
	RiskPerf          = "perf"
	RiskCompat        = "compat"
	RiskWindows       = "windows"
	RiskLargeDiff     = "large-diff"
	RiskNewDependency = "new-dependency"
	RiskConfigChange  = "config-change"
	RiskTestOnly      = "test-only"
	RiskDocsOnly      = "docs-only"
)
