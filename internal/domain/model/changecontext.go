package model

// ChangedFile is one file touched by a PR, with its raw per-file patch text.
// Immutable once constructed.
type ChangedFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// ChangeContext is the analyzed view of one code change: the files it
// touches plus detected areas, risk flags, and likely reviewers. Built once
// per review run and treated as read-only by simulation and aggregation.
type ChangeContext struct {
	Repo            string        `json:"repo"`
	BaseRef         string        `json:"base_ref"`
	HeadRef         string        `json:"head_ref"`
	PRNumber        int           `json:"pr_number"` // 0 when reviewing a local diff.
	PRTitle         string        `json:"pr_title"`
	PRBody          string        `json:"pr_body"`
	ChangedFiles    []ChangedFile `json:"changed_files"`
	Areas           []string      `json:"areas"`
	LikelyReviewers []string      `json:"likely_reviewers"`
	RelevantDocs    []string      `json:"relevant_docs"`
	RiskFlags       []string      `json:"risk_flags"`
}

// TotalAdditions returns the sum of added lines across all changed files.
func (c ChangeContext) TotalAdditions() int {
	total := 0
	for _, f := range c.ChangedFiles {
		total += f.Additions
	}
	return total
}

// TotalDeletions returns the sum of deleted lines across all changed files.
func (c ChangeContext) TotalDeletions() int {
	total := 0
	for _, f := range c.ChangedFiles {
		total += f.Deletions
	}
	return total
}

// HasRiskFlag reports whether the given flag was detected on this change.
func (c ChangeContext) HasRiskFlag(flag string) bool {
	for _, f := range c.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}
