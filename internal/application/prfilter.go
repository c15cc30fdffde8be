package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// Default patterns matching common dependency-bump and CVE-patch bots.
// Conservative on purpose: genuine security work by humans stays in.
var (
	defaultBotAuthorPatterns = []string{
		`^dependabot(\[bot\])?$`,
		`^renovate(\[bot\])?$`,
		`^snyk-bot$`,
		`^greenkeeper(\[bot\])?$`,
		`^pyup-bot$`,
		`^whitesource-bolt-for-github(\[bot\])?$`,
		`^mend-bolt-for-github(\[bot\])?$`,
		`^deepsource-autofix(\[bot\])?$`,
		`^github-actions(\[bot\])?$`,
		`.*-bot$`,
		`.*\[bot\]$`,
	}

	defaultTitlePatterns = []string{
		`\bCVE-\d{4}-\d+\b`,
		`^(bump|update|upgrade)\b.+\bfrom\b.+\bto\b`,
		`^(chore|build)\s*(\(.+\))?:\s*(bump|update|upgrade)\b`,
		`\bdependency\s+(bump|update|upgrade)\b`,
		`^\[Security\]\s+Bump\b`,
		`^Update\s+\S+\s+requirement`,
		`dependabot`,
		`renovate`,
	}

	defaultLabelPatterns = []string{
		`^dependencies$`,
		`^automated(\s+pr)?$`,
		`^bot$`,
		`^security-patch$`,
		`^cve-patch$`,
		`^dep-update$`,
	}
)

// PRFilterPolicy configures the low-signal PR filter. The zero value is
// disabled; use DefaultPRFilterPolicy for the stock heuristics.
type PRFilterPolicy struct {
	Enabled bool `yaml:"enabled"`

	// Regex patterns, matched case-insensitively.
	BotAuthorPatterns []string `yaml:"bot_author_patterns"`
	TitlePatterns     []string `yaml:"title_patterns"`
	LabelPatterns     []string `yaml:"label_patterns"`

	// Allowlists always win over the patterns above.
	AllowlistAuthors         []string `yaml:"allowlist_authors"`
	AllowlistTitleSubstrings []string `yaml:"allowlist_title_substrings"`
}

// DefaultPRFilterPolicy returns the enabled stock policy.
func DefaultPRFilterPolicy() PRFilterPolicy {
	return PRFilterPolicy{
		Enabled:           true,
		BotAuthorPatterns: defaultBotAuthorPatterns,
		TitlePatterns:     defaultTitlePatterns,
		LabelPatterns:     defaultLabelPatterns,
	}
}

// PRClassifier decides whether a PR is low-signal automation output that
// ingestion should skip. A PR must match at least one signal to be skipped;
// allowlists always pass the PR through.
type PRClassifier struct {
	policy   PRFilterPolicy
	botRes   []*regexp.Regexp
	titleRes []*regexp.Regexp
	labelRes []*regexp.Regexp
}

// NewPRClassifier compiles the policy patterns. Invalid patterns are an
// error: a silently dropped filter rule would let bot PRs pollute profiles.
func NewPRClassifier(policy PRFilterPolicy) (*PRClassifier, error) {
	compile := func(patterns []string) ([]*regexp.Regexp, error) {
		res := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile filter pattern %q: %w", p, err)
			}
			res = append(res, re)
		}
		return res, nil
	}

	c := &PRClassifier{policy: policy}
	var err error
	if c.botRes, err = compile(policy.BotAuthorPatterns); err != nil {
		return nil, err
	}
	if c.titleRes, err = compile(policy.TitlePatterns); err != nil {
		return nil, err
	}
	if c.labelRes, err = compile(policy.LabelPatterns); err != nil {
		return nil, err
	}
	return c, nil
}

// ShouldSkip reports whether the PR should be skipped, with a short reason
// naming the matched heuristic. The reason is empty when skip is false.
func (c *PRClassifier) ShouldSkip(pr model.HistoricalPR) (bool, string) {
	if !c.policy.Enabled {
		return false, ""
	}

	for _, allowed := range c.policy.AllowlistAuthors {
		if strings.EqualFold(pr.Author, allowed) {
			return false, ""
		}
	}
	titleLower := strings.ToLower(pr.Title)
	for _, substr := range c.policy.AllowlistTitleSubstrings {
		if strings.Contains(titleLower, strings.ToLower(substr)) {
			return false, ""
		}
	}

	if pr.Author != "" && matchesAny(pr.Author, c.botRes) {
		return true, "bot-author:" + pr.Author
	}
	for i, re := range c.titleRes {
		if re.MatchString(pr.Title) {
			return true, "title-pattern:" + c.policy.TitlePatterns[i]
		}
	}
	for _, label := range pr.Labels {
		if label != "" && matchesAny(label, c.labelRes) {
			return true, "label:" + label
		}
	}
	return false, ""
}

func matchesAny(value string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
