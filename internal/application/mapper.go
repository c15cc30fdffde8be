package application

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// areaRule labels paths with an area when the pattern matches anywhere in the
// path, case-insensitively. Earlier rules do not shadow later ones; a path
// can land in several areas.
type areaRule struct {
	pattern *regexp.Regexp
	area    string
}

var areaHeuristics = []areaRule{
	{regexp.MustCompile(`(?i)^api/`), "sig-api"},
	{regexp.MustCompile(`(?i)^pkg/api`), "sig-api"},
	{regexp.MustCompile(`(?i)^cmd/`), "sig-cli"},
	{regexp.MustCompile(`(?i)^pkg/kubectl`), "sig-cli"},
	{regexp.MustCompile(`(?i)^test/`), "sig-testing"},
	{regexp.MustCompile(`(?i)^hack/`), "sig-testing"},
	{regexp.MustCompile(`(?i)^docs/`), "sig-docs"},
	{regexp.MustCompile(`(?i)^vendor/`), "area-dependency"},
	{regexp.MustCompile(`(?i)^go\.mod$`), "area-dependency"},
	{regexp.MustCompile(`(?i)^go\.sum$`), "area-dependency"},
	{regexp.MustCompile(`(?i)requirements.*\.txt$`), "area-dependency"},
	{regexp.MustCompile(`(?i)^\.github/`), "area-ci"},
	{regexp.MustCompile(`(?i)^Makefile`), "area-build"},
	{regexp.MustCompile(`(?i)^Dockerfile`), "area-build"},
	{regexp.MustCompile(`(?i)^deploy/`), "sig-cluster-lifecycle"},
	{regexp.MustCompile(`(?i)^staging/`), "sig-api-machinery"},
	{regexp.MustCompile(`(?i)^pkg/controller`), "sig-apps"},
	{regexp.MustCompile(`(?i)^pkg/scheduler`), "sig-scheduling"},
	{regexp.MustCompile(`(?i)^pkg/proxy`), "sig-network"},
	{regexp.MustCompile(`(?i)^pkg/kubelet`), "sig-node"},
	{regexp.MustCompile(`(?i)^plugin/`), "sig-storage"},
	{regexp.MustCompile(`(?i)^pkg/volume`), "sig-storage"},
	{regexp.MustCompile(`(?i)^pkg/security`), "sig-auth"},
	{regexp.MustCompile(`(?i)^pkg/auth`), "sig-auth"},
	{regexp.MustCompile(`(?i)^cluster/`), "sig-cluster-lifecycle"},
	{regexp.MustCompile(`(?i)^src/`), "area-core"},
	{regexp.MustCompile(`(?i)^lib/`), "area-core"},
	{regexp.MustCompile(`(?i)^tests?/`), "area-testing"},
	{regexp.MustCompile(`(?i)^spec/`), "area-testing"},
}

var riskPatterns = []areaRule{
	{regexp.MustCompile(`(?i)(^api/|openapi|swagger|proto)`), model.RiskAPISurface},
	{regexp.MustCompile(`(?i)(security|auth|crypto|tls|cert|token|password|secret)`), model.RiskSecurity},
	{regexp.MustCompile(`(?i)(bench|perf|optim|cache|pool|buffer)`), model.RiskPerf},
	{regexp.MustCompile(`(?i)(compat|deprecat|migration|upgrade|breaking)`), model.RiskCompat},
	{regexp.MustCompile(`(?i)(window|wsl|win32|ntfs)`), model.RiskWindows},
	{regexp.MustCompile(`(?i)(config|\.env|\.yaml|\.toml|settings)`), model.RiskConfigChange},
	{regexp.MustCompile(`(?i)(require|depend|go\.mod|go\.sum|package\.json|Cargo\.toml)`), model.RiskNewDependency},
}

var (
	mapperTestFileRe = regexp.MustCompile(`(?i)(test|spec|_test\.|\.test\.|__tests__)`)
	mapperDocFileRe  = regexp.MustCompile(`(?i)(\.md$|\.rst$|\.txt$|docs/|doc/|README)`)
)

// ParseCodeowners parses GitHub CODEOWNERS content into ownership rules.
// Comment lines and lines without at least one owner are ignored; leading @
// is stripped from owner handles. Rule Repo is left for the caller to fill.
func ParseCodeowners(content string) []model.OwnershipRule {
	var rules []model.OwnershipRule
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		pattern := parts[0]
		for _, o := range parts[1:] {
			if strings.HasPrefix(o, "#") {
				continue
			}
			rules = append(rules, model.OwnershipRule{
				PathPattern: pattern,
				Owner:       strings.TrimPrefix(o, "@"),
				Source:      model.OwnershipSourceCodeowners,
			})
		}
	}
	return rules
}

// ParseOwnersFile parses a Kubernetes-style OWNERS file. Only flat
// approvers/reviewers list sections are supported. Every listed user gets a
// rule scoped to the file's directory ("**" at the repo root).
func ParseOwnersFile(content, directory string) []model.OwnershipRule {
	pattern := "**"
	if directory != "" {
		pattern = directory + "/**"
	}

	var rules []model.OwnershipRule
	var owners []string
	inSection := false

	flush := func() {
		for _, user := range owners {
			rules = append(rules, model.OwnershipRule{
				PathPattern: pattern,
				Owner:       user,
				Source:      model.OwnershipSourceOwners,
			})
		}
		owners = owners[:0]
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "approvers:") || strings.HasPrefix(line, "reviewers:") {
			if inSection {
				flush()
			}
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(line, "- ") {
			user := strings.Trim(strings.TrimSpace(line[2:]), `"'`)
			if user != "" {
				owners = append(owners, user)
			}
		}
	}
	if inSection {
		flush()
	}
	return rules
}

// RepoMapper classifies changed files into areas and risk flags, resolves
// likely reviewers from ownership rules and review history, and assembles
// the ChangeContext consumed by simulation.
type RepoMapper struct {
	ownership driven.OwnershipStore
	history   driven.HistoryStore
	gh        driven.GitHubClient
	logger    *slog.Logger
}

// NewRepoMapper creates a mapper. gh may be nil, which disables ownership
// ingestion but not context building.
func NewRepoMapper(ownership driven.OwnershipStore, history driven.HistoryStore, gh driven.GitHubClient) *RepoMapper {
	return &RepoMapper{
		ownership: ownership,
		history:   history,
		gh:        gh,
		logger:    slog.Default(),
	}
}

// codeownersLocations in lookup order; only the first file found is used.
var codeownersLocations = []string{"CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS"}

// IngestOwnership fetches CODEOWNERS and root OWNERS files from the repo and
// replaces the stored rules. Returns the number of rules stored.
func (m *RepoMapper) IngestOwnership(ctx context.Context, repo string) (int, error) {
	if m.gh == nil {
		m.logger.Warn("no GitHub client, skipping ownership ingestion", "repo", repo)
		return 0, nil
	}

	var rules []model.OwnershipRule

	for _, path := range codeownersLocations {
		content, err := m.gh.FetchFileContent(ctx, repo, path)
		if err != nil {
			return 0, err
		}
		if content == "" {
			continue
		}
		parsed := ParseCodeowners(content)
		rules = append(rules, parsed...)
		m.logger.Info("parsed ownership rules", "path", path, "rules", len(parsed))
		break
	}

	content, err := m.gh.FetchFileContent(ctx, repo, "OWNERS")
	if err != nil {
		return 0, err
	}
	if content != "" {
		parsed := ParseOwnersFile(content, "")
		rules = append(rules, parsed...)
		m.logger.Info("parsed ownership rules", "path", "OWNERS", "rules", len(parsed))
	}

	for i := range rules {
		rules[i].Repo = repo
	}
	if err := m.ownership.ReplaceRules(ctx, repo, rules); err != nil {
		return 0, err
	}
	return len(rules), nil
}

// DetectAreas returns the sorted set of area labels for the given paths.
func (m *RepoMapper) DetectAreas(paths []string) []string {
	set := make(map[string]bool)
	for _, path := range paths {
		for _, rule := range areaHeuristics {
			if rule.pattern.MatchString(path) {
				set[rule.area] = true
			}
		}
	}
	return sortedKeys(set)
}

// BuildChangeContext analyzes changed files into a ChangeContext. Store
// lookups are enrichment only: failures are logged and the context is built
// without them.
func (m *RepoMapper) BuildChangeContext(ctx context.Context, repo string, files []model.ChangedFile, prNumber int, prTitle, prBody, baseRef, headRef string) model.ChangeContext {
	areas := make(map[string]bool)
	riskFlags := make(map[string]bool)
	reviewers := make(map[string]bool)
	var relevantDocs []string

	totalAdd, totalDel := 0, 0
	for _, f := range files {
		totalAdd += f.Additions
		totalDel += f.Deletions
	}
	if totalAdd+totalDel > largeDiffThreshold {
		riskFlags[model.RiskLargeDiff] = true
	}

	allPaths := make([]string, len(files))
	for i, f := range files {
		allPaths[i] = f.Path
	}
	if len(allPaths) > 0 {
		allTests, allDocs := true, true
		for _, p := range allPaths {
			if !mapperTestFileRe.MatchString(p) {
				allTests = false
			}
			if !mapperDocFileRe.MatchString(p) {
				allDocs = false
			}
		}
		if allTests {
			riskFlags[model.RiskTestOnly] = true
		}
		if allDocs {
			riskFlags[model.RiskDocsOnly] = true
		}
	}

	for _, f := range files {
		for _, rule := range areaHeuristics {
			if rule.pattern.MatchString(f.Path) {
				areas[rule.area] = true
			}
		}
		for _, rule := range riskPatterns {
			if rule.pattern.MatchString(f.Path) {
				riskFlags[rule.area] = true
			}
		}
		if m.ownership != nil {
			owned, err := m.ownership.GetOwnersForPath(ctx, repo, f.Path)
			if err != nil {
				m.logger.Warn("ownership lookup failed", "path", f.Path, "error", err)
			} else {
				for _, rule := range owned {
					reviewers[rule.Owner] = true
				}
			}
		}
	}

	for _, p := range allPaths {
		if mapperDocFileRe.MatchString(p) {
			relevantDocs = append(relevantDocs, p)
		}
	}
	if !riskFlags[model.RiskTestOnly] && !riskFlags[model.RiskDocsOnly] {
		relevantDocs = append(relevantDocs, "CONTRIBUTING.md")
	}

	if m.history != nil {
		hist, err := m.history.GetReviewersForPaths(ctx, repo, allPaths, 10)
		if err != nil {
			m.logger.Warn("historical reviewer lookup failed", "repo", repo, "error", err)
		} else {
			for _, r := range hist {
				reviewers[r.Reviewer] = true
			}
		}
	}

	return model.ChangeContext{
		Repo:            repo,
		BaseRef:         baseRef,
		HeadRef:         headRef,
		PRNumber:        prNumber,
		PRTitle:         prTitle,
		PRBody:          prBody,
		ChangedFiles:    files,
		Areas:           sortedKeys(areas),
		LikelyReviewers: sortedKeys(reviewers),
		RelevantDocs:    relevantDocs,
		RiskFlags:       sortedKeys(riskFlags),
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
