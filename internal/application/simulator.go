package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Focus areas with weight at or below this floor never qualify as a
// persona's top focus.
const focusWeightFloor = 0.2

// Comment caps per kind, applied before verdict computation.
const (
	maxBlockers     = 5
	maxMissingTests = 3
	maxSuggestions  = 4
	maxDocsNeeded   = 2
	maxQuestions    = 2
)

const largeDiffThreshold = 500

const systemPromptTemplate = `You are simulating a code reviewer named %q for a GitHub pull request.

## Your Reviewer Persona
- Focus areas (0-1 weights): %s
- Blocking threshold: %s (how often you request changes vs. just comment)
- Common blockers you typically flag: %s
- Style preferences: %s
- Evidence you typically ask for: %s
- Recent interests: %s
- Approval rate: %.0f%%
- Avg comments per review: %.1f

## Your Task
Review the PR diff below as this reviewer persona. Produce a structured JSON response.

## Rules
1. Every comment MUST include an "evidence" object with:
   - type: "diff" (file+line reference), "doc" (repo doc reference), or "history" (prior PR reference)
   - ref: specific reference string (e.g., "src/foo.go:42" or "CONTRIBUTING.md#style")
   - snippet: the relevant code/text snippet
2. If you cannot provide evidence for a concern, convert it to a "question" instead of a claim.
3. Stay in character for this reviewer persona. Focus on their areas of expertise.
4. Be specific and actionable. No vague comments.

## Output Format (JSON)
{
  "summary_bullets": ["bullet 1", "bullet 2", "bullet 3"],
  "verdict": "approve" | "request-changes" | "comment",
  "comments": [
    {
      "kind": "blocker" | "suggestion" | "missing-test" | "docs-needed" | "question",
      "body": "description of the issue",
      "file": "path/to/file.go",
      "line": 42,
      "evidence": {
        "type": "diff" | "doc" | "history",
        "ref": "path/to/file.go:42",
        "snippet": "relevant code snippet"
      },
      "confidence": 0.9
    }
  ]
}
`

const userPromptTemplate = `## PR Info
- Repository: %s
- PR: %s %s
- Areas: %s
- Risk flags: %s

## Changed Files
%s

## Diff
` + "```diff\n%s\n```" + `

Review this PR as the %q persona. Return ONLY valid JSON matching the specified format.
`

// ReviewSimulator produces one structured review per persona, via the
// injected LLM when available and heuristic scanners otherwise. The
// heuristic path never fails and is the availability guarantee: any LLM
// error is logged and demoted to a fallback for that persona only.
type ReviewSimulator struct {
	llm            driven.ReviewerLLM
	validator      *EvidenceValidator
	strictEvidence bool
	maxTokens      int
	maxDiffChars   int
	logger         *slog.Logger
}

// NewReviewSimulator creates a simulator. llm may be nil, which selects the
// heuristic-only path.
func NewReviewSimulator(llm driven.ReviewerLLM, strictEvidence bool, maxTokens, maxDiffChars int) *ReviewSimulator {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if maxDiffChars <= 0 {
		maxDiffChars = 12000
	}
	return &ReviewSimulator{
		llm:            llm,
		validator:      NewEvidenceValidator(strictEvidence),
		strictEvidence: strictEvidence,
		maxTokens:      maxTokens,
		maxDiffChars:   maxDiffChars,
		logger:         slog.Default(),
	}
}

// SimulateReview generates a single persona's review.
func (s *ReviewSimulator) SimulateReview(ctx context.Context, change model.ChangeContext, diffText string, card model.ReviewerSkillCard) model.ReviewerReview {
	if s.llm != nil {
		review, err := s.simulateWithLLM(ctx, change, diffText, card)
		if err == nil {
			return review
		}
		s.logger.Warn("LLM simulation failed, falling back to heuristics", "reviewer", card.Reviewer, "error", err)
	}
	return s.simulateHeuristic(change, diffText, card)
}

// SimulateAll generates one review per skill card, in input order. Each
// simulation is independent; one persona's LLM failure never affects the rest.
func (s *ReviewSimulator) SimulateAll(ctx context.Context, change model.ChangeContext, diffText string, cards []model.ReviewerSkillCard) []model.ReviewerReview {
	reviews := make([]model.ReviewerReview, 0, len(cards))
	for _, card := range cards {
		s.logger.Info("simulating review", "reviewer", card.Reviewer)
		reviews = append(reviews, s.SimulateReview(ctx, change, diffText, card))
	}
	return reviews
}

// --- LLM path ---

func (s *ReviewSimulator) simulateWithLLM(ctx context.Context, change model.ChangeContext, diffText string, card model.ReviewerSkillCard) (model.ReviewerReview, error) {
	system := buildSystemPrompt(card)
	user := buildUserPrompt(change, diffText, card.Reviewer, s.maxDiffChars)

	raw, err := s.llm.Generate(ctx, system, user, s.maxTokens)
	if err != nil {
		return model.ReviewerReview{}, fmt.Errorf("generate review for %s: %w", card.Reviewer, err)
	}

	review := parseLLMResponse(card.Reviewer, raw)
	if s.strictEvidence {
		review = s.validator.ValidateReview(review)
	}
	return review, nil
}

func buildSystemPrompt(card model.ReviewerSkillCard) string {
	weights := make([]string, 0, 7)
	for _, fw := range card.FocusWeights.Named() {
		weights = append(weights, fmt.Sprintf("%s=%.2f", fw.Topic, fw.Weight))
	}
	return fmt.Sprintf(systemPromptTemplate,
		card.Reviewer,
		strings.Join(weights, ", "),
		card.BlockingThreshold,
		joinOr(card.CommonBlockers, "none identified"),
		joinOr(card.StylePreferences, "none identified"),
		joinOr(card.EvidencePreferences, "none identified"),
		joinOr(card.RecentInterests, "general"),
		card.ApprovalRate*100,
		card.AvgCommentsPerReview,
	)
}

func buildUserPrompt(change model.ChangeContext, diffText, reviewer string, maxDiffChars int) string {
	var fileSummary strings.Builder
	for _, f := range change.ChangedFiles {
		fmt.Fprintf(&fileSummary, "- %s (+%d/-%d)\n", f.Path, f.Additions, f.Deletions)
	}

	truncated := diffText
	if len(diffText) > maxDiffChars {
		truncated = diffText[:maxDiffChars] +
			fmt.Sprintf("\n... (diff truncated, %d chars omitted)", len(diffText)-maxDiffChars)
	}

	prNumber := "N/A"
	if change.PRNumber > 0 {
		prNumber = fmt.Sprintf("#%d", change.PRNumber)
	}

	return fmt.Sprintf(userPromptTemplate,
		change.Repo,
		prNumber,
		change.PRTitle,
		joinOr(change.Areas, "unclassified"),
		joinOr(change.RiskFlags, "none"),
		strings.TrimRight(fileSummary.String(), "\n"),
		truncated,
		reviewer,
	)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// llmReview mirrors the JSON shape the model is asked to return.
type llmReview struct {
	SummaryBullets []string     `json:"summary_bullets"`
	Verdict        string       `json:"verdict"`
	Comments       []llmComment `json:"comments"`
}

type llmComment struct {
	Kind       string       `json:"kind"`
	Body       string       `json:"body"`
	File       string       `json:"file"`
	Line       int          `json:"line"`
	Evidence   *llmEvidence `json:"evidence"`
	Confidence *float64     `json:"confidence"`
}

type llmEvidence struct {
	Type    string `json:"type"`
	Ref     string `json:"ref"`
	Snippet string `json:"snippet"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)```")

// extractJSONObject pulls one JSON object out of LLM response text,
// tolerating markdown fencing and surrounding prose.
func extractJSONObject(text string) (llmReview, bool) {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var parsed llmReview
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed, true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err == nil {
			return parsed, true
		}
	}
	return llmReview{}, false
}

// parseLLMResponse converts raw model output into a ReviewerReview. Total
// parse failure yields a degraded-but-valid review rather than an error.
func parseLLMResponse(reviewer, raw string) model.ReviewerReview {
	parsed, ok := extractJSONObject(raw)
	if !ok {
		slog.Warn("failed to parse JSON from LLM response", "reviewer", reviewer)
		return model.ReviewerReview{
			Reviewer:       reviewer,
			SummaryBullets: []string{"Failed to parse LLM response"},
			Comments:       []model.ReviewComment{},
			Verdict:        model.VerdictComment,
		}
	}

	comments := make([]model.ReviewComment, 0, len(parsed.Comments))
	for _, c := range parsed.Comments {
		var evidence *model.Evidence
		if c.Evidence != nil {
			// Unrecognized evidence types are discarded, not trusted; the
			// validator then downgrades the comment.
			if typ, ok := model.ParseEvidenceType(c.Evidence.Type); ok {
				evidence = &model.Evidence{Type: typ, Ref: c.Evidence.Ref, Snippet: c.Evidence.Snippet}
			}
		}

		kind := model.CommentKind(c.Kind)
		if kind == "" {
			kind = model.KindSuggestion
		}

		confidence := 0.8
		if c.Confidence != nil {
			confidence = *c.Confidence
		}

		comments = append(comments, model.ReviewComment{
			Kind:       kind,
			Body:       c.Body,
			File:       c.File,
			Line:       c.Line,
			Evidence:   evidence,
			Confidence: confidence,
		})
	}

	verdict := model.Verdict(parsed.Verdict)
	if verdict == "" {
		verdict = model.VerdictComment
	}

	return model.ReviewerReview{
		Reviewer:       reviewer,
		SummaryBullets: parsed.SummaryBullets,
		Comments:       comments,
		Verdict:        verdict,
	}
}

// --- Heuristic path ---

// topFocusAreas returns the persona's top two focus topics above the weight
// floor, ties broken by FocusWeights declaration order. Personas with no
// qualifying topic fall back to tests+style.
func topFocusAreas(card model.ReviewerSkillCard) map[string]bool {
	named := card.FocusWeights.Named()
	sort.SliceStable(named, func(i, j int) bool { return named[i].Weight > named[j].Weight })

	top := make(map[string]bool, 2)
	for _, fw := range named {
		if len(top) == 2 {
			break
		}
		if fw.Weight > focusWeightFloor {
			top[fw.Topic] = true
		}
	}
	if len(top) == 0 {
		top["tests"] = true
		top["style"] = true
	}
	return top
}

func (s *ReviewSimulator) simulateHeuristic(change model.ChangeContext, diffText string, card model.ReviewerSkillCard) model.ReviewerReview {
	_ = diffText // per-file patches carry everything the scanners need

	var comments []model.ReviewComment
	var bullets []string

	files := change.ChangedFiles
	allPaths := make([]string, len(files))
	for i, f := range files {
		allPaths[i] = f.Path
	}
	totalAdd := change.TotalAdditions()
	totalDel := change.TotalDeletions()

	bullets = append(bullets, fmt.Sprintf("PR touches %d file(s) with +%d/-%d lines", len(files), totalAdd, totalDel))

	focus := topFocusAreas(card)

	// Large diff note, only from style-focused or high-blocking personas.
	if totalAdd+totalDel > largeDiffThreshold && (focus["style"] || card.BlockingThreshold == model.BlockingHigh) {
		comments = append(comments, model.ReviewComment{
			Kind: model.KindSuggestion,
			Body: "This is a large PR. Consider splitting into smaller, focused changes for easier review.",
			Evidence: &model.Evidence{
				Type:    model.EvidenceDiff,
				Ref:     fmt.Sprintf("%d files changed", len(files)),
				Snippet: fmt.Sprintf("+%d/-%d lines across %d files", totalAdd, totalDel, len(files)),
			},
			Confidence: 1.0,
		})
	}

	missingTestCount := 0

	for _, cf := range files {
		path := cf.Path
		patch := cf.Patch

		if focus["tests"] && missingTestCount < maxMissingTests {
			if !hasCorrespondingTest(path, allPaths) && !isTestFile(path) && !isDocFile(path) && !isConfigFile(path) {
				comments = append(comments, model.ReviewComment{
					Kind: model.KindMissingTest,
					Body: fmt.Sprintf("No corresponding test file found for `%s`. Consider adding unit tests covering the new/changed logic.", path),
					File: path,
					Evidence: &model.Evidence{
						Type:    model.EvidenceDiff,
						Ref:     path,
						Snippet: "Changed file without test coverage: " + path,
					},
					Confidence: 1.0,
				})
				missingTestCount++
			}
		}

		if focus["tests"] && isTestFile(path) && patch != "" {
			comments = append(comments, scanTestQuality(path, patch)...)
		}

		if focus["security"] && patch != "" {
			comments = append(comments, scanSecurityPatterns(path, patch)...)
		}

		if focus["api"] || focus["backward_compat"] {
			if apiSurfacePathRe.MatchString(path) {
				bullets = append(bullets, fmt.Sprintf("API surface change detected in `%s`", path))
				kind := model.KindSuggestion
				if card.BlockingThreshold == model.BlockingHigh {
					kind = model.KindBlocker
				}
				comments = append(comments, model.ReviewComment{
					Kind: kind,
					Body: fmt.Sprintf("API surface change in `%s`. Ensure backward compatibility and version bump if needed.", path),
					File: path,
					Evidence: &model.Evidence{
						Type:    model.EvidenceDiff,
						Ref:     path,
						Snippet: "API file modified: " + path,
					},
					Confidence: 1.0,
				})
			}
			if patch != "" {
				comments = append(comments, scanAPIChanges(path, patch)...)
			}
		}

		if focus["style"] && patch != "" {
			comments = append(comments, scanStylePatterns(path, patch)...)
		}

		if focus["perf"] && patch != "" {
			comments = append(comments, scanPerfPatterns(path, patch)...)
		}

		if focus["docs"] && isDocFile(path) {
			bullets = append(bullets, fmt.Sprintf("Documentation update in `%s`", path))
		}

		if patch != "" {
			comments = append(comments, scanCodeQuality(path, patch)...)
		}
	}

	// Repo-wide docs pass: significant change with no doc updates.
	if focus["docs"] && totalAdd > 50 {
		docTouched := false
		for _, f := range files {
			if isDocFile(f.Path) {
				docTouched = true
				break
			}
		}
		if !docTouched {
			comments = append(comments, model.ReviewComment{
				Kind: model.KindDocsNeeded,
				Body: "This PR has significant code changes but no documentation updates. Consider adding or updating docs/comments.",
				Evidence: &model.Evidence{
					Type:    model.EvidenceDiff,
					Ref:     fmt.Sprintf("%d files changed", len(files)),
					Snippet: fmt.Sprintf("+%d lines without doc changes", totalAdd),
				},
				Confidence: 1.0,
			})
		}
	}

	// Repo-wide compat pass: removed exported symbols per file.
	if focus["backward_compat"] {
		comments = append(comments, scanCompatChanges(files)...)
	}

	bullets = append(bullets, "Reviewed with focus on **"+focusDescriptor(focus)+"**")
	bullets = append(bullets, "Areas of context: "+areasDescriptor(change.Areas))
	if len(card.CommonBlockers) > 0 {
		n := min(3, len(card.CommonBlockers))
		bullets = append(bullets, "Watch list: "+strings.Join(card.CommonBlockers[:n], ", "))
	}
	if len(bullets) > 4 {
		bullets = bullets[:4]
	}

	// Partition and cap by kind, in fixed order, before the verdict.
	var blockers, missingTests, suggestions, questions, docsNeeded []model.ReviewComment
	for _, c := range comments {
		switch c.Kind {
		case model.KindBlocker:
			blockers = append(blockers, c)
		case model.KindMissingTest:
			missingTests = append(missingTests, c)
		case model.KindSuggestion:
			suggestions = append(suggestions, c)
		case model.KindQuestion:
			questions = append(questions, c)
		case model.KindDocsNeeded:
			docsNeeded = append(docsNeeded, c)
		}
	}
	capped := capComments(blockers, maxBlockers)
	capped = append(capped, capComments(missingTests, maxMissingTests)...)
	capped = append(capped, capComments(suggestions, maxSuggestions)...)
	capped = append(capped, capComments(docsNeeded, maxDocsNeeded)...)
	capped = append(capped, capComments(questions, maxQuestions)...)

	verdict := heuristicVerdict(card.BlockingThreshold, len(blockers), len(missingTests), len(capped))

	if s.strictEvidence {
		capped = s.validator.ValidateComments(capped)
	}

	return model.ReviewerReview{
		Reviewer:       card.Reviewer,
		Category:       string(card.BlockingThreshold),
		SummaryBullets: bullets,
		Comments:       capped,
		Verdict:        verdict,
	}
}

// heuristicVerdict applies the documented rule order. The medium-threshold
// branch is unreachable given the first rule; it is kept deliberately to
// match the documented priority order.
func heuristicVerdict(threshold model.BlockingThreshold, blockers, missingTests, totalComments int) model.Verdict {
	switch {
	case blockers > 0:
		return model.VerdictRequestChanges
	case threshold == model.BlockingHigh && (missingTests > 1 || totalComments > 3):
		return model.VerdictRequestChanges
	case threshold == model.BlockingMedium && blockers > 0:
		return model.VerdictRequestChanges
	case totalComments == 0:
		return model.VerdictApprove
	default:
		return model.VerdictComment
	}
}

func focusDescriptor(focus map[string]bool) string {
	// Stable output: walk topics in declaration order.
	var names []string
	for _, fw := range (model.FocusWeights{}).Named() {
		if focus[fw.Topic] {
			names = append(names, strings.ReplaceAll(fw.Topic, "_", " "))
		}
	}
	return strings.Join(names, " and ")
}

func areasDescriptor(areas []string) string {
	if len(areas) == 0 {
		return "general"
	}
	n := min(3, len(areas))
	return strings.Join(areas[:n], ", ")
}
