package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// Per-file caps keep any single scanner from flooding a review.
const (
	maxSecurityPerFile = 3
	maxStylePerFile    = 2
	maxPerfPerFile     = 2
	maxAPIPerFile      = 3
	maxTestQualPerFile = 2
	maxQualityPerFile  = 2
	maxCompatFindings  = 3
)

// File-classification patterns shared across scanners and mapping.
var (
	testFileRe   = regexp.MustCompile(`(?i)(test|spec|_test\.|\.test\.|__tests__)`)
	docFileRe    = regexp.MustCompile(`(?i)(\.md$|\.rst$|\.txt$|docs?/|README)`)
	configFileRe = regexp.MustCompile(`(?i)(\.yaml$|\.yml$|\.json$|\.toml$|\.cfg$|\.ini$|\.conf$|Makefile|Dockerfile|\.github/)`)
)

// Security anti-patterns over added lines.
var (
	hardcodedSecretRe = regexp.MustCompile(`(?i)(password|secret|token|api_key)\s*=\s*['"][^'"]+['"]`)
	sqlBuildRe        = regexp.MustCompile(`(?i)(f['"].*SELECT|\.format\(.*SELECT|%s.*SELECT)`)
	evalCallRe        = regexp.MustCompile(`\beval\s*\(`)
	unsafePointerRe   = regexp.MustCompile(`unsafe\.Pointer`)
	sprintfCallRe     = regexp.MustCompile(`fmt\.Sprintf\s*\(.*(%s|%d|%v).*\)`)
	queryContextRe    = regexp.MustCompile(`(?i)(query|exec|command|sql|cmd)`)
	insecureTLSRe     = regexp.MustCompile(`InsecureSkipVerify\s*:\s*true|verify\s*=\s*False|VERIFY_NONE`)
)

// Style, perf, API-surface, and quality patterns.
var (
	todoMarkerRe      = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)\b`)
	pyLoopRe          = regexp.MustCompile(`for.*in.*:\s*$`)
	ioCallRe          = regexp.MustCompile(`(\.query|\.execute|\.fetch|\.get\(|requests\.|http\.)`)
	goLoopRe          = regexp.MustCompile(`for\s+.*{`)
	loopAllocRe       = regexp.MustCompile(`\bmake\s*\(|append\s*\(.*make`)
	mutexAssignRe     = regexp.MustCompile(`=\s*sync\.Mutex`)
	exportedFuncRe    = regexp.MustCompile(`^func\s+[A-Z]|^func\s+\([^)]+\)\s+[A-Z]`)
	exportedTypeRe    = regexp.MustCompile(`^type\s+[A-Z]\w*\s+(struct|interface)`)
	exportedConstRe   = regexp.MustCompile(`^(const|var)\s+[A-Z]`)
	removedExportRe   = regexp.MustCompile(`^func\s+[A-Z]|^type\s+[A-Z]|^const\s+[A-Z]|^var\s+[A-Z]`)
	testFuncRe        = regexp.MustCompile(`func\s+Test|def\s+test_|it\(|describe\(`)
	assertionRe       = regexp.MustCompile(`assert|expect|require\.|should|Equal|NotNil|Error|NoError`)
	sleepCallRe       = regexp.MustCompile(`time\.Sleep|sleep\(|Thread\.sleep`)
	panicCallRe       = regexp.MustCompile(`\bpanic\s*\(`)
	errAssignRe       = regexp.MustCompile(`\berr\b.*=.*\(.*\)$`)
	errCheckRe        = regexp.MustCompile(`if\s+err`)
	errHandledRe      = regexp.MustCompile(`if\s+err|return.*err`)
	apiSurfacePathRe  = regexp.MustCompile(`(?i)(api|proto|schema|swagger|openapi|types\.go|u8proto)`)
)

func isTestFile(path string) bool   { return testFileRe.MatchString(path) }
func isDocFile(path string) bool    { return docFileRe.MatchString(path) }
func isConfigFile(path string) bool { return configFileRe.MatchString(path) }

// hasCorrespondingTest reports whether a plausibly matching test file for
// path appears in the changed set.
func hasCorrespondingTest(path string, allPaths []string) bool {
	if isTestFile(path) || isDocFile(path) {
		return true
	}

	parts := strings.Split(path, "/")
	base := parts[len(parts)-1]
	base = regexp.MustCompile(`\.(py|js|ts|go|rs|java)$`).ReplaceAllString(base, "")

	candidates := []string{
		"test_" + base,
		base + "_test",
		base + ".test",
		base + ".spec",
		"test/" + base,
		"tests/" + base,
	}
	for _, p := range allPaths {
		for _, cand := range candidates {
			if strings.Contains(p, cand) {
				return true
			}
		}
	}
	return false
}

func snippet(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

func diffEvidenceAt(path string, line int, content string) *model.Evidence {
	return &model.Evidence{
		Type:    model.EvidenceDiff,
		Ref:     fmt.Sprintf("%s:%d", path, line),
		Snippet: snippet(content, 80),
	}
}

// scanSecurityPatterns flags credential, injection, eval, unsafe-pointer,
// and disabled-TLS patterns on added lines. Capped per file.
func scanSecurityPatterns(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		lineNo := i + 1

		if hardcodedSecretRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "Possible hardcoded secret/credential detected. Use environment variables or a secrets manager.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if sqlBuildRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "Possible SQL injection vector. Use parameterized queries.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if evalCallRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "`eval()` usage detected. This is a security risk. Consider safer alternatives.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if unsafePointerRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "`unsafe.Pointer` usage detected. Ensure this is necessary and well-documented; unsafe code bypasses Go's type safety.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if sprintfCallRe.MatchString(content) && queryContextRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "String formatting used to build a query/command. This may be an injection vector. Use parameterized APIs.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if insecureTLSRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "TLS verification disabled. This should not reach production; it enables man-in-the-middle attacks.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
	}
	return capComments(issues, maxSecurityPerFile)
}

// scanStylePatterns flags TODO markers and overlong lines. Capped per file.
func scanStylePatterns(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		lineNo := i + 1

		if todoMarkerRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "TODO/FIXME comment found. Is this intentional for this PR, or should it be addressed?",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
		if len(content) > 120 {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       fmt.Sprintf("Line exceeds 120 characters (%d chars). Consider breaking it up.", len(content)),
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
	}
	return capComments(issues, maxStylePerFile)
}

// scanPerfPatterns flags I/O in loop bodies, allocations inside loops, and
// mutex-by-value assignment. Capped per file.
func scanPerfPatterns(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		lineNo := i + 1

		// N+1 pattern: I/O call on the line immediately inside a loop.
		if pyLoopRe.MatchString(content) && i+1 < len(lines) {
			next := ""
			if strings.HasPrefix(lines[i+1], "+") {
				next = lines[i+1][1:]
			}
			if ioCallRe.MatchString(next) {
				issues = append(issues, model.ReviewComment{
					Kind:       model.KindSuggestion,
					Body:       "Possible N+1 pattern: I/O call inside a loop. Consider batching.",
					File:       path,
					Line:       lineNo,
					Evidence:   diffEvidenceAt(path, lineNo, content),
					Confidence: 1.0,
				})
			}
		}

		if strings.HasSuffix(path, ".go") {
			// Allocation in a loop body: check the next few added lines.
			if goLoopRe.MatchString(content) {
				for j := i + 1; j < min(i+5, len(lines)); j++ {
					if !strings.HasPrefix(lines[j], "+") {
						continue
					}
					nl := lines[j][1:]
					if loopAllocRe.MatchString(nl) {
						issues = append(issues, model.ReviewComment{
							Kind:       model.KindSuggestion,
							Body:       "Allocation (`make`/`append`) inside a loop. Consider pre-allocating the slice/map before the loop.",
							File:       path,
							Line:       j + 1,
							Evidence:   diffEvidenceAt(path, j+1, nl),
							Confidence: 1.0,
						})
						break
					}
				}
			}

			if mutexAssignRe.MatchString(content) && !strings.Contains(content, "*sync.Mutex") {
				issues = append(issues, model.ReviewComment{
					Kind:       model.KindSuggestion,
					Body:       "`sync.Mutex` should not be copied. Ensure it is used by pointer or embedded in a struct.",
					File:       path,
					Line:       lineNo,
					Evidence:   diffEvidenceAt(path, lineNo, content),
					Confidence: 1.0,
				})
			}
		}
	}
	return capComments(issues, maxPerfPerFile)
}

// scanAPIChanges flags newly added exported symbols as suggestions and
// removed exported symbols as blockers. Capped per file.
func scanAPIChanges(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		lineNo := i + 1

		if exportedFuncRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "New exported function added. Verify this is intentional API surface expansion and document the public interface.",
				File:       path,
				Line:       lineNo,
				Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: fmt.Sprintf("%s:%d", path, lineNo), Snippet: snippet(content, 100)},
				Confidence: 1.0,
			})
		}
		if exportedTypeRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "New exported type defined. Ensure naming follows project conventions and consider adding godoc.",
				File:       path,
				Line:       lineNo,
				Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: fmt.Sprintf("%s:%d", path, lineNo), Snippet: snippet(content, 100)},
				Confidence: 1.0,
			})
		}
		if exportedConstRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "New exported constant/variable. Verify naming and add documentation comment.",
				File:       path,
				Line:       lineNo,
				Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: fmt.Sprintf("%s:%d", path, lineNo), Snippet: snippet(content, 100)},
				Confidence: 1.0,
			})
		}
	}

	for i, line := range lines {
		if !strings.HasPrefix(line, "-") || strings.HasPrefix(line, "---") {
			continue
		}
		content := line[1:]
		lineNo := i + 1
		if exportedFuncRe.MatchString(content) || exportedTypeRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "Exported symbol removed; this is a breaking API change. Ensure this is intentional and deprecation was announced.",
				File:       path,
				Line:       lineNo,
				Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: fmt.Sprintf("%s:%d", path, lineNo), Snippet: snippet(content, 100)},
				Confidence: 1.0,
			})
		}
	}

	return capComments(issues, maxAPIPerFile)
}

// scanTestQuality flags test functions without visible assertions and
// hardcoded sleeps in test patches. Capped per file.
func scanTestQuality(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	var added []string
	for _, line := range lines {
		if strings.HasPrefix(line, "+") {
			added = append(added, line[1:])
		}
	}

	hasTestFunc := false
	hasAssertion := false
	for _, l := range added {
		if testFuncRe.MatchString(l) {
			hasTestFunc = true
		}
		if assertionRe.MatchString(l) {
			hasAssertion = true
		}
	}
	if hasTestFunc && !hasAssertion && len(added) > 5 {
		issues = append(issues, model.ReviewComment{
			Kind:       model.KindSuggestion,
			Body:       "Test function appears to lack assertions. Ensure the test validates expected behavior, not just that it runs without panic.",
			File:       path,
			Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: path, Snippet: "Test function without visible assertions"},
			Confidence: 1.0,
		})
	}

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		if sleepCallRe.MatchString(content) {
			lineNo := i + 1
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindSuggestion,
				Body:       "Hardcoded `sleep` in test; consider using polling/retry with timeout for more reliable and faster tests.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}
	}
	return capComments(issues, maxTestQualPerFile)
}

// scanCodeQuality applies persona-independent checks: panics in non-test Go
// code, probable unchecked errors, and oversized single-file changes.
func scanCodeQuality(path, patch string) []model.ReviewComment {
	var issues []model.ReviewComment
	lines := strings.Split(patch, "\n")

	for i, line := range lines {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		content := line[1:]
		lineNo := i + 1

		if strings.HasSuffix(path, ".go") && !isTestFile(path) && panicCallRe.MatchString(content) {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       "`panic()` in production code. Return an error instead; panics crash the entire process.",
				File:       path,
				Line:       lineNo,
				Evidence:   diffEvidenceAt(path, lineNo, content),
				Confidence: 1.0,
			})
		}

		if strings.HasSuffix(path, ".go") && errAssignRe.MatchString(content) && !errCheckRe.MatchString(content) {
			handled := false
			for j := i + 1; j < min(i+4, len(lines)); j++ {
				nl := lines[j]
				if strings.HasPrefix(nl, "+") {
					nl = nl[1:]
				}
				if errHandledRe.MatchString(nl) {
					handled = true
					break
				}
			}
			if !handled {
				issues = append(issues, model.ReviewComment{
					Kind:       model.KindSuggestion,
					Body:       "Error return value may not be checked. Ensure errors are handled or explicitly documented as ignorable.",
					File:       path,
					Line:       lineNo,
					Evidence:   diffEvidenceAt(path, lineNo, content),
					Confidence: 1.0,
				})
			}
		}
	}

	addedCount := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "+") {
			addedCount++
		}
	}
	if addedCount > 100 && !isTestFile(path) && !isConfigFile(path) {
		issues = append(issues, model.ReviewComment{
			Kind:       model.KindSuggestion,
			Body:       fmt.Sprintf("`%s` has %d+ added lines. Consider whether this file change can be broken into smaller, independently reviewable pieces.", path, addedCount),
			File:       path,
			Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: path, Snippet: fmt.Sprintf("+%d lines in single file", addedCount)},
			Confidence: 1.0,
		})
	}

	return capComments(issues, maxQualityPerFile)
}

// scanCompatChanges looks across all files for removed exported symbols and
// emits one blocker per affected file. Capped globally.
func scanCompatChanges(files []model.ChangedFile) []model.ReviewComment {
	var issues []model.ReviewComment
	for _, cf := range files {
		if cf.Patch == "" {
			continue
		}
		removed := 0
		for _, line := range strings.Split(cf.Patch, "\n") {
			if !strings.HasPrefix(line, "-") || strings.HasPrefix(line, "---") {
				continue
			}
			if removedExportRe.MatchString(line[1:]) {
				removed++
			}
		}
		if removed > 0 {
			issues = append(issues, model.ReviewComment{
				Kind:       model.KindBlocker,
				Body:       fmt.Sprintf("`%s` removes %d exported symbol(s). This may break downstream consumers. Verify deprecation notices were issued.", cf.Path, removed),
				File:       cf.Path,
				Evidence:   &model.Evidence{Type: model.EvidenceDiff, Ref: cf.Path, Snippet: fmt.Sprintf("%d exported symbols removed", removed)},
				Confidence: 1.0,
			})
		}
	}
	return capComments(issues, maxCompatFindings)
}

func capComments(comments []model.ReviewComment, limit int) []model.ReviewComment {
	if len(comments) > limit {
		return comments[:limit]
	}
	return comments
}
