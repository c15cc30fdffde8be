package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OwnershipStore = (*OwnershipRepo)(nil)

// OwnershipRepo is the SQLite implementation of the OwnershipStore port
// interface. Pattern matching happens in Go rather than SQL: ownership rule
// sets are small and CODEOWNERS glob semantics do not map onto LIKE.
type OwnershipRepo struct {
	db *DB
}

// NewOwnershipRepo creates a new OwnershipRepo backed by the given DB.
func NewOwnershipRepo(db *DB) *OwnershipRepo {
	return &OwnershipRepo{db: db}
}

// ReplaceRules atomically replaces all stored rules for a repo.
func (r *OwnershipRepo) ReplaceRules(ctx context.Context, repo string, rules []model.OwnershipRule) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace ownership: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ownership WHERE repo = ?`, repo); err != nil {
		return fmt.Errorf("clear ownership for %s: %w", repo, err)
	}

	const query = `
		INSERT INTO ownership (repo, path_pattern, owner, source)
		VALUES (?, ?, ?, ?)
	`
	for _, rule := range rules {
		if _, err := tx.ExecContext(ctx, query, repo, rule.PathPattern, rule.Owner, rule.Source); err != nil {
			return fmt.Errorf("insert ownership rule %q: %w", rule.PathPattern, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace ownership: %w", err)
	}
	return nil
}

// GetOwnersForPath returns every stored rule whose pattern matches the path.
func (r *OwnershipRepo) GetOwnersForPath(ctx context.Context, repo, path string) ([]model.OwnershipRule, error) {
	const query = `
		SELECT path_pattern, owner, source
		FROM ownership
		WHERE repo = ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repo)
	if err != nil {
		return nil, fmt.Errorf("query ownership for %s: %w", repo, err)
	}
	defer rows.Close()

	var matches []model.OwnershipRule
	for rows.Next() {
		rule := model.OwnershipRule{Repo: repo}
		if err := rows.Scan(&rule.PathPattern, &rule.Owner, &rule.Source); err != nil {
			return nil, fmt.Errorf("scan ownership rule: %w", err)
		}
		if patternMatches(rule.PathPattern, path) {
			matches = append(matches, rule)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ownership rules: %w", err)
	}
	return matches, nil
}

// patternMatches implements simplified CODEOWNERS pattern semantics: exact
// match, directory prefixes (with or without a trailing slash), and * / ** /
// ? globs where stars cross directory boundaries.
func patternMatches(pattern, path string) bool {
	pattern = strings.TrimPrefix(pattern, "/")
	path = strings.TrimPrefix(path, "/")

	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern) || strings.HasPrefix(path, strings.TrimSuffix(pattern, "/"))
	}

	if globMatch(pattern, path) {
		return true
	}

	if strings.Contains(pattern, "/") && !strings.ContainsAny(pattern, "*?[") {
		return strings.HasPrefix(path, pattern+"/") || path == pattern
	}

	return false
}

func globMatch(pattern, path string) bool {
	var re strings.Builder
	re.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*':
			// Collapse ** into the same any-depth match as *.
			for i+1 < len(pattern) && pattern[i+1] == '*' {
				i++
			}
			re.WriteString(".*")
		case '?':
			re.WriteString(".")
		default:
			re.WriteString(regexp.QuoteMeta(string(pattern[i])))
		}
	}
	re.WriteString("$")

	matched, err := regexp.MatchString(re.String(), path)
	return err == nil && matched
}
