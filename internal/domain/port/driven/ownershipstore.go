package driven

import (
	"context"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// OwnershipStore persists CODEOWNERS/OWNERS rules and resolves owners for
// changed file paths.
type OwnershipStore interface {
	ReplaceRules(ctx context.Context, repo string, rules []model.OwnershipRule) error

	// GetOwnersForPath returns every rule whose pattern matches the path.
	GetOwnersForPath(ctx context.Context, repo, path string) ([]model.OwnershipRule, error)
}
