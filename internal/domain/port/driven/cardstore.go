package driven

import (
	"context"

	"github.com/vakalapa/codesteward/internal/domain/model"
)

// CardStore persists reviewer skill cards built by the profiler.
type CardStore interface {
	UpsertCard(ctx context.Context, repo string, card model.ReviewerSkillCard) error

	// GetCard returns nil, nil when no card exists for the reviewer.
	GetCard(ctx context.Context, repo, reviewer string) (*model.ReviewerSkillCard, error)
	GetAllCards(ctx context.Context, repo string) ([]model.ReviewerSkillCard, error)
}
