package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vakalapa/codesteward/internal/domain/model"
	"github.com/vakalapa/codesteward/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CardStore = (*CardRepo)(nil)

// CardRepo is the SQLite implementation of the CardStore port interface.
// Cards are stored as JSON blobs keyed by (repo, reviewer).
type CardRepo struct {
	db *DB
}

// NewCardRepo creates a new CardRepo backed by the given DB.
func NewCardRepo(db *DB) *CardRepo {
	return &CardRepo{db: db}
}

// UpsertCard inserts or replaces a reviewer's skill card.
func (r *CardRepo) UpsertCard(ctx context.Context, repo string, card model.ReviewerSkillCard) error {
	const query = `
		INSERT INTO reviewer_cards (repo, reviewer, card_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repo, reviewer) DO UPDATE SET
			card_json = excluded.card_json,
			updated_at = excluded.updated_at
	`

	cardJSON, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card for %s: %w", card.Reviewer, err)
	}

	if _, err := r.db.Writer.ExecContext(ctx, query,
		repo, card.Reviewer, string(cardJSON), formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("upsert card for %s: %w", card.Reviewer, err)
	}
	return nil
}

// GetCard retrieves a reviewer's skill card. Returns nil, nil when no card
// exists.
func (r *CardRepo) GetCard(ctx context.Context, repo, reviewer string) (*model.ReviewerSkillCard, error) {
	var cardJSON string
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT card_json FROM reviewer_cards WHERE repo = ? AND reviewer = ?`,
		repo, reviewer,
	).Scan(&cardJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card for %s: %w", reviewer, err)
	}

	var card model.ReviewerSkillCard
	if err := json.Unmarshal([]byte(cardJSON), &card); err != nil {
		return nil, fmt.Errorf("unmarshal card for %s: %w", reviewer, err)
	}
	return &card, nil
}

// GetAllCards returns every stored card for a repo, ordered by reviewer.
func (r *CardRepo) GetAllCards(ctx context.Context, repo string) ([]model.ReviewerSkillCard, error) {
	const query = `
		SELECT card_json FROM reviewer_cards WHERE repo = ? ORDER BY reviewer
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, repo)
	if err != nil {
		return nil, fmt.Errorf("query cards for %s: %w", repo, err)
	}
	defer rows.Close()

	var cards []model.ReviewerSkillCard
	for rows.Next() {
		var cardJSON string
		if err := rows.Scan(&cardJSON); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		var card model.ReviewerSkillCard
		if err := json.Unmarshal([]byte(cardJSON), &card); err != nil {
			return nil, fmt.Errorf("unmarshal card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}
