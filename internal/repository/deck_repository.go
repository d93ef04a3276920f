package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardbattle/battle-server-go/internal/deck"
)

// DeckRepository implements deck.Repository.
type DeckRepository struct {
	db *DB
}

func NewDeckRepository(db *DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// SaveDeck replaces the account's deck.
func (r *DeckRepository) SaveDeck(ctx context.Context, accountID int64, cards []int) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO decks (account_id, cards, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (account_id) DO UPDATE SET cards = EXCLUDED.cards, updated_at = now()`,
		accountID, toInt32(cards),
	)
	if err != nil {
		return fmt.Errorf("upsert deck: %w", err)
	}
	return nil
}

// LoadDeck returns the account's deck in stored order.
func (r *DeckRepository) LoadDeck(ctx context.Context, accountID int64) ([]int, error) {
	var stored []int32
	err := r.db.Pool.QueryRow(ctx, `SELECT cards FROM decks WHERE account_id = $1`, accountID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, deck.ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select deck: %w", err)
	}
	return fromInt32(stored), nil
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
