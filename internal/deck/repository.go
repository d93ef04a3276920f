package deck

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrDeckNotFound is returned when an account has no registered deck.
var ErrDeckNotFound = errors.New("deck not found")

// Repository stores one active deck per account.
type Repository interface {
	SaveDeck(ctx context.Context, accountID int64, cards []int) error
	LoadDeck(ctx context.Context, accountID int64) ([]int, error)
}

// MemoryRepository keeps decks in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	decks map[int64][]int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{decks: make(map[int64][]int)}
}

// SaveDeck replaces the account's deck.
func (r *MemoryRepository) SaveDeck(_ context.Context, accountID int64, cards []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[accountID] = slices.Clone(cards)
	return nil
}

// LoadDeck returns a copy of the account's deck.
func (r *MemoryRepository) LoadDeck(_ context.Context, accountID int64) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cards, ok := r.decks[accountID]
	if !ok {
		return nil, ErrDeckNotFound
	}
	return slices.Clone(cards), nil
}
