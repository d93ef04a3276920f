// Package zone holds the per-player card containers of a match: hand, tomb, deck and lost
// zone. Each container kind is one Store, guarded by its own lock.
package zone

import (
	"slices"
	"sync"
)

// Name identifies a card container.
type Name string

const (
	Hand     Name = "HAND"
	Tomb     Name = "TOMB"
	Deck     Name = "DECK"
	LostZone Name = "LOST_ZONE"
)

// Store is one container kind, partitioned by account. Card order is kept; for the deck the
// first element is the top card.
type Store struct {
	name  Name
	mu    sync.Mutex
	cards map[int64][]int
}

// NewStore creates an empty container store.
func NewStore(name Name) *Store {
	return &Store{
		name:  name,
		cards: make(map[int64][]int),
	}
}

// Name returns the container kind.
func (s *Store) Name() Name {
	return s.name
}

// Add appends one card to an account's container.
func (s *Store) Add(accountID int64, cardID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[accountID] = append(s.cards[accountID], cardID)
}

// AddAll appends cards in order.
func (s *Store) AddAll(accountID int64, cardIDs []int) {
	if len(cardIDs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[accountID] = append(s.cards[accountID], cardIDs...)
}

// Replace sets an account's container contents.
func (s *Store) Replace(accountID int64, cardIDs []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[accountID] = slices.Clone(cardIDs)
}

// Remove takes one instance of cardID out of the account's container. It returns false when
// the card is not there.
func (s *Store) Remove(accountID int64, cardID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.cards[accountID]
	idx := slices.Index(cards, cardID)
	if idx < 0 {
		return false
	}
	s.cards[accountID] = slices.Delete(cards, idx, idx+1)
	return true
}

// Contains reports whether at least one instance of cardID is held by the account.
func (s *Store) Contains(accountID int64, cardID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.cards[accountID], cardID)
}

// Count returns the number of cards in the account's container.
func (s *Store) Count(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards[accountID])
}

// Cards returns a copy of the account's container.
func (s *Store) Cards(accountID int64) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cards[accountID])
}

// DrawTop removes up to n cards from the front of the container and returns them in draw
// order. Fewer than n cards are returned when the container runs out.
func (s *Store) DrawTop(accountID int64, n int) []int {
	if n <= 0 {
		return []int{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.cards[accountID]
	if n > len(cards) {
		n = len(cards)
	}
	drawn := slices.Clone(cards[:n])
	s.cards[accountID] = slices.Clone(cards[n:])
	return drawn
}

// Clear drops the account's container.
func (s *Store) Clear(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, accountID)
}
