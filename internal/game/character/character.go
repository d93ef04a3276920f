// Package character tracks each player's main character. A defeated character stays
// defeated for the rest of the match.
package character

import "sync"

// Status is a main character's survival state.
type Status int

const (
	Alive Status = iota
	Defeated
)

func (s Status) String() string {
	if s == Defeated {
		return "DEFEATED"
	}
	return "ALIVE"
}

type state struct {
	health int
	status Status
}

// Store holds main character vitality per account.
type Store struct {
	mu    sync.Mutex
	chars map[int64]*state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{chars: make(map[int64]*state)}
}

// Spawn gives the account a living main character.
func (s *Store) Spawn(accountID int64, health int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chars[accountID] = &state{health: health, status: Alive}
}

// ApplyDamage lowers health, flooring at zero, and marks the character defeated when it
// reaches zero. It returns the resulting health and status.
func (s *Store) ApplyDamage(accountID int64, amount int) (int, Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chars[accountID]
	if !ok {
		return 0, Defeated, false
	}
	c.health = max(c.health-max(amount, 0), 0)
	if c.health == 0 {
		c.status = Defeated
	}
	return c.health, c.status, true
}

// Health returns the main character's health, or -1 when none was spawned.
func (s *Store) Health(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chars[accountID]; ok {
		return c.health
	}
	return -1
}

// Status returns the survival state.
func (s *Store) Status(accountID int64) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chars[accountID]; ok {
		return c.status, true
	}
	return Defeated, false
}

// Clear drops the account's character.
func (s *Store) Clear(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chars, accountID)
}
