// Package energy tracks the field energy each player has banked.
package energy

import "sync"

// Pool holds field energy per account.
type Pool struct {
	mu     sync.RWMutex
	counts map[int64]int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{counts: make(map[int64]int)}
}

// Add banks energy and returns the new total. Non-positive amounts are ignored.
func (p *Pool) Add(accountID int64, amount int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount > 0 {
		p.counts[accountID] += amount
	}
	return p.counts[accountID]
}

// Spend removes amount energy. It returns false and leaves the pool unchanged when the
// account holds less than amount.
func (p *Pool) Spend(accountID int64, amount int) bool {
	if amount <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.counts[accountID] < amount {
		return false
	}
	p.counts[accountID] -= amount
	return true
}

// Count returns the account's banked energy.
func (p *Pool) Count(accountID int64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counts[accountID]
}

// Clear drops the account's energy.
func (p *Pool) Clear(accountID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.counts, accountID)
}
