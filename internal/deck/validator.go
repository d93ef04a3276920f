// Package deck registers the deck each account brings into a match.
package deck

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// ErrInvalidDeck is wrapped by every deck rule violation.
var ErrInvalidDeck = errors.New("invalid deck")

// Rules are the deck construction limits.
type Rules struct {
	Size      int
	MaxCopies int
	// Unlimited card ids are exempt from MaxCopies.
	Unlimited []int
}

// DefaultRules returns the standard limits: 40 cards, 3 copies, basic energy unlimited.
func DefaultRules() Rules {
	return Rules{Size: 40, MaxCopies: 3, Unlimited: []int{card.EnergyCardID}}
}

// Validator checks decks against Rules and, when a catalog is set, against known cards.
type Validator struct {
	rules   Rules
	catalog card.Catalog
}

// NewValidator creates a validator. catalog may be nil.
func NewValidator(rules Rules, catalog card.Catalog) *Validator {
	return &Validator{rules: rules, catalog: catalog}
}

// Validate returns nil for a legal deck.
func (v *Validator) Validate(cards []int) error {
	if len(cards) != v.rules.Size {
		return fmt.Errorf("%w: deck has %d cards; exactly %d are required", ErrInvalidDeck, len(cards), v.rules.Size)
	}

	counts := make(map[int]int)
	for _, id := range cards {
		counts[id]++
	}

	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if v.catalog != nil {
			if _, ok := v.catalog.Card(id); !ok {
				return fmt.Errorf("%w: unknown card %d", ErrInvalidDeck, id)
			}
		}
		if slices.Contains(v.rules.Unlimited, id) {
			continue
		}
		if n := counts[id]; n > v.rules.MaxCopies {
			return fmt.Errorf("%w: card %d appears %d times; at most %d copies are allowed", ErrInvalidDeck, id, n, v.rules.MaxCopies)
		}
	}
	return nil
}
