package protocol

import (
	"strconv"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// Match is the view of a running match the guard needs.
type Match interface {
	IsTurnOf(accountID int64) bool
	Round() int
}

// Hand answers possession questions.
type Hand interface {
	Contains(accountID int64, cardID int) bool
}

// Guard runs the legitimacy checks of an item action. The checks short-circuit in a fixed
// order: turn, possession, category, usability.
type Guard struct {
	hand        Hand
	catalog     card.Catalog
	unlockRound int
}

// NewGuard creates a guard. Top-grade cards unlock at unlockRound.
func NewGuard(hand Hand, catalog card.Catalog, unlockRound int) *Guard {
	return &Guard{hand: hand, catalog: catalog, unlockRound: unlockRound}
}

// CheckTurn rejects accounts that do not hold the turn.
func (g *Guard) CheckTurn(m Match, accountID int64) error {
	if !m.IsTurnOf(accountID) {
		return New(CodeNotYourTurn, "turn belongs to the opponent")
	}
	return nil
}

// CheckPossession rejects cards the account does not hold in hand.
func (g *Guard) CheckPossession(accountID int64, cardID int) error {
	if !g.hand.Contains(accountID, cardID) {
		return WithMetadata(CodeProtocolIntegrityViolation, "card is not in hand",
			map[string]string{"card_id": strconv.Itoa(cardID)})
	}
	return nil
}

// CheckCategory resolves the card and rejects anything that is not an item.
func (g *Guard) CheckCategory(cardID int) (card.Definition, error) {
	def, ok := g.catalog.Card(cardID)
	if !ok {
		return card.Definition{}, WithMetadata(CodeWrongCardCategory, "unknown card",
			map[string]string{"card_id": strconv.Itoa(cardID)})
	}
	if def.Kind != card.KindItem {
		return card.Definition{}, WithMetadata(CodeWrongCardCategory, "card is a "+def.Kind.String()+", not an item",
			map[string]string{"card_id": strconv.Itoa(cardID)})
	}
	return def, nil
}

// CheckUsability rejects top-grade cards before the unlock round.
func (g *Guard) CheckUsability(m Match, def card.Definition) error {
	if card.IsLockedUntil(def.Grade, m.Round(), g.unlockRound) {
		return Newf(CodeUsabilityWindowViolation, "%s cards unlock in round %d", def.Grade, g.unlockRound)
	}
	return nil
}

// Validate runs every check in order and returns the item's definition.
func (g *Guard) Validate(m Match, accountID int64, cardID int) (card.Definition, error) {
	if err := g.CheckTurn(m, accountID); err != nil {
		return card.Definition{}, err
	}
	if err := g.CheckPossession(accountID, cardID); err != nil {
		return card.Definition{}, err
	}
	def, err := g.CheckCategory(cardID)
	if err != nil {
		return card.Definition{}, err
	}
	if err := g.CheckUsability(m, def); err != nil {
		return card.Definition{}, err
	}
	return def, nil
}
