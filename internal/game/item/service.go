// Package item resolves item cards. Every archetype runs the same pipeline: session, match
// lookup, the ordered legitimacy checks, catalog lookup, archetype match and target checks,
// all before the first mutation. Only then does the archetype mutate the stores, spend the
// card from hand to tomb and publish one notice to each player.
package item

import (
	"go.uber.org/zap"

	"github.com/cardbattle/battle-server-go/internal/battle"
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

// Service exposes one method per item archetype.
type Service struct {
	svc *game.Services
}

// NewService creates the resolver over the shared services.
func NewService(svc *game.Services) *Service {
	return &Service{svc: svc}
}

// action is one item use that passed the common checks.
type action struct {
	accountID  int64
	opponentID int64
	room       *battle.Room
	def        card.Definition
	effect     card.ItemEffectSummary
	delta      *notice.Delta

	// winner is set when the action defeats the opponent's main character.
	winner int64
}

// archetype is the per-card-kind part of the pipeline. validate must not mutate anything.
type archetype struct {
	kind     card.Archetype
	validate func(a *action) error
	apply    func(a *action) error
}

func (s *Service) run(token string, cardID int, arch archetype) (notice.Envelope, error) {
	accountID, err := s.svc.Authenticate(token)
	if err != nil {
		return notice.Envelope{}, s.svc.Reject(accountID, string(arch.kind), err)
	}
	room, opponentID, err := s.svc.Match(accountID)
	if err != nil {
		return notice.Envelope{}, s.svc.Reject(accountID, string(arch.kind), err)
	}

	var env notice.Envelope
	var a *action
	err = room.Serialize(func() error {
		def, err := s.svc.Guard.Validate(room, accountID, cardID)
		if err != nil {
			return err
		}
		effect, ok := s.svc.Catalog.ItemEffect(cardID)
		if !ok || effect.Archetype != arch.kind {
			return protocol.Newf(protocol.CodeWrongCardCategory, "card %d is not a %s item", cardID, arch.kind)
		}

		a = &action{
			accountID:  accountID,
			opponentID: opponentID,
			room:       room,
			def:        def,
			effect:     effect,
			delta:      notice.NewDelta(string(arch.kind)),
		}
		if arch.validate != nil {
			if err := arch.validate(a); err != nil {
				return err
			}
		}

		if err := arch.apply(a); err != nil {
			return err
		}
		if err := s.spend(a); err != nil {
			return err
		}
		env = s.svc.Publish(accountID, opponentID, a.delta)
		if a.winner != 0 {
			// Close under the action lock so a queued action finds the match finished.
			s.svc.EndMatch(room, a.winner)
		}
		return nil
	})
	if err != nil {
		return notice.Envelope{}, s.svc.Reject(accountID, string(arch.kind), err)
	}

	s.svc.Logger.Info("item used",
		zap.Int64("account_id", accountID),
		zap.Int("card_id", cardID),
		zap.String("archetype", string(arch.kind)),
		zap.String("room_id", room.ID),
	)
	return env, nil
}

// spend moves the used card from hand to tomb.
func (s *Service) spend(a *action) error {
	if !s.svc.Hand.Remove(a.accountID, a.def.ID) {
		return s.svc.Invariant("card %d left the hand of account %d before spend", a.def.ID, a.accountID)
	}
	s.svc.Tomb.Add(a.accountID, a.def.ID)
	a.delta.HandUse(a.def.ID)
	return nil
}

// damage deals amount to one unit and settles its death.
func (s *Service) damage(a *action, side notice.Side, idx, amount int) error {
	owner := a.owner(side)
	if _, ok := s.svc.Field.ApplyDamage(owner, idx, amount); !ok {
		return s.svc.Invariant("unit at slot %d of account %d vanished before damage", idx, owner)
	}
	s.settle(a, side, idx)
	return nil
}

// kill removes one unit without health accounting and settles its slot.
func (s *Service) kill(a *action, side notice.Side, idx int) error {
	owner := a.owner(side)
	removed, ok := s.svc.Field.InstantDeath(owner, idx)
	if !ok {
		return s.svc.Invariant("unit at slot %d of account %d vanished before instant death", idx, owner)
	}
	s.svc.Bury(owner, removed.CardID)
	s.settle(a, side, idx)
	return nil
}

// settle judges death at idx, buries a unit that died and records the slot's health.
func (s *Service) settle(a *action, side notice.Side, idx int) {
	owner := a.owner(side)
	dead, removed := s.svc.Field.JudgeDeath(owner, idx)
	if removed != nil {
		s.svc.Bury(owner, removed.CardID)
	}
	a.delta.UnitHealth(side, idx, s.svc.Field.Health(owner, idx))
	if dead >= 0 {
		a.delta.UnitDeath(side, dead)
	}
}

func (a *action) owner(side notice.Side) int64 {
	if side == notice.Actor {
		return a.accountID
	}
	return a.opponentID
}
