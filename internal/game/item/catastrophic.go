package item

import (
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/character"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

// UseCatastrophicDamageItem damages every opponent unit. Depending on the card it also hits
// the opponent's main character and mills the opponent's deck into the lost zone; the two
// extras are independent.
func (s *Service) UseCatastrophicDamageItem(req CatastrophicDamageRequest) (notice.Envelope, error) {
	return s.run(req.SessionToken, req.ItemCardID, archetype{
		kind: card.ArchetypeCatastrophic,
		apply: func(a *action) error {
			opp := a.opponentID

			health := s.svc.Field.ApplyDamageToAll(opp, max(a.effect.FieldUnitDamage, 0))
			for _, death := range s.svc.Field.JudgeDeathOfAll(opp) {
				s.svc.Bury(opp, death.Unit.CardID)
				health[death.Index] = -1
				a.delta.UnitDeath(notice.Opponent, death.Index)
			}
			for idx, hp := range health {
				a.delta.UnitHealth(notice.Opponent, idx, hp)
			}

			if a.effect.DamagesMainCharacter() {
				hp, status, ok := s.svc.Characters.ApplyDamage(opp, a.effect.MainCharacterDamage)
				if !ok {
					return s.svc.Invariant("account %d has no main character", opp)
				}
				a.delta.MainCharacter(notice.Opponent, hp, status.String())
				if status == character.Defeated {
					a.winner = a.accountID
				}
			}

			if a.effect.MillsDeck() {
				milled := s.svc.Deck.DrawTop(opp, a.effect.DeckMillCount)
				s.svc.LostZone.AddAll(opp, milled)
				a.delta.LostDeckCards(notice.Opponent, milled)
			}
			return nil
		},
	})
}
