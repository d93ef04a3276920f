package item

import (
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

// UseEnergyRemovalItem strips energy of the target unit's own race. A unit carrying none of
// it takes the card's alternative damage instead.
func (s *Service) UseEnergyRemovalItem(req EnergyRemovalRequest) (notice.Envelope, error) {
	return s.run(req.SessionToken, req.ItemCardID, archetype{
		kind: card.ArchetypeEnergyRemoval,
		validate: func(a *action) error {
			return s.svc.Targets.ValidateTarget(a.opponentID, req.TargetIndex, "opponent unit")
		},
		apply: func(a *action) error {
			target, ok := s.svc.Field.Unit(a.opponentID, req.TargetIndex)
			if !ok {
				return s.svc.Invariant("target slot %d emptied after validation", req.TargetIndex)
			}

			if target.Energy.Count(target.Race) == 0 {
				return s.damage(a, notice.Opponent, req.TargetIndex, a.effect.AlternativeDamage)
			}

			_, remaining, ok := s.svc.Field.DetachOwnRaceEnergy(a.opponentID, req.TargetIndex, a.effect.EnergyRemoval)
			if !ok {
				return s.svc.Invariant("target slot %d emptied during energy removal", req.TargetIndex)
			}
			a.delta.UnitEnergy(notice.Opponent, req.TargetIndex, remaining.ByName())
			return nil
		},
	})
}
