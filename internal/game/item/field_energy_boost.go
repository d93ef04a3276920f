package item

import (
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

// UseFieldEnergyBoostItem banks field energy in proportion to the health of one of the
// requester's own units. The unit is not harmed.
func (s *Service) UseFieldEnergyBoostItem(req FieldEnergyBoostRequest) (notice.Envelope, error) {
	return s.run(req.SessionToken, req.ItemCardID, archetype{
		kind: card.ArchetypeFieldEnergyBoost,
		validate: func(a *action) error {
			return s.svc.Targets.ValidateTarget(a.accountID, req.TargetIndex, "own unit")
		},
		apply: func(a *action) error {
			health := s.svc.Field.Health(a.accountID, req.TargetIndex)
			if health < 0 {
				return s.svc.Invariant("own slot %d emptied after validation", req.TargetIndex)
			}
			total := s.svc.Energy.Add(a.accountID, a.effect.FieldEnergyFor(health))
			a.delta.FieldEnergy(notice.Actor, total)
			return nil
		},
	})
}
