package item

import (
	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

// UseTargetDeathItem eliminates one opponent unit. Units below the top grade die outright;
// top-grade units take the card's alternative damage instead.
func (s *Service) UseTargetDeathItem(req TargetDeathRequest) (notice.Envelope, error) {
	return s.run(req.SessionToken, req.ItemCardID, archetype{
		kind: card.ArchetypeTargetDeath,
		validate: func(a *action) error {
			return s.svc.Targets.ValidateTarget(a.opponentID, req.TargetIndex, "opponent unit")
		},
		apply: func(a *action) error {
			target, ok := s.svc.Field.Unit(a.opponentID, req.TargetIndex)
			if !ok {
				return s.svc.Invariant("target slot %d emptied after validation", req.TargetIndex)
			}

			outcome := card.ResolveElimination(target.Grade, a.effect.AlternativeDamage)
			switch outcome.Kind {
			case card.OutcomeInstantDeath:
				return s.kill(a, notice.Opponent, req.TargetIndex)
			default:
				return s.damage(a, notice.Opponent, req.TargetIndex, outcome.Damage)
			}
		},
	})
}
