package item

import (
	"slices"
	"strconv"

	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/field"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

// UseSacrificeMultiTargetItem sacrifices one of the requester's eligible units; its health
// is dealt to each of exactly TargetCount opponent units.
func (s *Service) UseSacrificeMultiTargetItem(req SacrificeMultiTargetRequest) (notice.Envelope, error) {
	return s.run(req.SessionToken, req.ItemCardID, archetype{
		kind: card.ArchetypeSacrificeTargets,
		validate: func(a *action) error {
			if a.effect.TargetCount <= 0 {
				return s.svc.Invariant("sacrifice item %d has target count %d", a.def.ID, a.effect.TargetCount)
			}
			if err := s.svc.Targets.ValidateTarget(a.accountID, req.SacrificeUnitIndex, "sacrifice unit"); err != nil {
				return err
			}
			sacrifice, _ := s.svc.Field.Unit(a.accountID, req.SacrificeUnitIndex)
			if !a.effect.CanSacrifice(sacrifice.CardID) {
				return protocol.WithMetadata(protocol.CodeProtocolIntegrityViolation, "unit cannot be sacrificed to this card",
					map[string]string{"unit_card_id": strconv.Itoa(sacrifice.CardID)})
			}
			return s.svc.Targets.ValidateSelection(a.opponentID, req.TargetIndices, field.TargetRequirement{
				Count:       a.effect.TargetCount,
				Description: "opponent unit",
			})
		},
		apply: func(a *action) error {
			sacrifice, ok := s.svc.Field.Unit(a.accountID, req.SacrificeUnitIndex)
			if !ok {
				return s.svc.Invariant("sacrifice slot %d emptied after validation", req.SacrificeUnitIndex)
			}
			damage := sacrifice.Health
			if err := s.kill(a, notice.Actor, req.SacrificeUnitIndex); err != nil {
				return err
			}

			// Highest slot first; each target's result is recorded against its own index.
			type result struct {
				health int
				dead   bool
			}
			results := make(map[int]result, len(req.TargetIndices))
			order := slices.Clone(req.TargetIndices)
			slices.SortFunc(order, func(x, y int) int { return y - x })
			for _, idx := range order {
				if _, ok := s.svc.Field.ApplyDamage(a.opponentID, idx, damage); !ok {
					return s.svc.Invariant("target slot %d emptied after validation", idx)
				}
				dead, removed := s.svc.Field.JudgeDeath(a.opponentID, idx)
				if removed != nil {
					s.svc.Bury(a.opponentID, removed.CardID)
				}
				results[idx] = result{health: s.svc.Field.Health(a.opponentID, idx), dead: dead >= 0}
			}

			for _, idx := range req.TargetIndices {
				r := results[idx]
				a.delta.UnitHealth(notice.Opponent, idx, r.health)
				if r.dead {
					a.delta.UnitDeath(notice.Opponent, idx)
				}
			}
			return nil
		},
	})
}
