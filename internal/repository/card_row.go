package repository

import (
	"fmt"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// CardRow is one row of the cards table with its labels still as text.
type CardRow struct {
	ID     int
	Name   string
	Kind   string
	Grade  string
	Race   string
	Attack int
	Health int

	Archetype            string
	AlternativeDamage    int
	FieldUnitDamage      int
	MainCharacterDamage  int
	DeckMillCount        int
	TargetCount          int
	SacrificeEligible    []int
	EnergyRemoval        int
	HealthPerFieldEnergy int
}

// Definition converts the row to a catalog definition.
func (r CardRow) Definition() (card.Definition, error) {
	kind, err := card.ParseKind(r.Kind)
	if err != nil {
		return card.Definition{}, err
	}
	grade, err := card.ParseGrade(r.Grade)
	if err != nil {
		return card.Definition{}, err
	}
	race, err := card.ParseRace(r.Race)
	if err != nil {
		return card.Definition{}, err
	}

	def := card.Definition{
		ID:     r.ID,
		Name:   r.Name,
		Kind:   kind,
		Grade:  grade,
		Race:   race,
		Attack: r.Attack,
		Health: r.Health,
	}
	if kind != card.KindItem {
		return def, nil
	}

	archetype, err := card.ParseArchetype(r.Archetype)
	if err != nil {
		return card.Definition{}, err
	}
	if archetype == card.ArchetypeSacrificeTargets {
		if r.TargetCount <= 0 {
			return card.Definition{}, fmt.Errorf("sacrifice item %d needs a positive target_count, got %d", r.ID, r.TargetCount)
		}
		if len(r.SacrificeEligible) == 0 {
			return card.Definition{}, fmt.Errorf("sacrifice item %d lists no sacrifice_eligible units", r.ID)
		}
	}
	def.Item = &card.ItemEffectSummary{
		Archetype:            archetype,
		AlternativeDamage:    r.AlternativeDamage,
		FieldUnitDamage:      r.FieldUnitDamage,
		MainCharacterDamage:  r.MainCharacterDamage,
		DeckMillCount:        r.DeckMillCount,
		TargetCount:          r.TargetCount,
		SacrificeEligible:    r.SacrificeEligible,
		EnergyRemoval:        r.EnergyRemoval,
		HealthPerFieldEnergy: r.HealthPerFieldEnergy,
	}
	return def, nil
}
