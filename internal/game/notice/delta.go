package notice

import "slices"

// Delta collects raw results while an action resolves. Sides are relative to the actor.
type Delta struct {
	action     string
	usedCardID int
	used       bool
	turn       *turnDelta
	boards     [2]*BoardChange
}

type turnDelta struct {
	active Side
	round  int
}

// NewDelta starts a delta for an action.
func NewDelta(action string) *Delta {
	return &Delta{action: action}
}

func (d *Delta) board(side Side) *BoardChange {
	if d.boards[side] == nil {
		d.boards[side] = &BoardChange{}
	}
	return d.boards[side]
}

// HandUse records the actor's spent card.
func (d *Delta) HandUse(cardID int) *Delta {
	d.usedCardID = cardID
	d.used = true
	return d
}

// Turn records who acts next and the round.
func (d *Delta) Turn(active Side, round int) *Delta {
	d.turn = &turnDelta{active: active, round: round}
	return d
}

// UnitHealth records a unit's health after the action. -1 means the slot is empty.
func (d *Delta) UnitHealth(side Side, idx, health int) *Delta {
	b := d.board(side)
	if b.FieldUnitHealth == nil {
		b.FieldUnitHealth = make(map[int]int)
	}
	b.FieldUnitHealth[idx] = health
	return d
}

// UnitDeath records a dead slot. Order of calls is kept.
func (d *Delta) UnitDeath(side Side, idx int) *Delta {
	b := d.board(side)
	b.FieldUnitDeath = append(b.FieldUnitDeath, idx)
	return d
}

// MainCharacter records the main character's health and survival.
func (d *Delta) MainCharacter(side Side, health int, survival string) *Delta {
	b := d.board(side)
	b.MainCharacterHealth = &health
	b.MainCharacterSurvival = survival
	return d
}

// UnitEnergy records a unit's attached energy by race label.
func (d *Delta) UnitEnergy(side Side, idx int, energy map[string]int) *Delta {
	b := d.board(side)
	if b.FieldUnitEnergy == nil {
		b.FieldUnitEnergy = make(map[int]map[string]int)
	}
	if energy == nil {
		energy = map[string]int{}
	}
	b.FieldUnitEnergy[idx] = energy
	return d
}

// FieldEnergy records the banked field energy.
func (d *Delta) FieldEnergy(side Side, count int) *Delta {
	d.board(side).FieldEnergy = &count
	return d
}

// LostDeckCards records cards milled into the lost zone.
func (d *Delta) LostDeckCards(side Side, cards []int) *Delta {
	if cards == nil {
		cards = []int{}
	}
	d.board(side).LostDeckCards = slices.Clone(cards)
	return d
}
