// Package notice packages the results of a resolved action into one notice per player.
// It never reads match state; every value comes from the resolver.
package notice

import (
	"maps"
	"slices"
)

// Side names a player relative to the account that acted.
type Side int

const (
	Actor Side = iota
	Opponent
)

// PlayerIndex names a player relative to the notice's recipient.
type PlayerIndex string

const (
	You           PlayerIndex = "YOU"
	OpponentIndex PlayerIndex = "OPPONENT"
)

// HandUse records the card that was spent.
type HandUse struct {
	PlayerIndex PlayerIndex `json:"player_index"`
	CardID      int         `json:"card_id"`
}

// TurnChange records a turn hand-over.
type TurnChange struct {
	Active PlayerIndex `json:"active"`
	Round  int         `json:"round"`
}

// BoardChange is what changed on one player's side of the table.
type BoardChange struct {
	FieldUnitHealth       map[int]int            `json:"field_unit_health,omitempty"`
	FieldUnitDeath        []int                  `json:"field_unit_death,omitempty"`
	MainCharacterHealth   *int                   `json:"main_character_health,omitempty"`
	MainCharacterSurvival string                 `json:"main_character_survival,omitempty"`
	FieldUnitEnergy       map[int]map[string]int `json:"field_unit_energy,omitempty"`
	FieldEnergy           *int                   `json:"field_energy,omitempty"`
	LostDeckCards         []int                  `json:"lost_deck_cards,omitempty"`
}

func (b *BoardChange) empty() bool {
	return len(b.FieldUnitHealth) == 0 && len(b.FieldUnitDeath) == 0 &&
		b.MainCharacterHealth == nil && b.MainCharacterSurvival == "" &&
		len(b.FieldUnitEnergy) == 0 && b.FieldEnergy == nil && b.LostDeckCards == nil
}

func (b *BoardChange) clone() *BoardChange {
	c := &BoardChange{
		FieldUnitHealth:       maps.Clone(b.FieldUnitHealth),
		FieldUnitDeath:        slices.Clone(b.FieldUnitDeath),
		MainCharacterSurvival: b.MainCharacterSurvival,
		LostDeckCards:         slices.Clone(b.LostDeckCards),
	}
	if b.MainCharacterHealth != nil {
		hp := *b.MainCharacterHealth
		c.MainCharacterHealth = &hp
	}
	if b.FieldEnergy != nil {
		n := *b.FieldEnergy
		c.FieldEnergy = &n
	}
	if b.FieldUnitEnergy != nil {
		c.FieldUnitEnergy = make(map[int]map[string]int, len(b.FieldUnitEnergy))
		for idx, m := range b.FieldUnitEnergy {
			c.FieldUnitEnergy[idx] = maps.Clone(m)
		}
	}
	return c
}

// Notice is the payload delivered to one recipient.
type Notice struct {
	Action  string                       `json:"action"`
	HandUse *HandUse                     `json:"hand_use,omitempty"`
	Turn    *TurnChange                  `json:"turn,omitempty"`
	Players map[PlayerIndex]*BoardChange `json:"players,omitempty"`
}

// Board returns the change recorded for one player, or nil.
func (n Notice) Board(p PlayerIndex) *BoardChange {
	return n.Players[p]
}

// Envelope carries the two perspectives of one action.
type Envelope struct {
	ActorID    int64  `json:"actor_id"`
	OpponentID int64  `json:"opponent_id"`
	Actor      Notice `json:"actor"`
	Opponent   Notice `json:"opponent"`
}

// For returns the notice addressed to the account.
func (e Envelope) For(accountID int64) (Notice, bool) {
	switch accountID {
	case e.ActorID:
		return e.Actor, true
	case e.OpponentID:
		return e.Opponent, true
	default:
		return Notice{}, false
	}
}
