package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/field"
	"github.com/cardbattle/battle-server-go/internal/game/notice"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

func TestUseEnergyRemovalItem_RemovesMatchingRace(t *testing.T) {
	h := newDefaultHarness(t)
	h.give(alice, 33)
	h.field(bob, 32) // undead
	h.svc.Field.AttachEnergy(bob, 0, card.RaceUndead, 3)
	h.svc.Field.AttachEnergy(bob, 0, card.RaceHuman, 1)

	env, err := h.items.UseEnergyRemovalItem(EnergyRemovalRequest{SessionToken: aliceToken, ItemCardID: 33, TargetIndex: 0})
	require.NoError(t, err)

	board := env.Actor.Board(notice.OpponentIndex)
	assert.Equal(t, map[int]map[string]int{0: {"UNDEAD": 1, "HUMAN": 1}}, board.FieldUnitEnergy)
	assert.Empty(t, board.FieldUnitHealth, "no damage when energy was removed")
	assert.Equal(t, 10, h.svc.Field.Health(bob, 0))

	energy, _ := h.svc.Field.AttachedEnergy(bob, 0)
	assert.Equal(t, field.AttachedEnergy{card.RaceUndead: 1, card.RaceHuman: 1}, energy)
}

func TestUseEnergyRemovalItem_FloorsAtZero(t *testing.T) {
	h := newDefaultHarness(t)
	h.give(alice, 33)
	h.field(bob, 32)
	h.svc.Field.AttachEnergy(bob, 0, card.RaceUndead, 1)

	env, err := h.items.UseEnergyRemovalItem(EnergyRemovalRequest{SessionToken: aliceToken, ItemCardID: 33, TargetIndex: 0})
	require.NoError(t, err)

	assert.Equal(t, map[int]map[string]int{0: {}}, env.Actor.Board(notice.OpponentIndex).FieldUnitEnergy)
	energy, _ := h.svc.Field.AttachedEnergy(bob, 0)
	assert.Empty(t, energy)
}

func TestUseEnergyRemovalItem_FallbackDamage(t *testing.T) {
	h := newDefaultHarness(t)
	h.give(alice, 33, 33)
	h.field(bob, 26, 32)                                 // human 20 health, undead 10 health
	h.svc.Field.AttachEnergy(bob, 0, card.RaceUndead, 2) // wrong race for a human

	env, err := h.items.UseEnergyRemovalItem(EnergyRemovalRequest{SessionToken: aliceToken, ItemCardID: 33, TargetIndex: 0})
	require.NoError(t, err)
	board := env.Actor.Board(notice.OpponentIndex)
	assert.Equal(t, map[int]int{0: 10}, board.FieldUnitHealth)
	assert.Nil(t, board.FieldUnitEnergy)
	energy, _ := h.svc.Field.AttachedEnergy(bob, 0)
	assert.Equal(t, 2, energy.Count(card.RaceUndead), "mismatched energy is untouched")

	env, err = h.items.UseEnergyRemovalItem(EnergyRemovalRequest{SessionToken: aliceToken, ItemCardID: 33, TargetIndex: 1})
	require.NoError(t, err)
	board = env.Actor.Board(notice.OpponentIndex)
	assert.Equal(t, map[int]int{1: -1}, board.FieldUnitHealth)
	assert.Equal(t, []int{1}, board.FieldUnitDeath)
}

func TestUseEnergyRemovalItem_EmptySlot(t *testing.T) {
	h := newDefaultHarness(t)
	h.give(alice, 33)

	_, err := h.items.UseEnergyRemovalItem(EnergyRemovalRequest{SessionToken: aliceToken, ItemCardID: 33, TargetIndex: 0})
	assert.Equal(t, protocol.CodeInvalidTargetIndex, protocol.CodeOf(err))
	assert.True(t, h.svc.Hand.Contains(alice, 33))
}

func TestUseFieldEnergyBoostItem(t *testing.T) {
	h := newDefaultHarness(t)
	h.give(alice, 35, 35)
	h.field(alice, 27) // 30 health

	env, err := h.items.UseFieldEnergyBoostItem(FieldEnergyBoostRequest{SessionToken: aliceToken, ItemCardID: 35, TargetIndex: 0})
	require.NoError(t, err)
	require.NotNil(t, env.Actor.Board(notice.You).FieldEnergy)
	assert.Equal(t, 6, *env.Actor.Board(notice.You).FieldEnergy)
	assert.Equal(t, 6, *env.Opponent.Board(notice.OpponentIndex).FieldEnergy)
	assert.Equal(t, 30, h.svc.Field.Health(alice, 0), "unit is not harmed")

	_, err = h.items.UseFieldEnergyBoostItem(FieldEnergyBoostRequest{SessionToken: aliceToken, ItemCardID: 35, TargetIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 12, h.svc.Energy.Count(alice))

	h.give(alice, 35)
	_, err = h.items.UseFieldEnergyBoostItem(FieldEnergyBoostRequest{SessionToken: aliceToken, ItemCardID: 35, TargetIndex: 2})
	assert.Equal(t, protocol.CodeInvalidTargetIndex, protocol.CodeOf(err))
}
