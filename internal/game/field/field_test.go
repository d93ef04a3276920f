package field

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbattle/battle-server-go/internal/card"
	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

func unit(id, health int, grade card.Grade) *Unit {
	return &Unit{CardID: id, Health: health, Race: card.RaceUndead, Grade: grade, Energy: AttachedEnergy{}}
}

func fillField(t *testing.T, s *Store, account int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		idx, err := s.Deploy(account, unit(100+i, 10, card.GradeCommon))
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
}

func TestStore_DeployFillsVacatedSlot(t *testing.T) {
	s := NewStore(3)
	fillField(t, s, 1, 3)

	_, err := s.Deploy(1, unit(1, 1, card.GradeCommon))
	assert.ErrorIs(t, err, ErrFieldFull)

	_, ok := s.InstantDeath(1, 1)
	require.True(t, ok)

	idx, err := s.Deploy(1, unit(7, 5, card.GradeCommon))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestStore_HealthSentinel(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 1, 2)

	assert.Equal(t, 10, s.Health(1, 0))
	assert.Equal(t, -1, s.Health(1, 4))
	assert.Equal(t, -1, s.Health(2, 0))

	s.InstantDeath(1, 0)
	assert.Equal(t, -1, s.Health(1, 0))
	assert.Equal(t, 10, s.Health(1, 1), "other slots keep their index")
}

func TestStore_DamageAndJudgeDeath(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 1, 2)

	hp, ok := s.ApplyDamage(1, 0, 4)
	require.True(t, ok)
	assert.Equal(t, 6, hp)

	dead, removed := s.JudgeDeath(1, 0)
	assert.Equal(t, -1, dead)
	assert.Nil(t, removed)

	hp, _ = s.ApplyDamage(1, 0, 50)
	assert.Equal(t, 0, hp, "health floors at zero")

	dead, removed = s.JudgeDeath(1, 0)
	assert.Equal(t, 0, dead)
	require.NotNil(t, removed)
	assert.Equal(t, 100, removed.CardID)

	dead, removed = s.JudgeDeath(1, 0)
	assert.Equal(t, 0, dead, "vacated slot stays dead")
	assert.Nil(t, removed)
}

func TestStore_ApplyDamageToAll(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 2, 3)
	s.ApplyDamage(2, 2, -5) // negative damage is ignored
	s.InstantDeath(2, 1)

	health := s.ApplyDamageToAll(2, 10)
	assert.Equal(t, map[int]int{0: 0, 2: 0}, health)

	deaths := s.JudgeDeathOfAll(2)
	require.Len(t, deaths, 2)
	assert.Equal(t, 0, deaths[0].Index)
	assert.Equal(t, 2, deaths[1].Index)
	assert.Empty(t, s.Occupied(2))
}

func TestStore_Energy(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 1, 1)

	require.True(t, s.AttachEnergy(1, 0, card.RaceUndead, 3))
	require.True(t, s.AttachEnergy(1, 0, card.RaceHuman, 1))

	removed, energy, ok := s.DetachOwnRaceEnergy(1, 0, 2)
	require.True(t, ok)
	assert.Equal(t, 2, removed)
	assert.Equal(t, AttachedEnergy{card.RaceUndead: 1, card.RaceHuman: 1}, energy)

	removed, energy, _ = s.DetachOwnRaceEnergy(1, 0, 5)
	assert.Equal(t, 1, removed)
	_, present := energy[card.RaceUndead]
	assert.False(t, present, "empty race key is dropped")

	removed, energy, _ = s.DetachOwnRaceEnergy(1, 0, 1)
	assert.Zero(t, removed)
	assert.Equal(t, AttachedEnergy{card.RaceHuman: 1}, energy, "other races are untouched")

	_, _, ok = s.DetachOwnRaceEnergy(1, 3, 1)
	assert.False(t, ok)
}

func TestStore_SnapshotIsDeep(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 1, 2)
	s.AttachEnergy(1, 0, card.RaceUndead, 1)
	s.InstantDeath(1, 1)

	snap := s.Snapshot(1)
	require.Len(t, snap, 2)
	assert.Nil(t, snap[1])

	snap[0].Health = 99
	snap[0].Energy[card.RaceUndead] = 99
	assert.Equal(t, 10, s.Health(1, 0))
	energy, _ := s.AttachedEnergy(1, 0)
	assert.Equal(t, 1, energy.Count(card.RaceUndead))
}

func TestAttachedEnergy(t *testing.T) {
	e := AttachedEnergy{}
	e.Attach(card.RaceTrent, 2)
	e.Attach(card.RaceTrent, 0)
	e.Attach(card.RaceAngel, 1)
	assert.Equal(t, 2, e.Count(card.RaceTrent))
	assert.Equal(t, map[string]int{"TRENT": 2, "ANGEL": 1}, e.ByName())

	assert.Equal(t, 0, e.Detach(card.RaceMachine, 1))
	assert.Equal(t, 0, e.Detach(card.RaceTrent, -1))
	assert.Equal(t, 2, e.Detach(card.RaceTrent, 3))
	assert.Equal(t, 0, e.Count(card.RaceTrent))

	var nilMap AttachedEnergy
	assert.NotNil(t, nilMap.Copy())
}

func TestTargetValidator(t *testing.T) {
	s := NewStore(DefaultCapacity)
	fillField(t, s, 2, 5)
	s.InstantDeath(2, 3)
	tv := NewTargetValidator(s)

	assert.NoError(t, tv.ValidateTarget(2, 0, "target"))

	err := tv.ValidateTarget(2, 3, "target")
	assert.True(t, errors.Is(err, protocol.ErrInvalidTargetIndex))
	assert.True(t, errors.Is(tv.ValidateTarget(2, -1, "target"), protocol.ErrInvalidTargetIndex))

	req := TargetRequirement{Count: 2, Description: "opponent unit"}
	assert.NoError(t, tv.ValidateSelection(2, []int{4, 0}, req))
	assert.ErrorIs(t, tv.ValidateSelection(2, []int{0}, req), protocol.ErrTargetCountMismatch)
	assert.ErrorIs(t, tv.ValidateSelection(2, []int{0, 0}, req), protocol.ErrInvalidTargetIndex)
	assert.ErrorIs(t, tv.ValidateSelection(2, []int{0, 3}, req), protocol.ErrInvalidTargetIndex)
	assert.ErrorIs(t, tv.ValidateSelection(2, nil, TargetRequirement{}), protocol.ErrTargetCountMismatch)
	for _, count := range []int{0, -1} {
		err := tv.ValidateSelection(2, []int{0, 1, 2, 4}, TargetRequirement{Count: count})
		assert.ErrorIs(t, err, protocol.ErrTargetCountMismatch, "count %d accepts no selection", count)
	}
}
