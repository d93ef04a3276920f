package deck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardbattle/battle-server-go/internal/card"
)

func energyDeck(n int) []int {
	cards := make([]int, n)
	for i := range cards {
		cards[i] = card.EnergyCardID
	}
	return cards
}

func TestValidator_Size(t *testing.T) {
	v := NewValidator(DefaultRules(), card.Builtin())

	for _, n := range []int{0, 39, 41, 60} {
		err := v.Validate(energyDeck(n))
		require.Error(t, err, "size %d", n)
		assert.True(t, errors.Is(err, ErrInvalidDeck))
		assert.Contains(t, err.Error(), "exactly 40 are required")
	}
	assert.NoError(t, v.Validate(energyDeck(40)), "energy cards are unlimited")
}

func TestValidator_Copies(t *testing.T) {
	v := NewValidator(DefaultRules(), card.Builtin())

	deck := energyDeck(37)
	deck = append(deck, 8, 8, 8)
	assert.NoError(t, v.Validate(deck))

	deck = energyDeck(36)
	deck = append(deck, 8, 8, 8, 8)
	err := v.Validate(deck)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card 8 appears 4 times")

	deck = energyDeck(39)
	deck = append(deck, 4242)
	assert.ErrorContains(t, v.Validate(deck), "unknown card 4242")

	assert.NoError(t, NewValidator(DefaultRules(), nil).Validate(append(energyDeck(39), 4242)))
}

func TestService_RegisterAndLoad(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewValidator(DefaultRules(), card.Builtin()), NewMemoryRepository(), zaptest.NewLogger(t))

	_, err := svc.ActiveDeck(ctx, 1)
	assert.ErrorIs(t, err, ErrDeckNotFound)

	assert.Error(t, svc.Register(ctx, 1, energyDeck(10)))
	_, err = svc.ActiveDeck(ctx, 1)
	assert.ErrorIs(t, err, ErrDeckNotFound, "rejected decks are not stored")

	deck := append(energyDeck(38), 32, 8)
	require.NoError(t, svc.Register(ctx, 1, deck))

	loaded, err := svc.ActiveDeck(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, deck, loaded)

	loaded[0] = 1
	again, _ := svc.ActiveDeck(ctx, 1)
	assert.Equal(t, card.EnergyCardID, again[0])
}
