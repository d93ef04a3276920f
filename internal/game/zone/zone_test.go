package zone

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_AddRemove(t *testing.T) {
	hand := NewStore(Hand)
	hand.AddAll(1, []int{8, 93, 8})

	assert.True(t, hand.Contains(1, 8))
	assert.False(t, hand.Contains(2, 8), "partitions are per account")

	assert.True(t, hand.Remove(1, 8))
	assert.Equal(t, []int{93, 8}, hand.Cards(1), "only one instance is removed")

	assert.True(t, hand.Remove(1, 8))
	assert.False(t, hand.Remove(1, 8))
	assert.Equal(t, 1, hand.Count(1))
}

func TestStore_DrawTop(t *testing.T) {
	deck := NewStore(Deck)
	deck.Replace(1, []int{1, 2, 3, 4, 5})

	assert.Equal(t, []int{1, 2}, deck.DrawTop(1, 2))
	assert.Equal(t, []int{3, 4, 5}, deck.Cards(1))

	assert.Equal(t, []int{3, 4, 5}, deck.DrawTop(1, 10), "short deck yields what is left")
	assert.Empty(t, deck.Cards(1))
	assert.Empty(t, deck.DrawTop(1, 1))
	assert.Empty(t, deck.DrawTop(1, 0))
}

func TestStore_CardsIsACopy(t *testing.T) {
	tomb := NewStore(Tomb)
	tomb.Add(1, 32)

	cards := tomb.Cards(1)
	cards[0] = 99
	assert.Equal(t, []int{32}, tomb.Cards(1))
}

func TestStore_Clear(t *testing.T) {
	lost := NewStore(LostZone)
	lost.Add(1, 5)
	lost.Clear(1)
	assert.Zero(t, lost.Count(1))
	assert.Equal(t, LostZone, lost.Name())
}

func TestStore_ConcurrentMutation(t *testing.T) {
	hand := NewStore(Hand)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(card int) {
			defer wg.Done()
			hand.Add(1, card)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, hand.Count(1))
}
