package battle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

func TestDirectory_CreateRoom(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))

	room, err := d.CreateRoom(1, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, 1, d.ActiveRoomCount())

	opp, ok := d.OpponentOf(1)
	require.True(t, ok)
	assert.Equal(t, int64(2), opp)
	opp, _ = d.OpponentOf(2)
	assert.Equal(t, int64(1), opp)

	_, ok = d.OpponentOf(3)
	assert.False(t, ok)

	_, err = d.CreateRoom(2, 3)
	assert.ErrorIs(t, err, ErrAlreadyInMatch, "one opponent per account")
	_, err = d.CreateRoom(4, 4)
	assert.ErrorIs(t, err, ErrSelfMatch)

	byID, ok := d.Room(room.ID)
	require.True(t, ok)
	assert.Same(t, room, byID)
}

func TestRoom_TurnsAndRounds(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	room, err := d.CreateRoom(10, 20)
	require.NoError(t, err)

	assert.True(t, room.IsTurnOf(10))
	assert.False(t, room.IsTurnOf(20))
	assert.Equal(t, 1, room.Round())

	_, _, err = room.EndTurn(20)
	assert.True(t, errors.Is(err, protocol.ErrNotYourTurn))

	next, round, err := room.EndTurn(10)
	require.NoError(t, err)
	assert.Equal(t, int64(20), next)
	assert.Equal(t, 1, round, "round advances only after both players")

	next, round, err = room.EndTurn(20)
	require.NoError(t, err)
	assert.Equal(t, int64(10), next)
	assert.Equal(t, 2, round)
	assert.Equal(t, int64(10), room.ActivePlayer())
}

func TestDirectory_CloseRoom(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	room, err := d.CreateRoom(1, 2)
	require.NoError(t, err)

	d.CloseRoom(room.ID, 1)
	assert.Equal(t, StateFinished, room.State())
	assert.False(t, room.IsTurnOf(1), "finished rooms have no active player")
	_, ok := d.RoomOf(1)
	assert.False(t, ok)

	snap := room.Snapshot()
	assert.Equal(t, int64(1), snap.Winner)
	require.NotNil(t, snap.EndTime)

	_, err = d.CreateRoom(1, 2)
	assert.NoError(t, err, "accounts are free after close")

	d.CloseRoom("missing", 0)
	assert.Len(t, d.Rooms(), 1)
}

func TestRoom_SerializeRunsOneActionAtATime(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	room, err := d.CreateRoom(1, 2)
	require.NoError(t, err)

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = room.Serialize(func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight)
}

func TestTurnTracker(t *testing.T) {
	tt := NewTurnTracker(5, 6)
	assert.Equal(t, int64(5), tt.ActivePlayer())
	assert.Equal(t, 1, tt.Round())

	for i := 0; i < 6; i++ {
		tt.Advance()
	}
	assert.Equal(t, 4, tt.Round())
	assert.Equal(t, int64(5), tt.ActivePlayer())
	assert.Equal(t, "IN_PROGRESS", StateInProgress.String())
}

func TestGesture(t *testing.T) {
	tests := []struct {
		a, b Gesture
		want bool
	}{
		{Rock, Scissors, true},
		{Scissors, Paper, true},
		{Paper, Rock, true},
		{Scissors, Rock, false},
		{Rock, Rock, false},
		{GestureNone, Rock, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Beats(tt.b), "%s vs %s", tt.a, tt.b)
	}

	g, err := ParseGesture(" paper ")
	require.NoError(t, err)
	assert.Equal(t, Paper, g)
	_, err = ParseGesture("lizard")
	assert.ErrorIs(t, err, ErrInvalidGesture)

	for i := 0; i < 50; i++ {
		assert.Contains(t, []Gesture{Rock, Paper, Scissors}, RandomGesture())
	}
}

func TestRoom_FirstTurnDrawSeatsWinner(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	d.EnableFirstTurnDraw(nil)
	room, err := d.CreateRoom(1, 2)
	require.NoError(t, err)

	assert.Equal(t, StateDecidingFirst, room.State())
	assert.False(t, room.IsTurnOf(1), "nobody acts before the draw")
	assert.Zero(t, room.ActivePlayer())
	_, _, err = room.EndTurn(1)
	assert.True(t, errors.Is(err, protocol.ErrNotYourTurn))
	_, known := room.FirstPlayer()
	assert.False(t, known)

	first, decided, err := room.SubmitGesture(1, Rock)
	require.NoError(t, err)
	assert.False(t, decided)
	assert.Zero(t, first)

	first, decided, err = room.SubmitGesture(2, Paper)
	require.NoError(t, err)
	require.True(t, decided)
	assert.Equal(t, int64(2), first)

	assert.Equal(t, StateInProgress, room.State())
	assert.True(t, room.IsTurnOf(2))
	assert.Equal(t, 1, room.Round())
	got, known := room.FirstPlayer()
	assert.True(t, known)
	assert.Equal(t, int64(2), got)

	_, _, err = room.SubmitGesture(1, Scissors)
	assert.ErrorIs(t, err, ErrFirstTurnDecided)
}

func TestRoom_FirstTurnDrawRedrawsTies(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	redraws := []Gesture{Paper, Paper, Scissors, Paper}
	d.EnableFirstTurnDraw(func() Gesture {
		g := redraws[0]
		redraws = redraws[1:]
		return g
	})
	room, err := d.CreateRoom(1, 2)
	require.NoError(t, err)

	_, _, err = room.SubmitGesture(1, Rock)
	require.NoError(t, err)
	first, decided, err := room.SubmitGesture(2, Rock)
	require.NoError(t, err)
	require.True(t, decided)
	assert.Equal(t, int64(1), first, "second redraw: scissors beats paper")
	assert.Empty(t, redraws)
}

func TestRoom_SubmitGestureRejections(t *testing.T) {
	d := NewDirectory(zaptest.NewLogger(t))
	plain, err := d.CreateRoom(1, 2)
	require.NoError(t, err)
	_, _, err = plain.SubmitGesture(1, Rock)
	assert.ErrorIs(t, err, ErrFirstTurnDecided, "rooms without a draw start decided")

	d.EnableFirstTurnDraw(nil)
	room, err := d.CreateRoom(3, 4)
	require.NoError(t, err)
	_, _, err = room.SubmitGesture(5, Rock)
	assert.ErrorIs(t, err, ErrNotInRoom)
	_, _, err = room.SubmitGesture(3, GestureNone)
	assert.ErrorIs(t, err, ErrInvalidGesture)
	assert.Equal(t, StateDecidingFirst, room.State())

	d.CloseRoom(room.ID, 0)
	_, _, err = room.SubmitGesture(3, Rock)
	assert.ErrorIs(t, err, ErrFirstTurnDecided)
	_, decided := room.FirstPlayer()
	assert.False(t, decided, "closed before the draw settled")
}
