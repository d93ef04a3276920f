package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

func envelope(action string) notice.Envelope {
	d := notice.NewDelta(action).HandUse(8).UnitDeath(notice.Opponent, 2).UnitHealth(notice.Opponent, 0, 5)
	return notice.NewComposer().Compose(1, 2, d)
}

func TestReplay_Cursor(t *testing.T) {
	r := NewReplay("room", [2]int64{1, 2})
	_, ok := r.Next()
	assert.False(t, ok)

	r.Record(envelope("A"))
	r.Record(envelope("B"))
	r.Record(envelope("C"))

	e, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, 1, e.Seq)
	assert.Equal(t, "A", e.Envelope.Actor.Action)

	e, _ = r.Skip(5)
	assert.Equal(t, "C", e.Envelope.Actor.Action)

	e, ok = r.Previous()
	require.True(t, ok)
	assert.Equal(t, "B", e.Envelope.Actor.Action)

	r.Start()
	_, ok = r.Previous()
	assert.False(t, ok)
}

func TestReplay_ViewPerAccount(t *testing.T) {
	r := NewReplay("room", [2]int64{1, 2})
	r.Record(envelope("TARGET_DEATH"))

	mine := r.View(1)
	theirs := r.View(2)
	require.Len(t, mine, 1)
	require.Len(t, theirs, 1)
	assert.Equal(t, notice.You, mine[0].HandUse.PlayerIndex)
	assert.Equal(t, notice.OpponentIndex, theirs[0].HandUse.PlayerIndex)
	assert.Empty(t, r.View(3))

	assert.True(t, r.Has(2))
	assert.False(t, r.Has(3))
}

func TestReplay_FileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewReplay("room-1", [2]int64{1, 2})
	r.Record(envelope("TARGET_DEATH"))
	r.Record(envelope("TURN_END"))
	require.NoError(t, r.SaveToFile(dir))

	loaded, err := LoadFromFile(dir, "room-1")
	require.NoError(t, err)
	assert.Equal(t, [2]int64{1, 2}, loaded.Players)
	require.Equal(t, 2, loaded.Size())

	got := loaded.Entries()[0].Envelope
	assert.Equal(t, r.Entries()[0].Envelope.Actor.Players, got.Actor.Players)
	assert.Equal(t, []int{2}, got.Opponent.Board(notice.You).FieldUnitDeath)

	_, err = LoadFromFile(dir, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecorder(t *testing.T) {
	logger := zaptest.NewLogger(t)

	mem := NewRecorder("", logger)
	mem.StartRecording("room", [2]int64{1, 2})
	mem.Record("room", envelope("A"))
	mem.Record("other", envelope("ignored"))
	require.NoError(t, mem.Finish("room"))
	r, err := mem.Replay("room")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Size(), "finished journals stay in memory without a save dir")
	mem.Clear("room")
	_, err = mem.Replay("room")
	assert.ErrorIs(t, err, ErrNotFound)

	disk := NewRecorder(t.TempDir(), logger)
	disk.StartRecording("room", [2]int64{1, 2})
	disk.Record("room", envelope("A"))
	disk.Record("room", envelope("B"))
	require.NoError(t, disk.Finish("room"))
	r, err = disk.Replay("room")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Size())
	assert.ErrorIs(t, disk.Finish("room"), ErrNotFound)
}
