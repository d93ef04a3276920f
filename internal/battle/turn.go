package battle

// TurnTracker tracks the active player and the round number of a two-player match.
// A round is complete once both players have ended a turn.
type TurnTracker struct {
	order     [2]int64
	activeIdx int
	round     int
}

// NewTurnTracker starts at round 1 with first to act.
func NewTurnTracker(first, second int64) *TurnTracker {
	return &TurnTracker{
		order:     [2]int64{first, second},
		activeIdx: 0,
		round:     1,
	}
}

// Round returns the current round (1-based).
func (tt *TurnTracker) Round() int {
	return tt.round
}

// ActivePlayer returns the account whose turn it is.
func (tt *TurnTracker) ActivePlayer() int64 {
	return tt.order[tt.activeIdx]
}

// Advance passes the turn to the other player. The round number increments when the
// turn comes back to the player who acted first.
func (tt *TurnTracker) Advance() (int64, int) {
	tt.activeIdx = 1 - tt.activeIdx
	if tt.activeIdx == 0 {
		tt.round++
	}
	return tt.ActivePlayer(), tt.round
}
