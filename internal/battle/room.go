package battle

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardbattle/battle-server-go/internal/game/protocol"
)

// State is the lifecycle state of a room.
type State int

const (
	StateInProgress State = iota
	StateFinished
	// StateDecidingFirst waits for both players' first-turn gestures. Nobody holds the turn.
	StateDecidingFirst
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "IN_PROGRESS"
	case StateFinished:
		return "FINISHED"
	case StateDecidingFirst:
		return "DECIDING_FIRST"
	default:
		return "UNKNOWN"
	}
}

// Room is a live match between two accounts.
type Room struct {
	ID         string
	Players    [2]int64
	CreateTime time.Time

	mu      sync.RWMutex
	state   State
	turn    *TurnTracker
	winner  int64
	endTime *time.Time
	draw    *firstTurnDraw

	// action is held for a whole action so two requests in one room never interleave.
	action sync.Mutex
}

// RoomSnapshot is a consistent copy of a room's state.
type RoomSnapshot struct {
	ID           string
	Players      [2]int64
	State        State
	ActivePlayer int64
	Round        int
	Winner       int64
	CreateTime   time.Time
	EndTime      *time.Time
}

func newRoom(first, second int64, draw *firstTurnDraw) *Room {
	r := &Room{
		ID:         uuid.New().String(),
		Players:    [2]int64{first, second},
		CreateTime: time.Now(),
		state:      StateInProgress,
		turn:       NewTurnTracker(first, second),
	}
	if draw != nil {
		r.state = StateDecidingFirst
		r.draw = draw
	}
	return r
}

// Serialize runs fn while holding the room's action lock.
func (r *Room) Serialize(fn func() error) error {
	r.action.Lock()
	defer r.action.Unlock()
	return fn()
}

// Has reports whether the account plays in this room.
func (r *Room) Has(accountID int64) bool {
	return r.Players[0] == accountID || r.Players[1] == accountID
}

// OpponentOf returns the other player.
func (r *Room) OpponentOf(accountID int64) (int64, bool) {
	switch accountID {
	case r.Players[0]:
		return r.Players[1], true
	case r.Players[1]:
		return r.Players[0], true
	default:
		return 0, false
	}
}

// IsTurnOf reports whether the account is the active player of a running match.
func (r *Room) IsTurnOf(accountID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == StateInProgress && r.turn.ActivePlayer() == accountID
}

// Round returns the current round.
func (r *Room) Round() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.turn.Round()
}

// ActivePlayer returns the account whose turn it is, or 0 before the first turn is decided.
func (r *Room) ActivePlayer() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activePlayerLocked()
}

func (r *Room) activePlayerLocked() int64 {
	if r.state == StateDecidingFirst {
		return 0
	}
	return r.turn.ActivePlayer()
}

// EndTurn passes the turn on. Only the active player may end the turn.
func (r *Room) EndTurn(accountID int64) (next int64, round int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInProgress || r.turn.ActivePlayer() != accountID {
		return 0, 0, protocol.New(protocol.CodeNotYourTurn, "turn belongs to the opponent")
	}
	next, round = r.turn.Advance()
	return next, round, nil
}

// SubmitGesture records the account's first-turn gesture. Once both players have chosen,
// the winner is seated first for round 1 and the room starts. A player may change the
// gesture until the opponent has chosen.
func (r *Room) SubmitGesture(accountID int64, g Gesture) (first int64, decided bool, err error) {
	if !r.Has(accountID) {
		return 0, false, ErrNotInRoom
	}
	if g == GestureNone {
		return 0, false, fmt.Errorf("gesture %s: %w", g, ErrInvalidGesture)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateDecidingFirst {
		return 0, false, ErrFirstTurnDecided
	}
	r.draw.choices[accountID] = g

	first, decided = r.draw.settle(r.Players)
	if !decided {
		return 0, false, nil
	}
	second, _ := r.OpponentOf(first)
	r.turn = NewTurnTracker(first, second)
	r.state = StateInProgress
	return first, true, nil
}

// FirstPlayer returns the account that acts first, once known. A room closed before its
// draw settled never has one.
func (r *Room) FirstPlayer() (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.draw != nil && !r.draw.decided {
		return 0, false
	}
	return r.turn.order[0], true
}

// Finish ends the match. A zero winner means no winner was decided.
func (r *Room) Finish(winner int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFinished {
		return
	}
	now := time.Now()
	r.state = StateFinished
	r.winner = winner
	r.endTime = &now
}

// State returns the lifecycle state.
func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Snapshot returns a consistent copy of the room.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var end *time.Time
	if r.endTime != nil {
		cp := *r.endTime
		end = &cp
	}
	return RoomSnapshot{
		ID:           r.ID,
		Players:      r.Players,
		State:        r.state,
		ActivePlayer: r.activePlayerLocked(),
		Round:        r.turn.Round(),
		Winner:       r.winner,
		CreateTime:   r.CreateTime,
		EndTime:      end,
	}
}
