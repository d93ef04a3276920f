package battle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

var (
	// ErrFirstTurnDecided is returned for a choice submitted after the draw was settled,
	// or in a room that never held one.
	ErrFirstTurnDecided = errors.New("first turn already decided")
	// ErrInvalidGesture is returned for a gesture other than rock, paper or scissors.
	ErrInvalidGesture = errors.New("invalid gesture")
	// ErrNotInRoom is returned for an account that does not play in the room.
	ErrNotInRoom = errors.New("account does not play in this room")
)

// Gesture is a rock-paper-scissors choice.
type Gesture int

const (
	GestureNone Gesture = iota
	Rock
	Paper
	Scissors
)

var gestureNames = map[Gesture]string{
	GestureNone: "NONE",
	Rock:        "ROCK",
	Paper:       "PAPER",
	Scissors:    "SCISSORS",
}

func (g Gesture) String() string {
	if name, ok := gestureNames[g]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseGesture accepts ROCK, PAPER or SCISSORS in any case.
func ParseGesture(s string) (Gesture, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ROCK":
		return Rock, nil
	case "PAPER":
		return Paper, nil
	case "SCISSORS":
		return Scissors, nil
	default:
		return GestureNone, fmt.Errorf("%q: %w", s, ErrInvalidGesture)
	}
}

// Beats reports whether g wins against other.
func (g Gesture) Beats(other Gesture) bool {
	switch g {
	case Rock:
		return other == Scissors
	case Paper:
		return other == Rock
	case Scissors:
		return other == Paper
	default:
		return false
	}
}

// RandomGesture picks a gesture uniformly.
func RandomGesture() Gesture {
	return Gesture(rand.IntN(3) + 1)
}

// firstTurnDraw collects both players' gestures before round 1. A tie is replaced by
// random gestures for both players until one wins.
type firstTurnDraw struct {
	choices map[int64]Gesture
	random  func() Gesture
	decided bool
}

func newFirstTurnDraw(random func() Gesture) *firstTurnDraw {
	if random == nil {
		random = RandomGesture
	}
	return &firstTurnDraw{choices: make(map[int64]Gesture, 2), random: random}
}

// settle returns the winner once both players have chosen.
func (d *firstTurnDraw) settle(players [2]int64) (int64, bool) {
	a, okA := d.choices[players[0]]
	b, okB := d.choices[players[1]]
	if !okA || !okB {
		return 0, false
	}
	for a == b {
		a, b = d.random(), d.random()
	}
	d.choices[players[0]], d.choices[players[1]] = a, b
	d.decided = true
	if a.Beats(b) {
		return players[0], true
	}
	return players[1], true
}
