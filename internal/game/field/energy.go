package field

import (
	"maps"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// AttachedEnergy is the energy attached to one unit, keyed by race.
// Quantities are never negative and a missing key means zero.
type AttachedEnergy map[card.Race]int

// Attach adds amount energy of the given race. Non-positive amounts are ignored.
func (e AttachedEnergy) Attach(race card.Race, amount int) {
	if amount <= 0 {
		return
	}
	e[race] += amount
}

// Detach removes up to amount energy of the given race. The quantity floors at zero and the
// key is dropped when nothing is left. It returns how much was actually removed.
func (e AttachedEnergy) Detach(race card.Race, amount int) int {
	if amount <= 0 {
		return 0
	}
	current, ok := e[race]
	if !ok {
		return 0
	}
	removed := min(amount, current)
	if current-removed == 0 {
		delete(e, race)
	} else {
		e[race] = current - removed
	}
	return removed
}

// Count returns the attached quantity of one race.
func (e AttachedEnergy) Count(race card.Race) int {
	return e[race]
}

// Copy returns a deep copy. A nil map copies to an empty one.
func (e AttachedEnergy) Copy() AttachedEnergy {
	if e == nil {
		return AttachedEnergy{}
	}
	return maps.Clone(e)
}

// ByName renders the map with race labels, for notices.
func (e AttachedEnergy) ByName() map[string]int {
	out := make(map[string]int, len(e))
	for race, n := range e {
		out[race.String()] = n
	}
	return out
}
