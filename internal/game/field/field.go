// Package field owns the units each player has in play.
//
// A player's field is a row of slots. A unit keeps its slot index for as long as it lives;
// when it dies the slot is vacated and the indices of the other units do not move. Slot
// indices in requests and notices therefore always refer to the same unit.
package field

import (
	"errors"
	"sync"

	"github.com/cardbattle/battle-server-go/internal/card"
)

// DefaultCapacity is the number of slots on one player's field.
const DefaultCapacity = 5

// ErrFieldFull is returned by Deploy when every slot is occupied.
var ErrFieldFull = errors.New("field is full")

// Unit is a unit in play.
type Unit struct {
	CardID int
	Health int
	Race   card.Race
	Grade  card.Grade
	Energy AttachedEnergy
}

// NewUnit builds a unit from its catalog definition at full health.
func NewUnit(def card.Definition) *Unit {
	return &Unit{
		CardID: def.ID,
		Health: def.Health,
		Race:   def.Race,
		Grade:  def.Grade,
		Energy: AttachedEnergy{},
	}
}

func (u *Unit) copy() *Unit {
	if u == nil {
		return nil
	}
	c := *u
	c.Energy = u.Energy.Copy()
	return &c
}

// Store holds every player's field in one match directory.
type Store struct {
	mu       sync.Mutex
	capacity int
	slots    map[int64][]*Unit
}

// NewStore creates a field store with the given per-player slot count.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		slots:    make(map[int64][]*Unit),
	}
}

// Capacity returns the per-player slot count.
func (s *Store) Capacity() int {
	return s.capacity
}

// Deploy places a unit in the lowest vacant slot and returns its index.
func (s *Store) Deploy(accountID int64, unit *Unit) (int, error) {
	if unit == nil {
		return -1, errors.New("nil unit")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.slots[accountID]
	for i, u := range row {
		if u == nil {
			row[i] = unit.copy()
			return i, nil
		}
	}
	if len(row) >= s.capacity {
		return -1, ErrFieldFull
	}
	s.slots[accountID] = append(row, unit.copy())
	return len(row), nil
}

// unitLocked returns the live unit at idx or nil. Caller holds s.mu.
func (s *Store) unitLocked(accountID int64, idx int) *Unit {
	row := s.slots[accountID]
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// Unit returns a copy of the unit at idx.
func (s *Store) Unit(accountID int64, idx int) (Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return Unit{}, false
	}
	return *u.copy(), true
}

// Exists reports whether idx holds a live unit.
func (s *Store) Exists(accountID int64, idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unitLocked(accountID, idx) != nil
}

// Occupied returns the indices of live units in ascending order.
func (s *Store) Occupied(accountID int64) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int
	for i, u := range s.slots[accountID] {
		if u != nil {
			out = append(out, i)
		}
	}
	return out
}

// Health returns the current health of the unit at idx, or -1 when the slot is empty.
func (s *Store) Health(accountID int64, idx int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return -1
	}
	return u.Health
}

// ApplyDamage lowers the unit's health, flooring at zero. Death is not judged here.
func (s *Store) ApplyDamage(accountID int64, idx, amount int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return -1, false
	}
	u.Health = max(u.Health-max(amount, 0), 0)
	return u.Health, true
}

// ApplyDamageToAll damages every live unit and returns the resulting health per index.
func (s *Store) ApplyDamageToAll(accountID int64, amount int) map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]int)
	for i, u := range s.slots[accountID] {
		if u == nil {
			continue
		}
		u.Health = max(u.Health-max(amount, 0), 0)
		out[i] = u.Health
	}
	return out
}

// InstantDeath vacates idx regardless of health and returns the removed unit.
func (s *Store) InstantDeath(accountID int64, idx int) (Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return Unit{}, false
	}
	s.slots[accountID][idx] = nil
	return *u, true
}

// JudgeDeath applies the death rule to one slot. It returns idx when the slot is dead and
// -1 when a unit with positive health still stands there. A unit vacated by this call is
// returned so its card can be buried; a slot that was already empty reports idx and nil.
func (s *Store) JudgeDeath(accountID int64, idx int) (int, *Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return idx, nil
	}
	if u.Health > 0 {
		return -1, nil
	}
	s.slots[accountID][idx] = nil
	return idx, u
}

// Death is a unit removed by JudgeDeathOfAll.
type Death struct {
	Index int
	Unit  Unit
}

// JudgeDeathOfAll vacates every slot whose unit has no health left, in ascending order.
func (s *Store) JudgeDeathOfAll(accountID int64) []Death {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dead []Death
	row := s.slots[accountID]
	for i, u := range row {
		if u == nil || u.Health > 0 {
			continue
		}
		row[i] = nil
		dead = append(dead, Death{Index: i, Unit: *u})
	}
	return dead
}

// AttachEnergy attaches energy of a race to the unit at idx.
func (s *Store) AttachEnergy(accountID int64, idx int, race card.Race, amount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return false
	}
	if u.Energy == nil {
		u.Energy = AttachedEnergy{}
	}
	u.Energy.Attach(race, amount)
	return true
}

// DetachOwnRaceEnergy removes up to amount energy matching the unit's own race. The race
// read and the detach happen under one lock. It returns the removed quantity and the
// updated map.
func (s *Store) DetachOwnRaceEnergy(accountID int64, idx, amount int) (int, AttachedEnergy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return 0, nil, false
	}
	removed := u.Energy.Detach(u.Race, amount)
	return removed, u.Energy.Copy(), true
}

// AttachedEnergy returns a copy of the energy attached to the unit at idx.
func (s *Store) AttachedEnergy(accountID int64, idx int) (AttachedEnergy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.unitLocked(accountID, idx)
	if u == nil {
		return nil, false
	}
	return u.Energy.Copy(), true
}

// Snapshot returns a deep copy of the player's slots. Vacated slots are nil.
func (s *Store) Snapshot(accountID int64) []*Unit {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.slots[accountID]
	out := make([]*Unit, len(row))
	for i, u := range row {
		out[i] = u.copy()
	}
	return out
}

// Clear drops the player's field.
func (s *Store) Clear(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, accountID)
}
