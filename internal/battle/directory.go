// Package battle pairs accounts into rooms and tracks whose turn it is.
package battle

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrSelfMatch is returned when both seats name the same account.
	ErrSelfMatch = errors.New("account cannot play against itself")
	// ErrAlreadyInMatch is returned when either account already has a live room.
	ErrAlreadyInMatch = errors.New("account already in a match")
)

// Directory indexes live rooms by id and by account. An account is in at most one room.
type Directory struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	byAccount map[int64]*Room
	logger    *zap.Logger

	// drawGesture is non-nil when new rooms settle the first turn by rock-paper-scissors.
	drawGesture func() Gesture
}

// NewDirectory creates an empty directory.
func NewDirectory(logger *zap.Logger) *Directory {
	return &Directory{
		rooms:     make(map[string]*Room),
		byAccount: make(map[int64]*Room),
		logger:    logger,
	}
}

// EnableFirstTurnDraw makes rooms created from now on wait for a rock-paper-scissors draw
// before round 1. random replaces tied gestures; nil uses RandomGesture.
func (d *Directory) EnableFirstTurnDraw(random func() Gesture) {
	if random == nil {
		random = RandomGesture
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drawGesture = random
}

// CreateRoom pairs two accounts. first acts first unless the first-turn draw is enabled.
func (d *Directory) CreateRoom(first, second int64) (*Room, error) {
	if first == second {
		return nil, fmt.Errorf("account %d: %w", first, ErrSelfMatch)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, acct := range []int64{first, second} {
		if existing, ok := d.byAccount[acct]; ok {
			return nil, fmt.Errorf("account %d in room %s: %w", acct, existing.ID, ErrAlreadyInMatch)
		}
	}

	var draw *firstTurnDraw
	if d.drawGesture != nil {
		draw = newFirstTurnDraw(d.drawGesture)
	}
	room := newRoom(first, second, draw)
	d.rooms[room.ID] = room
	d.byAccount[first] = room
	d.byAccount[second] = room

	d.logger.Info("room created",
		zap.String("room_id", room.ID),
		zap.Int64("first", first),
		zap.Int64("second", second),
		zap.String("state", room.State().String()),
	)
	return room, nil
}

// RoomOf returns the account's room.
func (d *Directory) RoomOf(accountID int64) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.byAccount[accountID]
	return room, ok
}

// Room returns a room by id.
func (d *Directory) Room(roomID string) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	return room, ok
}

// OpponentOf returns the opposing account of the account's active match.
func (d *Directory) OpponentOf(accountID int64) (int64, bool) {
	room, ok := d.RoomOf(accountID)
	if !ok {
		return 0, false
	}
	return room.OpponentOf(accountID)
}

// CloseRoom finishes a room and releases both accounts.
func (d *Directory) CloseRoom(roomID string, winner int64) {
	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if ok {
		delete(d.rooms, roomID)
		for _, acct := range room.Players {
			if d.byAccount[acct] == room {
				delete(d.byAccount, acct)
			}
		}
	}
	d.mu.Unlock()

	if !ok {
		return
	}
	room.Finish(winner)
	d.logger.Info("room closed", zap.String("room_id", roomID), zap.Int64("winner", winner))
}

// Rooms returns every live room.
func (d *Directory) Rooms() []*Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]*Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ActiveRoomCount returns the number of live rooms.
func (d *Directory) ActiveRoomCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
