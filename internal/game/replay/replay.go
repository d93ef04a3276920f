// Package replay records the notices of each match so finished matches can be reviewed.
package replay

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

const fileVersion = 1

// ErrNotFound is returned for a room with no recorded replay.
var ErrNotFound = errors.New("replay not found")

// Entry is one published action.
type Entry struct {
	Seq        int
	RecordedAt time.Time
	Envelope   notice.Envelope
}

// Replay is the ordered journal of one room with a playback cursor.
type Replay struct {
	RoomID  string
	Players [2]int64

	mu           sync.RWMutex
	entries      []Entry
	currentIndex int
}

// NewReplay creates an empty journal.
func NewReplay(roomID string, players [2]int64) *Replay {
	return &Replay{RoomID: roomID, Players: players}
}

// Record appends an envelope.
func (r *Replay) Record(env notice.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Seq: len(r.entries) + 1, RecordedAt: time.Now(), Envelope: env})
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentIndex = 0
}

// Next returns the entry under the cursor and advances it.
func (r *Replay) Next() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex >= len(r.entries) {
		return Entry{}, false
	}
	e := r.entries[r.currentIndex]
	r.currentIndex++
	return e, true
}

// Previous steps the cursor back and returns that entry.
func (r *Replay) Previous() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex == 0 {
		return Entry{}, false
	}
	r.currentIndex--
	return r.entries[r.currentIndex], true
}

// Skip moves the cursor by count, clamped to the journal.
func (r *Replay) Skip(count int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	r.currentIndex = min(max(r.currentIndex+count, 0), len(r.entries)-1)
	return r.entries[r.currentIndex], true
}

// Size returns the number of entries.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a copy of the journal.
func (r *Replay) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Has reports whether the account played in the room.
func (r *Replay) Has(accountID int64) bool {
	return r.Players[0] == accountID || r.Players[1] == accountID
}

// View returns the notices the account received, in order.
func (r *Replay) View(accountID int64) []notice.Notice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]notice.Notice, 0, len(r.entries))
	for _, e := range r.entries {
		if n, ok := e.Envelope.For(accountID); ok {
			out = append(out, n)
		}
	}
	return out
}

type fileHeader struct {
	RoomID     string
	Players    [2]int64
	SavedAt    time.Time
	Version    int
	EntryCount int
}

func replayPath(dir, roomID string) string {
	return filepath.Join(dir, roomID+".replay")
}

// SaveToFile writes the journal to dir as a gzipped gob stream.
func (r *Replay) SaveToFile(dir string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create replay dir: %w", err)
	}
	file, err := os.Create(replayPath(dir, r.RoomID))
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)

	header := fileHeader{
		RoomID:     r.RoomID,
		Players:    r.Players,
		SavedAt:    time.Now(),
		Version:    fileVersion,
		EntryCount: len(r.entries),
	}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for i := range r.entries {
		if err := enc.Encode(&r.entries[i]); err != nil {
			return fmt.Errorf("encode entry %d: %w", i, err)
		}
	}
	return zw.Close()
}

// LoadFromFile reads a journal written by SaveToFile.
func LoadFromFile(dir, roomID string) (*Replay, error) {
	file, err := os.Open(replayPath(dir, roomID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	dec := gob.NewDecoder(zr)

	var header fileHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != fileVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", header.Version)
	}

	r := NewReplay(header.RoomID, header.Players)
	for i := 0; i < header.EntryCount; i++ {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode entry %d: %w", i, err)
		}
		r.entries = append(r.entries, e)
	}
	return r, nil
}
