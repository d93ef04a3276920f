package replay

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cardbattle/battle-server-go/internal/game/notice"
)

// Recorder keeps the journals of live and finished rooms. With a save directory, finished
// journals move to disk.
type Recorder struct {
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
	logger  *zap.Logger
}

// NewRecorder creates a recorder. An empty saveDir keeps finished journals in memory.
func NewRecorder(saveDir string, logger *zap.Logger) *Recorder {
	return &Recorder{
		replays: make(map[string]*Replay),
		saveDir: saveDir,
		logger:  logger,
	}
}

// StartRecording opens the journal of a room.
func (rr *Recorder) StartRecording(roomID string, players [2]int64) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.replays[roomID] = NewReplay(roomID, players)
	rr.logger.Debug("started replay recording", zap.String("room_id", roomID))
}

// Record appends an envelope to the room's journal. Unknown rooms are ignored.
func (rr *Recorder) Record(roomID string, env notice.Envelope) {
	rr.mu.RLock()
	r := rr.replays[roomID]
	rr.mu.RUnlock()
	if r == nil {
		return
	}
	r.Record(env)
}

// Finish closes the room's journal, writing it to disk when a directory is set.
func (rr *Recorder) Finish(roomID string) error {
	if rr.saveDir == "" {
		return nil
	}

	rr.mu.Lock()
	r, ok := rr.replays[roomID]
	delete(rr.replays, roomID)
	rr.mu.Unlock()
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}

	if err := r.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("save replay: %w", err)
	}
	rr.logger.Info("saved replay",
		zap.String("room_id", roomID),
		zap.Int("entries", r.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// Replay returns the journal of a room from memory or disk.
func (rr *Recorder) Replay(roomID string) (*Replay, error) {
	rr.mu.RLock()
	r, ok := rr.replays[roomID]
	rr.mu.RUnlock()
	if ok {
		return r, nil
	}
	if rr.saveDir == "" {
		return nil, ErrNotFound
	}
	return LoadFromFile(rr.saveDir, roomID)
}

// Clear drops a journal from memory without saving it.
func (rr *Recorder) Clear(roomID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, roomID)
}
