package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/emberreach/worldsim/internal/sim/engine"
)

// Recorder appends one TickRecord per tick to a newline-delimited JSON
// file. Attach it to a running EngineManager via SetRecorder so every
// committed tick is logged as it happens.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewRecorder creates dir if needed and opens a fresh log file inside it,
// named by the run's start time so concurrent or successive runs never
// clobber each other's logs.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("replay: creating dir %s: %w", dir, err)
	}
	name := filepath.Join(dir, fmt.Sprintf("replay-%d.jsonl", time.Now().UnixNano()))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("replay: creating log %s: %w", name, err)
	}
	return &Recorder{file: f, enc: json.NewEncoder(f)}, nil
}

// Record appends trace as one line. Safe for concurrent calls, though a
// Loop only ever drives one tick at a time.
func (r *Recorder) Record(trace engine.TickTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := TickRecord{Tick: trace.Tick, Spawned: trace.Spawned}
	rec.Actions = make([]ActionRecord, len(trace.Proposals))
	for i, p := range trace.Proposals {
		rec.Actions[i] = toActionRecord(p)
	}
	return r.enc.Encode(rec)
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
