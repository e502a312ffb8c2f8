// Package events implements the wire-exact Event record (spec.md §6) and a
// bounded, rate-limited append-only log. It is modeled directly on the
// teacher's internal/game/event_log.go: a fixed-size circular buffer, a
// global token-bucket limiter from golang.org/x/time/rate, and an async
// file writer, adapted from per-player rate limiting to a single global limit.
package events

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Category is the stable, closed set of event kinds external observers
// key off of (spec.md §6). Message formatting is an observability concern;
// category is the stable contract.
type Category string

const (
	CategoryAttack      Category = "Attack"
	CategoryMove        Category = "Move"
	CategoryRest        Category = "Rest"
	CategorySpawn       Category = "Spawn"
	CategoryDeath       Category = "Death"
	CategoryLevelUp     Category = "LevelUp"
	CategoryLoot        Category = "Loot"
	CategoryUseItem     Category = "UseItem"
	CategoryHarvest     Category = "Harvest"
	CategorySkill       Category = "Skill"
	CategoryOpportunity Category = "Opportunity"
	CategoryChaseSprint Category = "ChaseSprint"
	CategoryCombat      Category = "Combat"
	CategoryMovement    Category = "Movement"
)

// Event is the wire-exact record consumed by external observers.
type Event struct {
	Tick    int64    `json:"tick"`
	Category Category `json:"category"`
	Message string   `json:"message"`
}

const (
	bufferSize       = 4096
	maxEventsPerSec  = 20000
	batchFlushSize   = 128
	flushInterval    = 100 * time.Millisecond
)

// Log is a bounded, rate-limited append-only event log. Readers copy the
// current events under a read lock, which holds writers off only for the
// copy (spec.md §5); the
// ring buffer never grows, so a burst of emits drops the oldest once the
// writer has not yet caught up the read head past them.
type Log struct {
	mu      sync.RWMutex
	buf     []Event
	total   int64 // monotonically increasing count of all emits ever accepted
	dropped uint64

	limiter *rate.Limiter

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	pending []Event
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{
		buf:      make([]Event, 0, bufferSize),
		limiter:  rate.NewLimiter(rate.Limit(maxEventsPerSec), maxEventsPerSec/10),
		stopChan: make(chan struct{}),
	}
}

// Start begins the async file writer. filePath == "" disables file output
// (in-memory only).
func (l *Log) Start(filePath string) error {
	if l.running.Load() {
		return nil
	}
	l.filePath = filePath
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = f
	}
	l.running.Store(true)
	l.writerWg.Add(1)
	go l.writerLoop()
	return nil
}

// Stop gracefully shuts down the file writer.
func (l *Log) Stop() {
	l.stopOnce.Do(func() {
		l.running.Store(false)
		close(l.stopChan)
		l.writerWg.Wait()
		l.fileMu.Lock()
		if l.file != nil {
			l.file.Close()
		}
		l.fileMu.Unlock()
	})
}

// Emit appends an event, subject to the global rate limiter. Events
// dropped due to rate limiting are counted, never silently lost from
// stats.
func (l *Log) Emit(tick int64, cat Category, message string) {
	if !l.limiter.Allow() {
		atomic.AddUint64(&l.dropped, 1)
		return
	}
	ev := Event{Tick: tick, Category: cat, Message: message}

	l.mu.Lock()
	if len(l.buf) >= bufferSize {
		// Drop the oldest quarter to make room, keeping the buffer bounded.
		copy(l.buf, l.buf[bufferSize/4:])
		l.buf = l.buf[:bufferSize-bufferSize/4]
	}
	l.buf = append(l.buf, ev)
	l.total++
	l.mu.Unlock()

	if l.running.Load() {
		l.fileMu.Lock()
		l.pending = append(l.pending, ev)
		shouldFlush := len(l.pending) >= batchFlushSize
		l.fileMu.Unlock()
		if shouldFlush {
			l.flush()
		}
	}
}

// Since returns a copy of all buffered events at or after the given tick.
// The copy is taken under a read lock, so writers wait only while it is
// made.
func (l *Log) Since(tick int64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, 0, len(l.buf))
	for _, ev := range l.buf {
		if ev.Tick >= tick {
			out = append(out, ev)
		}
	}
	return out
}

// Clear truncates the log to empty (control channel's clear_events).
func (l *Log) Clear() {
	l.mu.Lock()
	l.buf = l.buf[:0]
	l.mu.Unlock()
}

// Stats returns counters useful for monitoring and DoS detection.
func (l *Log) Stats() (total int64, dropped uint64, bufferLen int) {
	l.mu.RLock()
	n := len(l.buf)
	t := l.total
	l.mu.RUnlock()
	return t, atomic.LoadUint64(&l.dropped), n
}

func (l *Log) writerLoop() {
	defer l.writerWg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.flush()
		case <-l.stopChan:
			l.flush()
			return
		}
	}
}

func (l *Log) flush() {
	l.fileMu.Lock()
	if len(l.pending) == 0 || l.file == nil {
		l.pending = l.pending[:0]
		l.fileMu.Unlock()
		return
	}
	batch := l.pending
	l.pending = nil
	l.fileMu.Unlock()

	enc := json.NewEncoder(l.file)
	for _, ev := range batch {
		_ = enc.Encode(ev)
	}
}
