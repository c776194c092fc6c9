// Package eventlog keeps an in-memory, append-only record of scans and
// action outcomes. It exists for inspection (tests, debugging a live
// daemon); nothing is persisted across restarts.
package eventlog

import (
	"sync"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

const defaultCap = 1024

// Log is a capped append-only event buffer. When the cap is reached the
// oldest entries are dropped.
type Log struct {
	mu     sync.Mutex
	events []types.Event
	max    int
}

// New creates a log holding at most max events; max <= 0 uses a default.
func New(max int) *Log {
	if max <= 0 {
		max = defaultCap
	}
	return &Log{max: max}
}

func (l *Log) Record(ev types.Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if len(l.events) > l.max {
		// Drop from the front; copy so the backing array doesn't grow
		// without bound.
		trimmed := make([]types.Event, l.max)
		copy(trimmed, l.events[len(l.events)-l.max:])
		l.events = trimmed
	}
}

// Events returns a copy of everything currently retained, oldest first.
func (l *Log) Events() []types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Event, len(l.events))
	copy(out, l.events)
	return out
}
