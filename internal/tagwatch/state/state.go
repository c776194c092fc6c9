// Package state holds the daemon's single piece of shared mutable state:
// which tag is currently present, and the bookkeeping for the removal
// episode whose timers have not yet run out.
//
// Every operation is an atomic read-modify-write under one mutex so the
// presence poller and the timeout poller never observe a torn transition.
// Nothing in this package blocks; callers do their slow work (rendering,
// capture, sleeps) after the lock is released.
package state

import (
	"sync"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// episode is a removal in flight: born when a tracked tag leaves the field,
// cleared when the capture action finishes.
type episode struct {
	removedAt  time.Time
	authorized bool

	captureStarted bool
	codeStarted    bool
}

// Config fixes the identity and timing the state machine decides with.
type Config struct {
	// AuthorizedID is the one tag id treated as granting access.
	AuthorizedID types.CardID

	// CaptureDelay is how long after removal the capture becomes due.
	CaptureDelay time.Duration

	// CodeDelay is how long after an authorized removal the code display
	// becomes due. Must exceed CaptureDelay.
	CodeDelay time.Duration
}

// State tracks presence and the current episode. The zero value is not
// usable; construct with New.
type State struct {
	cfg Config

	mu      sync.Mutex
	current *types.CardID
	ep      *episode
}

func New(cfg Config) *State {
	return &State{cfg: cfg}
}

// OnScan feeds one poll tick's reading into the state machine and reports
// what happened. present=false means no tag was in range (including reads
// the caller chose to degrade to absence).
//
// OnScan is the only writer of the tracked presence. A new or different tag
// adopts that id and discards any open episode; absence while a tag was
// tracked opens a fresh episode stamped with now.
func (s *State) OnScan(id types.CardID, present bool, now time.Time) types.ScanOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if present {
		if s.current != nil && *s.current == id {
			return types.OutcomeNone
		}
		s.current = &id
		s.ep = nil
		if id == s.cfg.AuthorizedID {
			return types.OutcomeAuthorized
		}
		return types.OutcomeUnauthorized
	}

	if s.current == nil {
		return types.OutcomeNone
	}

	s.ep = &episode{
		removedAt:  now,
		authorized: *s.current == s.cfg.AuthorizedID,
	}
	s.current = nil
	return types.OutcomeRemoved
}

// TryStartCapture reports whether the capture action should start now.
// It returns true at most once per episode: the first call made at or past
// removedAt+CaptureDelay wins and flips the flag under the same lock hold.
func (s *State) TryStartCapture(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ep == nil || s.ep.captureStarted {
		return false
	}
	if now.Sub(s.ep.removedAt) < s.cfg.CaptureDelay {
		return false
	}
	s.ep.captureStarted = true
	return true
}

// TryStartCodeDisplay is the capture counterpart for the code display;
// it additionally requires the removed tag to have been the authorized one.
func (s *State) TryStartCodeDisplay(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ep == nil || s.ep.codeStarted || !s.ep.authorized {
		return false
	}
	if now.Sub(s.ep.removedAt) < s.cfg.CodeDelay {
		return false
	}
	s.ep.codeStarted = true
	return true
}

// EndEpisode closes the current episode, if any. Called by the capture
// action when it finishes (success or failure); after this a new
// presence/removal cycle may begin.
func (s *State) EndEpisode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ep = nil
}

// Snapshot is a coherent copy of the state for logging and tests.
type Snapshot struct {
	Present        bool
	Current        types.CardID
	EpisodeOpen    bool
	RemovedAt      time.Time
	Authorized     bool
	CaptureStarted bool
	CodeStarted    bool
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	if s.current != nil {
		snap.Present = true
		snap.Current = *s.current
	}
	if s.ep != nil {
		snap.EpisodeOpen = true
		snap.RemovedAt = s.ep.removedAt
		snap.Authorized = s.ep.authorized
		snap.CaptureStarted = s.ep.captureStarted
		snap.CodeStarted = s.ep.codeStarted
	}
	return snap
}
