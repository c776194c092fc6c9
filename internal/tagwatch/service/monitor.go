package service

import (
	"context"
	"log"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/device"
	"github.com/sohamk/tagwatch/internal/tagwatch/eventlog"
	"github.com/sohamk/tagwatch/internal/tagwatch/state"
	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// Monitor polls the reader on a fixed cadence and feeds every reading into
// the shared state. On an arrival it renders the authorized/unauthorized
// notice synchronously on its own loop; the stalled ticks during the hold
// are accepted (no tag transition is faster than the notice window).
//
// It runs as a background goroutine and is safe to stop via its context or
// the Stop method.
type Monitor struct {
	state   *state.State
	reader  device.Reader
	display device.Display
	events  *eventlog.Log
	logger  *log.Logger

	interval time.Duration
	hold     time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	// loop-goroutine only
	last       types.CardID
	readerDown bool
}

// MonitorConfig holds the parameters for NewMonitor.
type MonitorConfig struct {
	// PollInterval is the reader cadence. Defaults to 100ms.
	PollInterval time.Duration

	// NotificationHold is how long an arrival notice stays on screen.
	// Defaults to 2s.
	NotificationHold time.Duration
}

func NewMonitor(st *state.State, reader device.Reader, display device.Display,
	events *eventlog.Log, cfg MonitorConfig, logger *log.Logger) *Monitor {

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.NotificationHold <= 0 {
		cfg.NotificationHold = 2 * time.Second
	}

	return &Monitor{
		state:    st,
		reader:   reader,
		display:  display,
		events:   events,
		logger:   logger,
		interval: cfg.PollInterval,
		hold:     cfg.NotificationHold,
		done:     make(chan struct{}),
	}
}

// Start begins the polling loop. The loop exits when ctx is cancelled or
// Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
	m.logger.Printf("presence monitor started (interval=%s)", m.interval)
}

// Stop signals the monitor to exit and waits for it to finish.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	<-m.done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	id, present, err := m.reader.Poll()
	if err != nil {
		// A failed read counts as "no tag" for this tick. Log once per
		// failure streak, not once per tick.
		if !m.readerDown {
			m.readerDown = true
			m.logger.Printf("reader read failed, treating as absent: %v", err)
		}
		present = false
	} else {
		m.readerDown = false
	}

	if present {
		m.last = id
	}

	switch m.state.OnScan(id, present, time.Now()) {
	case types.OutcomeAuthorized:
		m.events.Record(types.Event{Kind: types.EventArrival, CardID: id, Authorized: true})
		m.logger.Printf("tag %d arrived: authorized", id)
		m.notify(ctx, "AUTHORIZED")
	case types.OutcomeUnauthorized:
		m.events.Record(types.Event{Kind: types.EventArrival, CardID: id})
		m.logger.Printf("tag %d arrived: unauthorized", id)
		m.notify(ctx, "UNAUTHORIZED")
	case types.OutcomeRemoved:
		snap := m.state.Snapshot()
		m.events.Record(types.Event{Kind: types.EventRemoval, CardID: m.last, Authorized: snap.Authorized})
		m.logger.Printf("tag %d removed (authorized=%v)", m.last, snap.Authorized)
	}
}

// notify renders msg, holds, then clears. Blocking here is deliberate; see
// the type comment. Display failures are logged and followed by a
// best-effort clear.
func (m *Monitor) notify(ctx context.Context, msg string) {
	if err := m.display.ShowText(msg); err != nil {
		m.logger.Printf("notification render failed: %v", err)
		_ = m.display.Clear()
		return
	}
	sleepCtx(ctx, m.hold)
	if err := m.display.Clear(); err != nil {
		m.logger.Printf("notification clear failed: %v", err)
	}
}
