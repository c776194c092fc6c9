package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/device/fake"
	"github.com/sohamk/tagwatch/internal/tagwatch/eventlog"
	"github.com/sohamk/tagwatch/internal/tagwatch/service"
	"github.com/sohamk/tagwatch/internal/tagwatch/state"
	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

func fastMonitorConfig() service.MonitorConfig {
	return service.MonitorConfig{
		PollInterval:     5 * time.Millisecond,
		NotificationHold: time.Millisecond,
	}
}

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func startMonitor(t *testing.T, reader *fake.Reader) (*state.State, *fake.Display, *eventlog.Log) {
	t.Helper()

	st := state.New(fastTimers())
	display := fake.NewDisplay(128, 64)
	events := eventlog.New(0)

	m := service.NewMonitor(st, reader, display, events, fastMonitorConfig(), silentLogger())
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		m.Stop()
	})
	return st, display, events
}

func TestMonitor_NotifiesOnArrival(t *testing.T) {
	reader := fake.NewReader(fake.Reading{ID: authorizedID, Present: true})
	_, display, events := startMonitor(t, reader)

	waitFor(t, time.Second, func() bool {
		calls := display.Calls()
		return len(calls) >= 2 && calls[0].Op == "text" && calls[1].Op == "clear"
	}, "notification never rendered")

	if calls := display.Calls(); calls[0].Text != "AUTHORIZED" {
		t.Errorf("notice text = %q, want AUTHORIZED", calls[0].Text)
	}

	evs := events.Events()
	if len(evs) == 0 || evs[0].Kind != types.EventArrival || !evs[0].Authorized {
		t.Errorf("expected an authorized arrival event, got %+v", evs)
	}
}

func TestMonitor_UnauthorizedNotice(t *testing.T) {
	reader := fake.NewReader(fake.Reading{ID: 42, Present: true})
	_, display, _ := startMonitor(t, reader)

	waitFor(t, time.Second, func() bool {
		calls := display.Calls()
		return len(calls) >= 1 && calls[0].Op == "text"
	}, "notification never rendered")

	if calls := display.Calls(); calls[0].Text != "UNAUTHORIZED" {
		t.Errorf("notice text = %q, want UNAUTHORIZED", calls[0].Text)
	}
}

func TestMonitor_RemovalOpensEpisode(t *testing.T) {
	reader := fake.NewReader(
		fake.Reading{ID: authorizedID, Present: true},
		fake.Reading{}, // absent from here on
	)
	st, _, events := startMonitor(t, reader)

	waitFor(t, time.Second, func() bool {
		return st.Snapshot().EpisodeOpen
	}, "removal never opened an episode")

	snap := st.Snapshot()
	if !snap.Authorized {
		t.Error("episode should record the removed tag as authorized")
	}

	waitFor(t, time.Second, func() bool {
		for _, ev := range events.Events() {
			if ev.Kind == types.EventRemoval && ev.CardID == authorizedID {
				return true
			}
		}
		return false
	}, "removal event never recorded")
}

func TestMonitor_ReaderFailureTreatedAsAbsent(t *testing.T) {
	reader := fake.NewReader(
		fake.Reading{ID: 42, Present: true},
		fake.Reading{Err: errors.New("rf front-end glitch")}, // repeats forever
	)
	st, _, _ := startMonitor(t, reader)

	// The failing read must count as a removal, and the loop must survive
	// the failure streak.
	waitFor(t, time.Second, func() bool {
		return st.Snapshot().EpisodeOpen
	}, "reader failure was not degraded to absence")
}
