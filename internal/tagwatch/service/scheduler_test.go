package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/sohamk/tagwatch/internal/tagwatch/device/fake"
	"github.com/sohamk/tagwatch/internal/tagwatch/eventlog"
	"github.com/sohamk/tagwatch/internal/tagwatch/service"
	"github.com/sohamk/tagwatch/internal/tagwatch/state"
)

// fixture wires monitor + scheduler + actions against fake devices with
// millisecond-scale tunings, the full daemon minus main.
type fixture struct {
	state   *state.State
	reader  *fake.Reader
	display *fake.Display
	camera  *fake.Camera
}

func startFixture(t *testing.T, reader *fake.Reader) *fixture {
	t.Helper()

	f := &fixture{
		state:   state.New(fastTimers()),
		reader:  reader,
		display: fake.NewDisplay(128, 64),
		camera:  fake.NewCamera(),
	}
	events := eventlog.New(0)
	source := &fake.DataSource{Data: "badge log\n"}

	// Cooldown outlasts the code delay, as in the real tuning: the episode
	// must still be open when the code timer matures at CodeDelay.
	actions := service.NewActions(f.state, f.camera, f.display, source, events, service.ActionsConfig{
		WarmupDelay:     5 * time.Millisecond,
		CaptureCooldown: 50 * time.Millisecond,
		CodeHold:        time.Millisecond,
		ImageDir:        t.TempDir(),
	}, silentLogger())

	monitor := service.NewMonitor(f.state, reader, f.display, events, fastMonitorConfig(), silentLogger())
	scheduler := service.NewScheduler(f.state, actions, 5*time.Millisecond, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	monitor.Start(ctx)
	scheduler.Start(ctx)
	t.Cleanup(func() {
		cancel()
		monitor.Stop()
		scheduler.Stop()
	})
	return f
}

func (f *fixture) bitmapCount() int {
	n := 0
	for _, c := range f.display.Calls() {
		if c.Op == "bitmap" {
			n++
		}
	}
	return n
}

func TestEndToEnd_UnauthorizedRemoval_CaptureOnly(t *testing.T) {
	reader := fake.NewReader(
		fake.Reading{ID: 42, Present: true},
		fake.Reading{ID: 42, Present: true},
		fake.Reading{}, // removed, stays absent
	)
	f := startFixture(t, reader)

	waitFor(t, 2*time.Second, func() bool {
		return len(f.camera.Captures()) == 1
	}, "capture never fired")

	// Let the code-display window pass too, then make sure nothing else fired.
	time.Sleep(150 * time.Millisecond)
	if n := len(f.camera.Captures()); n != 1 {
		t.Errorf("capture fired %d times, want 1", n)
	}
	if n := f.bitmapCount(); n != 0 {
		t.Errorf("code display fired %d times for an unauthorized removal", n)
	}
	if f.state.Snapshot().EpisodeOpen {
		t.Error("episode should have ended after the capture completed")
	}
}

func TestEndToEnd_AuthorizedRemoval_CaptureAndCode(t *testing.T) {
	reader := fake.NewReader(
		fake.Reading{ID: authorizedID, Present: true},
		fake.Reading{ID: authorizedID, Present: true},
		fake.Reading{}, // removed, stays absent
	)
	f := startFixture(t, reader)

	waitFor(t, 2*time.Second, func() bool {
		return len(f.camera.Captures()) == 1 && f.bitmapCount() == 1
	}, "capture and code display should both fire")

	time.Sleep(150 * time.Millisecond)
	if n := len(f.camera.Captures()); n != 1 {
		t.Errorf("capture fired %d times, want 1", n)
	}
	if n := f.bitmapCount(); n != 1 {
		t.Errorf("code display fired %d times, want 1", n)
	}
	if f.state.Snapshot().EpisodeOpen {
		t.Error("episode should have ended after the capture completed")
	}
}

func TestEndToEnd_ReArrivalCancelsPendingCapture(t *testing.T) {
	// Removal, then the same tag back in range before the capture delay
	// elapses; the tag then stays put.
	reader := fake.NewReader(
		fake.Reading{ID: 42, Present: true},
		fake.Reading{},
		fake.Reading{ID: 42, Present: true},
	)
	f := startFixture(t, reader)

	waitFor(t, time.Second, func() bool {
		snap := f.state.Snapshot()
		return snap.Present && !snap.EpisodeOpen
	}, "re-arrival should clear the pending episode")

	// Wait well past the capture delay: the stale episode must not fire.
	time.Sleep(200 * time.Millisecond)
	if n := len(f.camera.Captures()); n != 0 {
		t.Errorf("stale capture fired %d times after re-arrival", n)
	}
}
