package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sohamk/tagwatch/internal/qr"
	"github.com/sohamk/tagwatch/internal/tagwatch/device"
	"github.com/sohamk/tagwatch/internal/tagwatch/eventlog"
	"github.com/sohamk/tagwatch/internal/tagwatch/state"
	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

// Actions are the two long-running side effects fired by the scheduler.
// Both swallow their own failures: a broken capture or render degrades to a
// log line, never to a crashed loop.
type Actions struct {
	state   *state.State
	camera  device.Camera
	display device.Display
	source  device.DataSource
	events  *eventlog.Log
	logger  *log.Logger
	cfg     ActionsConfig
}

// ActionsConfig holds the timing and paths for the two actions.
type ActionsConfig struct {
	// WarmupDelay lets the camera's exposure settle before the capture.
	// Defaults to 2s.
	WarmupDelay time.Duration

	// CaptureCooldown is held after a capture before the episode ends, so
	// residual sensor bounce right after a removal can't open another one.
	// Defaults to 10s.
	CaptureCooldown time.Duration

	// CodeHold is how long the rendered code stays on screen. Defaults to 5s.
	CodeHold time.Duration

	// ImageDir receives capture files. Must exist and be writable.
	ImageDir string

	// QRDebugPath, when set, also saves each rendered code as a PNG.
	QRDebugPath string
}

func NewActions(st *state.State, camera device.Camera, display device.Display,
	source device.DataSource, events *eventlog.Log, cfg ActionsConfig, logger *log.Logger) *Actions {

	if cfg.WarmupDelay <= 0 {
		cfg.WarmupDelay = 2 * time.Second
	}
	if cfg.CaptureCooldown <= 0 {
		cfg.CaptureCooldown = 10 * time.Second
	}
	if cfg.CodeHold <= 0 {
		cfg.CodeHold = 5 * time.Second
	}

	return &Actions{
		state:   st,
		camera:  camera,
		display: display,
		source:  source,
		events:  events,
		logger:  logger,
		cfg:     cfg,
	}
}

// Capture takes one still frame into ImageDir, holds the cooldown, and then
// ends the episode. Ending the episode is unconditional — a failed capture
// must not leave the episode stuck open.
func (a *Actions) Capture(ctx context.Context) {
	defer a.state.EndEpisode()

	a.events.Record(types.Event{Kind: types.EventCaptureStart})
	start := time.Now()

	path, err := a.captureOnce(ctx)
	if err != nil {
		a.logger.Printf("capture failed: %v", err)
		a.events.Record(types.Event{Kind: types.EventCaptureDone, Detail: err.Error()})
	} else {
		a.logger.Printf("capture saved %s dur=%s", path, time.Since(start))
		a.events.Record(types.Event{Kind: types.EventCaptureDone, Detail: path})
	}

	sleepCtx(ctx, a.cfg.CaptureCooldown)
}

func (a *Actions) captureOnce(ctx context.Context) (string, error) {
	if err := a.camera.Start(); err != nil {
		return "", fmt.Errorf("camera start: %w", err)
	}
	defer func() {
		if err := a.camera.Stop(); err != nil {
			a.logger.Printf("camera stop: %v", err)
		}
	}()

	sleepCtx(ctx, a.cfg.WarmupDelay)

	path := filepath.Join(a.cfg.ImageDir, captureFilename(time.Now().UTC()))
	if err := a.camera.CaptureTo(path); err != nil {
		return "", fmt.Errorf("capture to %s: %w", path, err)
	}
	return path, nil
}

// captureFilename embeds the capture time plus a short random suffix so two
// captures within the same second never collide.
func captureFilename(t time.Time) string {
	return fmt.Sprintf("image_%s_%s.jpg", t.Format("20060102-150405"), uuid.NewString()[:8])
}

// DisplayCode reads the data source, encodes it as a QR symbol, and shows
// it centered at native resolution for the hold time. Any failure clears
// the display and stops there.
func (a *Actions) DisplayCode(ctx context.Context) {
	a.events.Record(types.Event{Kind: types.EventCodeStart})

	if err := a.displayCodeOnce(ctx); err != nil {
		a.logger.Printf("code display failed: %v", err)
		_ = a.display.Clear()
		a.events.Record(types.Event{Kind: types.EventCodeDone, Detail: err.Error()})
		return
	}
	a.events.Record(types.Event{Kind: types.EventCodeDone})
}

func (a *Actions) displayCodeOnce(ctx context.Context) error {
	text, err := a.source.ReadAll()
	if err != nil {
		return fmt.Errorf("read data source: %w", err)
	}

	code, err := qr.Encode(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	if a.cfg.QRDebugPath != "" {
		if err := code.SavePNG(a.cfg.QRDebugPath, 1); err != nil {
			// Debug artifact only; the on-screen render still proceeds.
			a.logger.Printf("qr debug png: %v", err)
		}
	}

	b := a.display.Bounds()
	at := image.Pt((b.Dx()-code.Size())/2, (b.Dy()-code.Size())/2)
	if err := a.display.ShowBitmap(code.ImageInverted(1), at); err != nil {
		return fmt.Errorf("show code: %w", err)
	}

	sleepCtx(ctx, a.cfg.CodeHold)

	if err := a.display.Clear(); err != nil {
		return fmt.Errorf("clear after code: %w", err)
	}
	return nil
}

// sleepCtx sleeps for d, returning early if ctx is cancelled. Actions are
// never cancelled mid-episode in normal operation; this only shortens their
// holds during process shutdown.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
