package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sohamk/tagwatch/internal/config"
	"github.com/sohamk/tagwatch/internal/tagwatch/device"
	"github.com/sohamk/tagwatch/internal/tagwatch/device/fake"
	"github.com/sohamk/tagwatch/internal/tagwatch/device/rpi"
	"github.com/sohamk/tagwatch/internal/tagwatch/eventlog"
	"github.com/sohamk/tagwatch/internal/tagwatch/service"
	"github.com/sohamk/tagwatch/internal/tagwatch/state"
	"github.com/sohamk/tagwatch/internal/tagwatch/types"
)

func main() {
	logger := log.New(os.Stdout, "tagwatch ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		logger.Fatalf("create image dir %s: %v", cfg.ImageDir, err)
	}

	// Devices: real hardware in prod, fakes for hardware-free dev runs.
	// Any init failure here is fatal; the loops never start half-wired.
	var (
		reader  device.Reader
		display device.Display
		camera  device.Camera
		closers []func() error
	)
	if cfg.Env == "prod" {
		if err := rpi.Init(); err != nil {
			logger.Fatalf("hardware init: %v", err)
		}
		r, err := rpi.NewReader(cfg.SPIDev, cfg.ResetPin, cfg.IRQPin, cfg.PollInterval/2)
		if err != nil {
			logger.Fatalf("reader init: %v", err)
		}
		closers = append(closers, r.Close)
		d, err := rpi.NewDisplay(cfg.I2CBus, cfg.DisplayW, cfg.DisplayH)
		if err != nil {
			logger.Fatalf("display init: %v", err)
		}
		closers = append(closers, d.Close)
		c, err := rpi.NewCamera(cfg.CaptureWidth, cfg.CaptureHeight)
		if err != nil {
			logger.Fatalf("camera init: %v", err)
		}
		reader, display, camera = r, d, c
	} else {
		logger.Printf("dev mode: fake devices, reader sees permanent absence")
		reader = fake.NewReader()
		display = fake.NewDisplay(cfg.DisplayW, cfg.DisplayH)
		camera = fake.NewCamera()
	}

	st := state.New(state.Config{
		AuthorizedID: types.CardID(cfg.AuthorizedID),
		CaptureDelay: cfg.CaptureDelay,
		CodeDelay:    cfg.CodeDelay,
	})
	events := eventlog.New(cfg.EventLogCap)

	actions := service.NewActions(st, camera, display, device.FileSource{Path: cfg.LogPath},
		events, service.ActionsConfig{
			WarmupDelay:     cfg.WarmupDelay,
			CaptureCooldown: cfg.CaptureCooldown,
			CodeHold:        cfg.CodeHold,
			ImageDir:        cfg.ImageDir,
			QRDebugPath:     cfg.QRDebugPath,
		}, logger)
	monitor := service.NewMonitor(st, reader, display, events, service.MonitorConfig{
		PollInterval:     cfg.PollInterval,
		NotificationHold: cfg.NotificationHold,
	}, logger)
	scheduler := service.NewScheduler(st, actions, cfg.PollInterval, logger)
	pruner := service.NewCapturePruner(cfg.ImageDir, service.PrunerConfig{
		RetentionDays: cfg.CaptureRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.Start(ctx)
	scheduler.Start(ctx)
	pruner.Start(ctx)
	logger.Printf("watching for tags (authorized=%d, capture=+%s, code=+%s)",
		cfg.AuthorizedID, cfg.CaptureDelay, cfg.CodeDelay)

	<-ctx.Done()
	logger.Printf("shutting down")

	monitor.Stop()
	scheduler.Stop()
	pruner.Stop()

	for _, release := range closers {
		if err := release(); err != nil {
			logger.Printf("device release: %v", err)
		}
	}
}
