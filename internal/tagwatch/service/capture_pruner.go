package service

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CapturePruner periodically deletes capture files older than a
// configurable retention period, so a forgotten daemon can't fill the SD
// card. It runs as a background goroutine and is safe to stop via its
// context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type CapturePruner struct {
	dir       string
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewCapturePruner.
type PrunerConfig struct {
	// RetentionDays is how many days of captures to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewCapturePruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewCapturePruner(dir string, cfg PrunerConfig, logger *log.Logger) *CapturePruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &CapturePruner{
		dir:       dir,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop.  It runs an immediate prune
// on startup, then repeats on the configured interval.  The loop exits
// when ctx is cancelled or Stop is called.
func (p *CapturePruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("capture pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("capture pruner started (retention=%dd, interval=%dh)",
		int(p.retention.Hours()/24), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *CapturePruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *CapturePruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune()
		}
	}
}

// Prune deletes capture files older than the retention cutoff and reports
// how many were removed. Exported so tests (and a future admin surface)
// can run one pass directly.
func (p *CapturePruner) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "image_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, e.Name())); err != nil {
			p.logger.Printf("capture prune: remove %s: %v", e.Name(), err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (p *CapturePruner) prune() {
	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.Prune(cutoff)
	if err != nil {
		p.logger.Printf("capture prune error: %v", err)
		return
	}
	if deleted > 0 {
		p.logger.Printf("capture prune: deleted %d files older than %s",
			deleted, cutoff.Format(time.RFC3339))
	}
}
