package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler polls the shared state on the same cadence as the monitor and
// spawns the capture and code-display tasks when their delays elapse. The
// spawn is fire-and-forget so a slow action never costs the scheduler a
// tick; Stop joins whatever is still in flight.
type Scheduler struct {
	state   episodeTimers
	actions *Actions
	logger  *log.Logger

	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// episodeTimers is the slice of state the scheduler needs: the two
// check-and-set timer gates.
type episodeTimers interface {
	TryStartCapture(now time.Time) bool
	TryStartCodeDisplay(now time.Time) bool
}

func NewScheduler(st episodeTimers, actions *Actions, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Scheduler{
		state:    st,
		actions:  actions,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the timeout loop. The loop exits when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Printf("timeout scheduler started (interval=%s)", s.interval)
}

// Stop signals the scheduler to exit, waits for the loop, then waits for
// any in-flight action tasks. ctx cancellation shortens the actions'
// sleeps, so this returns promptly at shutdown.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now()

	if s.state.TryStartCapture(now) {
		s.logger.Printf("capture delay elapsed, starting capture task")
		s.spawn(ctx, s.actions.Capture)
	}

	if s.state.TryStartCodeDisplay(now) {
		s.logger.Printf("code delay elapsed, starting code display task")
		s.spawn(ctx, s.actions.DisplayCode)
	}
}

func (s *Scheduler) spawn(ctx context.Context, task func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		task(ctx)
	}()
}
