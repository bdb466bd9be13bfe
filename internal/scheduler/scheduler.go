package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
)

// Scheduler is an externally driven task runner: a process-wide table of
// {name, interval, last run} entries checked once per tick. Re-entrancy
// and duplicate-instance execution are handled by the idempotence of the
// task funcs, not by the scheduler.

type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	lastRun  time.Time
}

type Scheduler struct {
	log   *logger.Logger
	clock clock.Clock

	mu     sync.Mutex
	tasks  []*task
	cancel context.CancelFunc
}

func New(baseLog *logger.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{
		log:   baseLog.With("component", "Scheduler"),
		clock: clk,
	}
}

func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("task name and func are required")
	}
	if interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.name == name {
			return fmt.Errorf("task %q already registered", name)
		}
	}
	s.tasks = append(s.tasks, &task{name: name, interval: interval, fn: fn})
	return nil
}

// Tick runs every registered task whose interval has elapsed since its
// last run, sequentially and in registration order. A task that fails is
// logged and retried on the tick after its interval next elapses; its
// failure never blocks the remaining tasks.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.clock.Now()
	for _, t := range s.due(now) {
		s.runOne(ctx, t)
	}
}

func (s *Scheduler) due(now time.Time) []*task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*task
	for _, t := range s.tasks {
		if t.lastRun.IsZero() || now.Sub(t.lastRun) >= t.interval {
			t.lastRun = now
			due = append(due, t)
		}
	}
	return due
}

func (s *Scheduler) runOne(ctx context.Context, t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduled task panicked", "task", t.name, "panic", r)
		}
	}()
	start := s.clock.Now()
	if err := t.fn(ctx); err != nil {
		s.log.Warn("Scheduled task failed", "task", t.name, "error", err)
		return
	}
	s.log.Debug("Scheduled task completed", "task", t.name, "elapsed", s.clock.Now().Sub(start))
}

// Start drives Tick on a wall-clock ticker until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context, tickEvery time.Duration) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(tickEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
