package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
)

func newTestScheduler() (*Scheduler, *clock.Fixed) {
	clk := &clock.Fixed{T: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	return New(logger.NewNop(), clk), clk
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s, _ := newTestScheduler()
	noop := func(ctx context.Context) error { return nil }

	if err := s.Register("", time.Hour, noop); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := s.Register("task", 0, noop); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := s.Register("task", time.Hour, nil); err == nil {
		t.Fatalf("expected error for nil func")
	}
	if err := s.Register("task", time.Hour, noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register("task", time.Hour, noop); err == nil {
		t.Fatalf("expected error for duplicate name")
	}
}

func TestScheduler_TickRunsTasksOnlyWhenDue(t *testing.T) {
	s, clk := newTestScheduler()
	runs := 0
	if err := s.Register("hourly", time.Hour, func(ctx context.Context) error {
		runs++
		return nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// A never-run task fires on the first tick.
	s.Tick(context.Background())
	if runs != 1 {
		t.Fatalf("expected first tick to run the task, runs=%d", runs)
	}

	clk.Advance(30 * time.Minute)
	s.Tick(context.Background())
	if runs != 1 {
		t.Fatalf("task ran before its interval elapsed, runs=%d", runs)
	}

	clk.Advance(31 * time.Minute)
	s.Tick(context.Background())
	if runs != 2 {
		t.Fatalf("expected a second run after the interval, runs=%d", runs)
	}
}

func TestScheduler_FailingTaskDoesNotBlockOthers(t *testing.T) {
	s, _ := newTestScheduler()
	var order []string
	if err := s.Register("broken", time.Hour, func(ctx context.Context) error {
		order = append(order, "broken")
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("register broken: %v", err)
	}
	if err := s.Register("healthy", time.Hour, func(ctx context.Context) error {
		order = append(order, "healthy")
		return nil
	}); err != nil {
		t.Fatalf("register healthy: %v", err)
	}

	s.Tick(context.Background())
	if len(order) != 2 || order[0] != "broken" || order[1] != "healthy" {
		t.Fatalf("expected both tasks in registration order, got %v", order)
	}
}

func TestScheduler_PanickingTaskIsContained(t *testing.T) {
	s, _ := newTestScheduler()
	ran := false
	if err := s.Register("panicky", time.Hour, func(ctx context.Context) error {
		panic("unexpected")
	}); err != nil {
		t.Fatalf("register panicky: %v", err)
	}
	if err := s.Register("after", time.Hour, func(ctx context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("register after: %v", err)
	}

	s.Tick(context.Background())
	if !ran {
		t.Fatalf("task after the panicking one did not run")
	}
}

func TestScheduler_FailedTaskWaitsForNextInterval(t *testing.T) {
	s, clk := newTestScheduler()
	attempts := 0
	if err := s.Register("flaky", time.Hour, func(ctx context.Context) error {
		attempts++
		return errors.New("still broken")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Tick(context.Background())
	s.Tick(context.Background())
	if attempts != 1 {
		t.Fatalf("failure must not trigger an immediate retry, attempts=%d", attempts)
	}
	clk.Advance(time.Hour)
	s.Tick(context.Background())
	if attempts != 2 {
		t.Fatalf("expected retry after interval, attempts=%d", attempts)
	}
}
