// Package schedule runs periodic refresh tasks on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/rcliao/desk-memory/internal/clock"
)

// Task is one periodic job. Errors are logged and never stop the schedule.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler fires every registered task at each tick of its cron expression.
// Ticks are computed from the injected clock; waiting uses real timers.
type Scheduler struct {
	expr  string
	clock clock.Clock
	log   *slog.Logger

	mu    sync.Mutex
	tasks []Task
	wg    sync.WaitGroup
}

// New validates expr and returns a Scheduler with no tasks.
func New(expr string, c clock.Clock, log *slog.Logger) (*Scheduler, error) {
	g := gronx.New()
	if !g.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q", expr)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{expr: expr, clock: clock.OrReal(c), log: log}, nil
}

// Add registers a task.
func (s *Scheduler) Add(name string, run func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, Task{Name: name, Run: run})
}

// Next returns the first tick strictly after t.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	next, err := gronx.NextTickAfter(s.expr, t, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("next tick for %q: %w", s.expr, err)
	}
	return next, nil
}

// RunOnce runs every task in registration order.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	for _, t := range tasks {
		if err := t.Run(ctx); err != nil {
			s.log.Debug("scheduled task failed", "task", t.Name, "error", err)
		}
	}
}

// Start runs the tick loop in the background until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Wait blocks until a started loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		now := s.clock.Now()
		next, err := s.Next(now)
		if err != nil {
			s.log.Warn("scheduler stopped", "error", err)
			return
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}
