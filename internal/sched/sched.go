// Package sched runs periodic background tasks on a shared scheduler with
// explicit cancellation, replacing ad-hoc sleep-loop goroutines so shutdown
// is deterministic and tasks are testable in isolation.
package sched

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler owns a set of periodic tasks. Stop cancels all of them and waits
// for their goroutines to exit.
type Scheduler struct {
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Task is a handle for one scheduled periodic job.
type Task struct {
	name   string
	cancel context.CancelFunc
}

// Cancel stops this task only; the scheduler keeps running others.
func (t *Task) Cancel() {
	t.cancel()
}

// Every schedules fn to run on the given interval until the task or the
// scheduler is cancelled. A missed or late tick is not an error; the ticker
// simply fires again on its next interval.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) *Task {
	ctx, cancel := context.WithCancel(s.ctx)
	task := &Task{name: name, cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Debug("Scheduled task started",
			zap.String("task", name), zap.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Scheduled task stopped", zap.String("task", name))
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return task
}

// Stop cancels every task and blocks until all task goroutines have exited.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
