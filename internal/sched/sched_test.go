package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEveryRunsPeriodically(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var runs atomic.Int64
	s.Every("tick", 5*time.Millisecond, func() {
		runs.Add(1)
	})

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 3 {
		t.Fatalf("task ran %d times, want at least 3", runs.Load())
	}
}

func TestTaskCancelStopsOnlyThatTask(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var a, b atomic.Int64
	taskA := s.Every("a", 5*time.Millisecond, func() { a.Add(1) })
	s.Every("b", 5*time.Millisecond, func() { b.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for a.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	taskA.Cancel()

	// Wait until the cancelled task's counter holds still.
	frozen := a.Load()
	stableSince := time.Now()
	deadline = time.Now().Add(2 * time.Second)
	for time.Since(stableSince) < 50*time.Millisecond {
		if time.Now().After(deadline) {
			t.Fatal("cancelled task never settled")
		}
		if v := a.Load(); v != frozen {
			frozen = v
			stableSince = time.Now()
		}
		time.Sleep(5 * time.Millisecond)
	}

	before := b.Load()
	deadline = time.Now().Add(2 * time.Second)
	for b.Load() <= before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if b.Load() <= before {
		t.Error("other task stopped with the cancelled one")
	}
}

func TestStopWaitsForTasks(t *testing.T) {
	s := New(zap.NewNop())

	var runs atomic.Int64
	s.Every("tick", time.Millisecond, func() { runs.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	s.Stop()
	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != after {
		t.Error("task ran after Stop returned")
	}
}
