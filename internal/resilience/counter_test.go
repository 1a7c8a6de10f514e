package resilience

import (
	"testing"
	"time"
)

func TestCounterFiresExactlyOnceAtThreshold(t *testing.T) {
	c := NewCounter(5, 5*time.Minute)
	now := time.Unix(1000, 0)
	c.SetClock(func() time.Time { return now })

	for i := 1; i <= 4; i++ {
		if c.Add() {
			t.Fatalf("threshold fired early at event %d", i)
		}
	}
	if !c.Add() {
		t.Fatal("threshold did not fire at event 5")
	}
	if c.Add() {
		t.Fatal("threshold fired again at event 6")
	}
	if c.Count() != 6 {
		t.Errorf("Count = %d, want 6", c.Count())
	}
}

func TestCounterWindowPruning(t *testing.T) {
	c := NewCounter(5, 5*time.Minute)
	now := time.Unix(1000, 0)
	c.SetClock(func() time.Time { return now })

	for i := 0; i < 6; i++ {
		c.Add()
	}

	now = now.Add(6 * time.Minute)
	if c.Count() != 0 {
		t.Errorf("Count after window = %d, want 0", c.Count())
	}

	// A fresh window can fire the threshold again.
	for i := 1; i <= 4; i++ {
		if c.Add() {
			t.Fatalf("threshold fired early at event %d of new window", i)
		}
	}
	if !c.Add() {
		t.Fatal("threshold did not fire in new window")
	}
}

func TestCounterReset(t *testing.T) {
	c := NewCounter(3, time.Minute)
	c.Add()
	c.Add()
	c.Reset()

	if c.Count() != 0 {
		t.Errorf("Count after Reset = %d", c.Count())
	}
	c.Add()
	c.Add()
	if !c.Add() {
		t.Error("threshold should fire at 3 events after reset")
	}
}
