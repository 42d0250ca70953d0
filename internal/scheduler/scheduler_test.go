package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAddJobValidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	if err := s.AddJob("0 9 * * *", func() {}); err != nil {
		t.Errorf("expected valid 5-field expression, got %v", err)
	}
	if err := s.AddJob("*/5 * * * *", func() {}); err != nil {
		t.Errorf("expected valid step expression, got %v", err)
	}
}

func TestAddJobInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	invalid := []string{"", "not a cron", "* * * *", "0 9 * * * *"}
	for _, expr := range invalid {
		if err := s.AddJob(expr, func() {}); err == nil {
			t.Errorf("expected error for expression %q", expr)
		}
	}
}

func TestJobRuns(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var runs int32
	// Every-minute is the tightest standard cron allows; poke the job on a
	// short-lived scheduler only when the wall clock is about to tick over.
	if err := s.AddJob("* * * * *", func() { atomic.AddInt32(&runs, 1) }); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	if time.Until(time.Now().Truncate(time.Minute).Add(time.Minute)) > 2*time.Second {
		t.Skip("next minute boundary too far away for a quick test")
	}
	time.Sleep(3 * time.Second)
	if atomic.LoadInt32(&runs) == 0 {
		t.Error("expected job to run at the minute boundary")
	}
}
