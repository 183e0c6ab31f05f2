package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingReloader struct {
	calls atomic.Int32
	err   error
}

func (r *countingReloader) Reload(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	r := &countingReloader{err: errors.New("dataset missing")}
	s := New(r, 20*time.Millisecond, "")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated reloads despite failures, got %d", r.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerWithoutSchedule(t *testing.T) {
	r := &countingReloader{}
	s := New(r, 0, "")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
	if r.calls.Load() != 0 {
		t.Fatalf("expected no reloads, got %d", r.calls.Load())
	}
}

func TestSchedulerRejectsBadCron(t *testing.T) {
	s := New(&countingReloader{}, 0, "not a cron")
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("expected an error for an invalid cron expression")
	}
}
