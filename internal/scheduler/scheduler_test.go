package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name     string
	interval time.Duration
	err      error
	runs     atomic.Int32
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Interval() time.Duration { return t.interval }

func (t *testJob) Run(context.Context) error {
	t.runs.Add(1)
	return t.err
}

func newTestService(t *testing.T, registry *Registry, locks LockFactory) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "scheduler-test"}),
		Registry: registry,
		Locks:    locks,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunTickRunsJobAndReleasesLock(t *testing.T) {
	job := &testJob{name: "noop", interval: time.Minute}
	lock := &fakeLock{}
	service := newTestService(t, NewRegistry(job), func(string, time.Duration) (Lock, error) { return lock, nil })

	service.runTick(context.Background(), job, lock)

	if job.runs.Load() != 1 {
		t.Fatalf("expected job to run once, ran %d", job.runs.Load())
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestRunTickSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "noop", interval: time.Minute}
	lock := &fakeLock{held: true}
	service := newTestService(t, NewRegistry(job), func(string, time.Duration) (Lock, error) { return lock, nil })

	service.runTick(context.Background(), job, lock)

	if job.runs.Load() != 0 {
		t.Fatalf("held lock must skip the tick, ran %d times", job.runs.Load())
	}
	if lock.releases != 0 {
		t.Fatalf("a skipped tick must not release the foreign lock, got %d", lock.releases)
	}
}

func TestRunTickReleasesLockOnFailure(t *testing.T) {
	job := &testJob{name: "failing", interval: time.Minute, err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, NewRegistry(job), func(string, time.Duration) (Lock, error) { return lock, nil })

	service.runTick(context.Background(), job, lock)

	if job.runs.Load() != 1 {
		t.Fatalf("expected job to run once, ran %d", job.runs.Load())
	}
	if lock.held {
		t.Fatal("lock must be released after a failed run")
	}
}

func TestRunStartsEveryJobOnce(t *testing.T) {
	fast := &testJob{name: "fast", interval: time.Hour}
	slow := &testJob{name: "slow", interval: time.Hour}
	service := newTestService(t, NewRegistry(fast, slow), func(string, time.Duration) (Lock, error) {
		return &fakeLock{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	// The startup tick fires before the first interval elapses.
	deadline := time.After(2 * time.Second)
	for fast.runs.Load() == 0 || slow.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("jobs did not start: fast=%d slow=%d", fast.runs.Load(), slow.runs.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
