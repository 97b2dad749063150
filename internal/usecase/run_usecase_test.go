package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"jobradar/internal/ingest"
)

type blockingRunner struct {
	release chan struct{}
	summary ingest.Summary
	err     error

	mu    sync.Mutex
	calls int
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{}), summary: ingest.Summary{RunID: "r-1"}}
}

func (r *blockingRunner) Run(ctx context.Context) (ingest.Summary, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	<-r.release
	return r.summary, r.err
}

type fakeLock struct {
	mu         sync.Mutex
	denyNext   bool
	acquired   []string
	released   []string
	invalidate int
}

func (l *fakeLock) AcquireRunLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyNext {
		return false, nil
	}
	l.acquired = append(l.acquired, owner)
	return true, nil
}

func (l *fakeLock) ReleaseRunLock(ctx context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, owner)
	return nil
}

func (l *fakeLock) InvalidateAfterRun(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidate++
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTriggerRun_SecondTriggerDeniedWhileRunning(t *testing.T) {
	runner := newBlockingRunner()
	lock := &fakeLock{}
	svc := NewRunService(runner, lock, time.Minute, log.New(io.Discard, "", 0))

	if err := svc.TriggerRun(context.Background()); err != nil {
		t.Fatalf("first TriggerRun: %v", err)
	}
	waitFor(t, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return runner.calls == 1
	})

	if err := svc.TriggerRun(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("second TriggerRun err = %v, want ErrRunInProgress", err)
	}

	close(runner.release)
	waitFor(t, func() bool { return !svc.Status().Running })

	st := svc.Status()
	if st.LastSummary == nil || st.LastSummary.RunID != "r-1" {
		t.Errorf("LastSummary = %+v, want RunID r-1", st.LastSummary)
	}

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if len(lock.acquired) != 1 || len(lock.released) != 1 {
		t.Errorf("lock acquired=%d released=%d, want 1/1", len(lock.acquired), len(lock.released))
	}
	if lock.acquired[0] != lock.released[0] {
		t.Error("release owner differs from acquire owner")
	}
	if lock.invalidate != 1 {
		t.Errorf("invalidate calls = %d, want 1", lock.invalidate)
	}
}

func TestTriggerRun_LockDenied(t *testing.T) {
	runner := newBlockingRunner()
	lock := &fakeLock{denyNext: true}
	svc := NewRunService(runner, lock, time.Minute, log.New(io.Discard, "", 0))

	if err := svc.TriggerRun(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("TriggerRun err = %v, want ErrRunInProgress", err)
	}
	if svc.Status().Running {
		t.Error("service left marked running after denied lock")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls != 0 {
		t.Errorf("runner calls = %d, want 0", runner.calls)
	}
}

func TestTriggerRun_RunErrorStillReleasesLock(t *testing.T) {
	runner := newBlockingRunner()
	runner.err = errors.New("boom")
	lock := &fakeLock{}
	svc := NewRunService(runner, lock, time.Minute, log.New(io.Discard, "", 0))

	if err := svc.TriggerRun(context.Background()); err != nil {
		t.Fatalf("TriggerRun: %v", err)
	}
	close(runner.release)
	waitFor(t, func() bool { return !svc.Status().Running })

	lock.mu.Lock()
	defer lock.mu.Unlock()
	if len(lock.released) != 1 {
		t.Errorf("released = %d, want 1", len(lock.released))
	}
}
