package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
)

func init() {
	logger.Init("error", "text")
}

// fakeJob counts runs and can block until released
type fakeJob struct {
	name     string
	interval time.Duration
	runs     atomic.Int32
	err      error
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeJob) Name() string            { return f.name }
func (f *fakeJob) Interval() time.Duration { return f.interval }

func (f *fakeJob) RunOnce(ctx context.Context) error {
	f.runs.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func testConfig() Config {
	return Config{RateLimit: 100, RetryDelay: 10 * time.Millisecond}
}

func TestMonitor_Trigger(t *testing.T) {
	job := &fakeJob{name: "sasmex", interval: time.Hour}
	m := New(testConfig(), job)

	if err := m.Trigger(context.Background(), "sasmex"); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}
	if job.runs.Load() != 1 {
		t.Errorf("Expected 1 run, got %d", job.runs.Load())
	}

	status := m.Status()
	if len(status) != 1 || status[0].Runs != 1 || status[0].LastRun.IsZero() {
		t.Errorf("Unexpected status %+v", status)
	}
	if status[0].InFlight {
		t.Error("Expected job not to be in flight after Trigger returns")
	}
}

func TestMonitor_TriggerUnknownJob(t *testing.T) {
	m := New(testConfig(), &fakeJob{name: "sasmex", interval: time.Hour})

	err := m.Trigger(context.Background(), "nope")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := m.TriggerAsync("nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from TriggerAsync, got %v", err)
	}
}

func TestMonitor_OverlappingTriggerRejected(t *testing.T) {
	job := &fakeJob{
		name:     "usgs",
		interval: time.Hour,
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	m := New(testConfig(), job)

	if err := m.TriggerAsync("usgs"); err != nil {
		t.Fatalf("TriggerAsync failed: %v", err)
	}
	<-job.started

	if err := m.Trigger(context.Background(), "usgs"); !errors.Is(err, apperrors.ErrPollInProgress) {
		t.Errorf("Expected ErrPollInProgress, got %v", err)
	}
	if err := m.TriggerAsync("usgs"); !errors.Is(err, apperrors.ErrPollInProgress) {
		t.Errorf("Expected ErrPollInProgress from TriggerAsync, got %v", err)
	}

	close(job.release)
	m.Wait()

	if job.runs.Load() != 1 {
		t.Errorf("Expected exactly 1 run, got %d", job.runs.Load())
	}
	if err := m.Trigger(context.Background(), "usgs"); err != nil {
		t.Errorf("Expected trigger after completion to succeed, got %v", err)
	}
}

func TestMonitor_JobsAreIndependent(t *testing.T) {
	slow := &fakeJob{name: "sasmex", interval: time.Hour, started: make(chan struct{}, 1), release: make(chan struct{})}
	fast := &fakeJob{name: "usgs", interval: time.Hour}
	m := New(testConfig(), slow, fast)

	if err := m.TriggerAsync("sasmex"); err != nil {
		t.Fatalf("TriggerAsync failed: %v", err)
	}
	<-slow.started

	if err := m.Trigger(context.Background(), "usgs"); err != nil {
		t.Errorf("Expected usgs to run while sasmex polls, got %v", err)
	}
	close(slow.release)
	m.Wait()
}

func TestMonitor_TriggerRecordsError(t *testing.T) {
	job := &fakeJob{name: "sasmex", interval: time.Hour, err: errors.New("feed down")}
	m := New(testConfig(), job)

	if err := m.Trigger(context.Background(), "sasmex"); err == nil {
		t.Fatal("Expected error from failing job")
	}
	if got := m.Status()[0].LastError; got != "feed down" {
		t.Errorf("Expected last error to be recorded, got %q", got)
	}
}

func TestMonitor_Run(t *testing.T) {
	job := &fakeJob{name: "sasmex", interval: 20 * time.Millisecond}
	m := New(testConfig(), job)

	ctx, cancel := context.WithTimeout(context.Background(), 110*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	if !m.IsRunning() {
		t.Error("Expected monitor to be running")
	}
	if err := m.Run(ctx); err == nil {
		t.Error("Expected second Run to fail")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	if m.IsRunning() {
		t.Error("Expected monitor to be stopped")
	}
	if runs := job.runs.Load(); runs < 2 {
		t.Errorf("Expected initial poll plus ticks, got %d runs", runs)
	}
}

func TestMonitor_Jobs(t *testing.T) {
	m := New(testConfig(), &fakeJob{name: "sasmex"}, &fakeJob{name: "usgs"})
	jobs := m.Jobs()
	if len(jobs) != 2 || jobs[0] != "sasmex" || jobs[1] != "usgs" {
		t.Errorf("Unexpected jobs %v", jobs)
	}
}

func TestMonitor_TriggerAsyncUsesBaseContext(t *testing.T) {
	job := &fakeJob{name: "usgs", interval: time.Hour, started: make(chan struct{}, 1), release: make(chan struct{})}
	m := New(testConfig(), job)

	ctx, cancel := context.WithCancel(context.Background())
	m.SetBaseContext(ctx)

	if err := m.TriggerAsync("usgs"); err != nil {
		t.Fatalf("TriggerAsync failed: %v", err)
	}
	<-job.started
	cancel()
	m.Wait()

	status := m.Status()
	if status[0].LastError == "" {
		t.Error("Expected the cancelled cycle to record an error")
	}
}
