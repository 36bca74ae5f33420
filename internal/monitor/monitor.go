// Package monitor schedules feed poll cycles and guarantees that cycles of
// the same job never overlap.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/metrics"
)

// Job is one pollable feed
type Job interface {
	Name() string
	Interval() time.Duration
	RunOnce(ctx context.Context) error
}

// Config tunes scheduling
type Config struct {
	RateLimit  float64       // cycles per second across all jobs
	RetryDelay time.Duration // pause after a failed scheduled cycle
}

// JobStatus describes the last cycle of a job
type JobStatus struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	InFlight     bool          `json:"in_flight"`
	LastRun      time.Time     `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	Runs         int           `json:"runs"`
}

type jobState struct {
	job    Job
	sem    *semaphore.Weighted
	mu     sync.RWMutex
	status JobStatus
}

// Monitor coordinates the pollers
type Monitor struct {
	jobs    map[string]*jobState
	order   []string
	limiter *rate.Limiter
	cfg     Config

	mu      sync.RWMutex
	running bool
	baseCtx context.Context
	wg      sync.WaitGroup
}

// New creates a monitor for jobs
func New(cfg Config, jobs ...Job) *Monitor {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	burst := int(cfg.RateLimit)
	if burst < len(jobs) {
		burst = len(jobs)
	}
	if burst < 1 {
		burst = 1
	}

	m := &Monitor{
		jobs:    make(map[string]*jobState, len(jobs)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		cfg:     cfg,
		baseCtx: context.Background(),
	}
	for _, j := range jobs {
		m.jobs[j.Name()] = &jobState{
			job:    j,
			sem:    semaphore.NewWeighted(1),
			status: JobStatus{Name: j.Name(), Interval: j.Interval()},
		}
		m.order = append(m.order, j.Name())
	}

	logger.Info("Monitor initialized",
		"jobs", len(jobs),
		"rate_limit", cfg.RateLimit,
	)
	return m
}

// Jobs returns the job names in registration order
func (m *Monitor) Jobs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Run starts one poller per job and blocks until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.running = true
	m.baseCtx = ctx
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	logger.Info("Starting monitor")

	var wg sync.WaitGroup
	for _, name := range m.order {
		js := m.jobs[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.runPoller(ctx, js)
		}()
	}
	wg.Wait()
	m.wg.Wait()

	logger.Info("Monitor stopped")
	return nil
}

// IsRunning returns whether the scheduled pollers are active
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Monitor) runPoller(ctx context.Context, js *jobState) {
	name := js.job.Name()
	interval := js.job.Interval()
	if interval <= 0 {
		interval = time.Minute
	}
	logger.Info("Starting poller", "job", name, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := m.scheduled(ctx, js); err != nil {
		logger.Error("Initial poll failed", "job", name, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Poller stopping", "job", name)
			return
		case <-ticker.C:
			if next := js.job.Interval(); next > 0 && next != interval {
				logger.Info("Poll interval changed", "job", name, "from", interval, "to", next)
				interval = next
				ticker.Reset(interval)
				m.setInterval(js, interval)
			}
			if err := m.scheduled(ctx, js); err != nil {
				logger.Error("Poll failed", "job", name, "error", err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(m.cfg.RetryDelay):
				}
			}
		}
	}
}

// scheduled runs a ticker-driven cycle; a cycle already in flight turns the
// tick into a no-op
func (m *Monitor) scheduled(ctx context.Context, js *jobState) error {
	if !js.sem.TryAcquire(1) {
		logger.Debug("Poll skipped, previous cycle still running", "job", js.job.Name())
		return nil
	}
	defer js.sem.Release(1)
	return m.cycle(ctx, js)
}

// Trigger runs one cycle of the named job and waits for it
func (m *Monitor) Trigger(ctx context.Context, name string) error {
	js, err := m.acquire(name)
	if err != nil {
		return err
	}
	defer js.sem.Release(1)
	return m.cycle(ctx, js)
}

// TriggerAsync starts one cycle of the named job in the background. It fails
// immediately when the job is unknown or already polling.
func (m *Monitor) TriggerAsync(name string) error {
	js, err := m.acquire(name)
	if err != nil {
		return err
	}

	m.mu.RLock()
	ctx := m.baseCtx
	m.mu.RUnlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer js.sem.Release(1)
		if err := m.cycle(ctx, js); err != nil {
			logger.Error("Triggered poll failed", "job", name, "error", err)
		}
	}()
	return nil
}

// SetBaseContext sets the context of cycles started by TriggerAsync while
// Run is not active
func (m *Monitor) SetBaseContext(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		m.baseCtx = ctx
	}
}

// Wait blocks until background cycles started by TriggerAsync finish
func (m *Monitor) Wait() { m.wg.Wait() }

func (m *Monitor) acquire(name string) (*jobState, error) {
	js, ok := m.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: job %q", apperrors.ErrNotFound, name)
	}
	if !js.sem.TryAcquire(1) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPollInProgress, name)
	}
	return js, nil
}

// cycle executes a single poll; the caller holds the job's semaphore
func (m *Monitor) cycle(ctx context.Context, js *jobState) error {
	name := js.job.Name()
	ctx = logger.ContextWithPollID(ctx, uuid.NewString())
	log := logger.WithContext(ctx)
	start := time.Now()

	js.mu.Lock()
	js.status.InFlight = true
	js.mu.Unlock()

	if err := m.limiter.Wait(ctx); err != nil {
		m.finish(js, start, err)
		return fmt.Errorf("rate limit: %w", err)
	}

	log.Debug("Poll started", "job", name)
	err := js.job.RunOnce(ctx)
	duration := time.Since(start)
	m.finish(js, start, err)

	outcome := "success"
	switch {
	case errors.Is(err, apperrors.ErrCancelled), errors.Is(err, context.Canceled):
		outcome = "cancelled"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordPoll(name, outcome, duration)
	log.Debug("Poll completed", "job", name, "outcome", outcome, "duration_ms", duration.Milliseconds())

	return err
}

func (m *Monitor) finish(js *jobState, start time.Time, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.status.InFlight = false
	js.status.LastRun = start
	js.status.LastDuration = time.Since(start)
	js.status.Runs++
	js.status.LastError = ""
	if err != nil {
		js.status.LastError = err.Error()
	}
}

func (m *Monitor) setInterval(js *jobState, d time.Duration) {
	js.mu.Lock()
	js.status.Interval = d
	js.mu.Unlock()
}

// Status reports every job, sorted by name
func (m *Monitor) Status() []JobStatus {
	out := make([]JobStatus, 0, len(m.jobs))
	for _, js := range m.jobs {
		js.mu.RLock()
		out = append(out, js.status)
		js.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
