// Package scheduler runs the periodic lifecycle sweeps.
// Every registered job gets its own timer loop. The first run fires
// InitialDelay after Start, later runs follow the job's schedule. A job never
// overlaps with itself: a tick that finds the previous run still in flight is
// skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrNilJob                  = errors.New("scheduler: nil job")
	ErrNilSchedule             = errors.New("scheduler: nil schedule")
	ErrJobAlreadyExists        = errors.New("scheduler: job already registered")
	ErrJobNotFound             = errors.New("scheduler: job not found")
	ErrJobRunning              = errors.New("scheduler: job already running")
	ErrJobLocked               = errors.New("scheduler: job locked by another instance")
	ErrSchedulerAlreadyRunning = errors.New("scheduler: already running")
	ErrSchedulerNotRunning     = errors.New("scheduler: not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTRACTS
// ══════════════════════════════════════════════════════════════════════════════

// Job is one sweep. Run receives a context that is cancelled on Stop.
type Job interface {
	Name() string
	Description() string
	Run(ctx context.Context) error
}

// Schedule yields the next fire time after t.
type Schedule interface {
	Next(t time.Time) time.Time
	String() string
}

// Locker guards a job run across processes. Acquire returns false when
// another instance holds the lock.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}

// JobResult describes one finished run.
type JobResult struct {
	JobName     string        `json:"job_name"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Manual      bool          `json:"manual"`
}

// JobInfo is the externally visible state of a registered job.
type JobInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Running     bool       `json:"running"`
	Schedule    string     `json:"schedule"`
	LastRun     time.Time  `json:"last_run"`
	NextRun     time.Time  `json:"next_run"`
	RunCount    int64      `json:"run_count"`
	FailCount   int64      `json:"fail_count"`
	SkipCount   int64      `json:"skip_count"`
	LastResult  *JobResult `json:"last_result,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// SchedulerConfig configures a Scheduler. Zero values fall back to
// DefaultSchedulerConfig.
type SchedulerConfig struct {
	Logger *slog.Logger

	// Timezone in which schedules compute their next fire time.
	Timezone *time.Location

	// MaxHistorySize caps the ring of recent results.
	MaxHistorySize int

	// Locker, when set, makes each run take a distributed lock.
	Locker Locker

	// LockTTL bounds how long a crashed instance can hold a job lock.
	LockTTL time.Duration

	// InitialDelay separates Start from the first run of every job.
	// Zero runs each job right away.
	InitialDelay time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:         slog.Default(),
		Timezone:       time.UTC,
		MaxHistorySize: 500,
		LockTTL:        30 * time.Minute,
	}
}

// entry is a registered job plus its run state. Guarded by Scheduler.mu.
type entry struct {
	job      Job
	schedule Schedule

	inFlight bool
	lastRun  time.Time
	nextRun  time.Time
	runs     int64
	fails    int64
	skips    int64
	last     *JobResult
}

// Scheduler owns the registered jobs and their loops.
type Scheduler struct {
	cfg     SchedulerConfig
	logger  *slog.Logger
	metrics *SchedulerMetrics

	mu      sync.RWMutex
	entries map[string]*entry
	history []JobResult

	// set between Start and Stop
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if cfg.Timezone == nil {
		cfg.Timezone = def.Timezone
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = def.MaxHistorySize
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = def.LockTTL
	}
	cfg.InitialDelay = max(cfg.InitialDelay, 0)

	return &Scheduler{
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "scheduler"),
		metrics: NewSchedulerMetrics(),
		entries: make(map[string]*entry),
	}
}

func (s *Scheduler) now() time.Time { return time.Now().In(s.cfg.Timezone) }

// Register adds job under its name. Jobs registered after Start do not
// get a loop until the next Start.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	e := &entry{job: job, schedule: schedule, nextRun: s.now().Add(s.cfg.InitialDelay)}
	s.entries[name] = e

	s.logger.Info("job registered", "job", name, "schedule", schedule.String(), "next_run", e.nextRun)
	return nil
}

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrSchedulerAlreadyRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)

	first := s.now().Add(s.cfg.InitialDelay)
	for name, e := range s.entries {
		e.nextRun = first
		s.wg.Add(1)
		go s.loop(ctx, name, e)
	}
	s.logger.Info("scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop cancels all loops and in-flight runs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return ErrSchedulerNotRunning
	}
	cancel()
	s.wg.Wait()

	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

// loop sleeps until the entry's next fire time, then claims and runs it.
func (s *Scheduler) loop(ctx context.Context, name string, e *entry) {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		wait := time.Until(e.nextRun)
		s.mu.RUnlock()

		timer := time.NewTimer(max(wait, 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		now := s.now()
		s.mu.Lock()
		e.nextRun = e.schedule.Next(now)
		claimed := !e.inFlight
		if claimed {
			e.inFlight = true
			e.lastRun = now
		} else {
			e.skips++
		}
		s.mu.Unlock()

		if !claimed {
			s.metrics.RecordSkip(name)
			s.logger.Warn("job still running, tick skipped", "job", name)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, _ = s.execute(ctx, name, e, false)
		}()
	}
}

// RunNow runs jobName immediately on the caller's goroutine. It returns
// ErrJobRunning when the job is already in flight.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.Lock()
	e, ok := s.entries[jobName]
	switch {
	case !ok:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	case e.inFlight:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, jobName)
	}
	e.inFlight = true
	e.lastRun = s.now()
	s.mu.Unlock()

	return s.execute(ctx, jobName, e, true)
}

// execute runs a claimed entry and records the outcome. The entry must have
// been marked in flight by the caller.
func (s *Scheduler) execute(ctx context.Context, name string, e *entry, manual bool) (*JobResult, error) {
	defer func() {
		s.mu.Lock()
		e.inFlight = false
		s.mu.Unlock()
	}()

	log := s.logger.With("job", name, "manual", manual)

	if s.cfg.Locker != nil {
		release, acquired, err := s.cfg.Locker.Acquire(ctx, name, s.cfg.LockTTL)
		switch {
		case err != nil:
			log.Warn("job lock unavailable, running unguarded", "error", err)
		case !acquired:
			log.Info("job locked by another instance, skipped")
			s.mu.Lock()
			e.skips++
			s.mu.Unlock()
			s.metrics.RecordSkip(name)
			return nil, ErrJobLocked
		default:
			defer release()
		}
	}

	log.Info("job started")
	started := time.Now()
	err := runGuarded(ctx, e.job)
	finished := time.Now()

	res := &JobResult{
		JobName:     name,
		StartedAt:   started,
		CompletedAt: finished,
		Duration:    finished.Sub(started),
		Success:     err == nil,
		Manual:      manual,
	}
	if err != nil {
		res.Error = err.Error()
	}
	s.metrics.RecordExecution(name, res.Duration, res.Success)

	s.mu.Lock()
	e.runs++
	if err != nil {
		e.fails++
	}
	e.last = res
	s.history = append(s.history, *res)
	if over := len(s.history) - s.cfg.MaxHistorySize; over > 0 {
		s.history = slices.Delete(s.history, 0, over)
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("job failed", "duration", res.Duration, "error", err)
	} else {
		log.Info("job completed", "duration", res.Duration)
	}
	return res, err
}

// runGuarded turns a panic inside the job into an error.
func runGuarded(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// INSPECTION
// ══════════════════════════════════════════════════════════════════════════════

func (e *entry) info(name string) JobInfo {
	return JobInfo{
		Name:        name,
		Description: e.job.Description(),
		Running:     e.inFlight,
		Schedule:    e.schedule.String(),
		LastRun:     e.lastRun,
		NextRun:     e.nextRun,
		RunCount:    e.runs,
		FailCount:   e.fails,
		SkipCount:   e.skips,
		LastResult:  e.last,
	}
}

// ListJobs returns every registered job ordered by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, e.info(name))
	}
	slices.SortFunc(out, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (s *Scheduler) GetJobInfo(jobName string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[jobName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	info := e.info(jobName)
	return &info, nil
}

// GetHistory returns up to limit most recent results, oldest first.
// A non-positive limit returns the whole ring.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	return slices.Clone(s.history[len(s.history)-limit:])
}

func (s *Scheduler) GetMetrics() *SchedulerMetrics { return s.metrics }
