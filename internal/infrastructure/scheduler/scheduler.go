// Package scheduler runs the engine's periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hydrospark/backend/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of a job's last run
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		JobTimeout: 30 * time.Minute,
		Location:   time.UTC,
	}
}

// JobInfo is a snapshot of one registered job
type JobInfo struct {
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Status     JobStatus  `json:"status"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	RunCount   int        `json:"run_count"`
	LastTookMs int64      `json:"last_took_ms"`
}

type job struct {
	name     string
	schedule string
	fn       JobFunc
	entryID  cron.EntryID

	// guarded by CronScheduler.mu
	status    JobStatus
	lastRunAt *time.Time
	lastError string
	runCount  int
	lastTook  time.Duration
}

// CronScheduler runs registered jobs on standard five-field cron schedules.
// A job whose previous run is still in progress is skipped.
type CronScheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*job
	isRunning bool
	baseCtx   context.Context
	cancel    context.CancelFunc
}

// NewCronScheduler creates a scheduler. Jobs must be registered before Start.
func NewCronScheduler(config Config, log *zap.Logger) *CronScheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	cl := &cronLogger{sugar: log.Sugar()}
	return &CronScheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  log,
		jobs:    make(map[string]*job),
		baseCtx: context.Background(),
	}
}

// Register adds a named job on a cron schedule such as "0 2 * * *"
func (s *CronScheduler) Register(name, schedule string, fn JobFunc) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w: job %s schedule %q: %v", ErrInvalidConfig, name, schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	j := &job{name: name, schedule: schedule, fn: fn, status: JobStatusIdle}
	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(s.currentBaseCtx(), j) })
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	j.entryID = id
	s.jobs[name] = j
	return nil
}

// Start begins firing jobs. It is a no-op when the scheduler is disabled.
func (s *CronScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.isRunning = true
	s.cron.Start()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	s.logger.Info("Scheduler started",
		zap.Strings("jobs", names),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop halts scheduling, cancels running jobs, and waits for them to return
// or for ctx to expire.
func (s *CronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a job immediately in the caller's goroutine and returns its error
func (s *CronScheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	running := s.isRunning
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !running && s.config.Enabled {
		return ErrSchedulerNotRunning
	}
	return s.run(ctx, j)
}

// Jobs returns a snapshot of all registered jobs, sorted by name
func (s *CronScheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{
			Name:       j.name,
			Schedule:   j.schedule,
			Status:     j.status,
			LastRunAt:  j.lastRunAt,
			LastError:  j.lastError,
			RunCount:   j.runCount,
			LastTookMs: j.lastTook.Milliseconds(),
		}
		if s.isRunning {
			if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
				info.NextRunAt = &next
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	return infos
}

func (s *CronScheduler) currentBaseCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *CronScheduler) run(parent context.Context, j *job) error {
	ctx, cancel := context.WithTimeout(parent, s.config.JobTimeout)
	defer cancel()
	ctx, log := logger.WithJob(ctx, s.logger, j.name)

	started := time.Now()
	s.mu.Lock()
	j.status = JobStatusRunning
	j.lastRunAt = &started
	j.runCount++
	s.mu.Unlock()

	log.Info("Job started")
	err := j.fn(ctx)
	took := time.Since(started)

	s.mu.Lock()
	j.lastTook = took
	if err != nil {
		j.status = JobStatusFailed
		j.lastError = err.Error()
	} else {
		j.status = JobStatusSuccess
		j.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		fields := []zap.Field{zap.Duration("took", took), zap.Error(err)}
		if errors.Is(err, context.DeadlineExceeded) {
			fields = append(fields, zap.Duration("job_timeout", s.config.JobTimeout))
		}
		log.Error("Job failed", fields...)
		return err
	}
	log.Info("Job completed", zap.Duration("took", took))
	return nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
