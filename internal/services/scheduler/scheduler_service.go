// Package scheduler runs report jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
)

// ErrStopped is returned when a job is triggered after Stop.
var ErrStopped = errors.New("scheduler stopped")

// JobFunc is the work executed on each tick. The context is cancelled when the
// scheduler stops.
type JobFunc func(ctx context.Context) error

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   JobFunc
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// JobStatus is a snapshot of one registered job.
type JobStatus struct {
	Name      string
	Schedule  string
	LastRun   *time.Time
	NextRun   time.Time
	IsRunning bool
	LastError string
}

// Service schedules jobs with robfig/cron. A tick that arrives while the same job is
// still running is skipped rather than queued.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
	jobMu   sync.Mutex // Protects jobs
	jobs    map[string]*jobEntry
	wg      sync.WaitGroup
	running bool
	stopped bool // Set by Stop; no job may start afterwards
}

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*jobEntry),
	}
}

// RegisterJob adds a job under name with a standard five-field cron schedule.
func (s *Service) RegisterJob(name, schedule string, handler JobFunc) error {
	if err := common.ValidateSchedule(schedule); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{name: name, schedule: schedule, handler: handler}
	cronID, err := s.cron.AddFunc(schedule, func() { _ = s.executeJob(entry) })
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}
	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")
	return nil
}

// Start begins firing registered jobs.
func (s *Service) Start() error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler, cancels running jobs and waits for them to return
// or for ctx to expire.
func (s *Service) Stop(ctx context.Context) error {
	s.jobMu.Lock()
	s.running = false
	s.stopped = true
	s.jobMu.Unlock()

	cronCtx := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// TriggerJob runs a registered job immediately, outside its schedule.
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, ok := s.jobs[name]
	s.jobMu.Unlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return s.executeJob(entry)
}

// Status returns a snapshot of every registered job.
func (s *Service) Status() []JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		statuses = append(statuses, JobStatus{
			Name:      entry.name,
			Schedule:  entry.schedule,
			LastRun:   entry.lastRun,
			NextRun:   s.cron.Entry(entry.cronID).Next,
			IsRunning: entry.isRunning,
			LastError: entry.lastError,
		})
	}
	return statuses
}

// executeJob runs entry unless the scheduler has stopped or the job is already running.
// wg.Add happens under jobMu, so it can never race Stop's wg.Wait.
func (s *Service) executeJob(entry *jobEntry) error {
	s.jobMu.Lock()
	if s.stopped {
		s.jobMu.Unlock()
		s.logger.Debug().Str("job_name", entry.name).Msg("Scheduler stopped, not running job")
		return ErrStopped
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", entry.name).Msg("Previous run still in progress, skipping tick")
		return nil
	}
	entry.isRunning = true
	s.wg.Add(1)
	s.jobMu.Unlock()

	defer s.wg.Done()

	start := time.Now()
	var jobErr error
	func() {
		defer common.RecoverPanic(s.logger, "job:"+entry.name, func(err *common.PanicError) {
			jobErr = err
		})
		jobErr = entry.handler(s.ctx)
	}()

	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &start
	entry.lastError = ""
	if jobErr != nil {
		entry.lastError = jobErr.Error()
	}
	s.jobMu.Unlock()

	if jobErr != nil {
		s.logger.Error().Err(jobErr).Str("job_name", entry.name).Dur("duration", time.Since(start)).Msg("Scheduled job failed")
		return nil
	}
	s.logger.Info().Str("job_name", entry.name).Dur("duration", time.Since(start)).Msg("Scheduled job completed")
	return nil
}
