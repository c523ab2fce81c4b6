// Package scheduler runs the recurring risk assessment and retraining jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus tracks where a job is in its lifecycle.
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType names the kinds of background work the scheduler runs.
type JobType string

const (
	// JobTypeAssessAll scores every active product and refreshes alerts.
	JobTypeAssessAll JobType = "ASSESS_ALL"
	// JobTypeRetrain trains a new model version on the accumulated history.
	JobTypeRetrain JobType = "RETRAIN"
)

func AllJobTypes() []JobType {
	return []JobType{JobTypeAssessAll, JobTypeRetrain}
}

// Job is one unit of scheduled work, together with its retry budget.
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

func NewJob(jobType JobType, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry reports whether the job failed with retry budget left.
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry resets the job to pending with a backoff deadline.
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor performs the actual work for a job type.
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// Scheduler executes submitted jobs on a bounded worker pool and keeps
// the most recent run per job type for status reporting.
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRuns map[JobType]*Job
}

func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, 100),
		lastRuns: make(map[JobType]*Job),
	}
}

// Start launches the worker pool. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop shuts the pool down, waiting for in-flight jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	// Closing under the lock keeps enqueue from sending on a closed channel.
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob queues a job without blocking. Returns ErrJobQueueFull when
// the queue has no room.
func (s *Scheduler) SubmitJob(job *Job) error {
	if err := s.enqueue(job); err != nil {
		return err
	}
	s.logger.Debug("job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

// Schedule creates and submits a job of the given type with the
// configured retry budget.
func (s *Scheduler) Schedule(jobType JobType) error {
	return s.SubmitJob(NewJob(jobType, s.config.RetryAttempts))
}

// LastRun returns the most recently started job of a type, if any.
func (s *Scheduler) LastRun(jobType JobType) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRuns[jobType]
}

// enqueue sends under the lock so Stop cannot close the channel between
// the running check and the send.
func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// requeueAt hands the job back to the queue once its backoff deadline
// passes, instead of cycling it through the workers until it is due.
func (s *Scheduler) requeueAt(job *Job, at time.Time) {
	time.AfterFunc(time.Until(at), func() {
		if err := s.enqueue(job); err != nil {
			s.logger.Warn("failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.runJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job *Job, workerID int) {
	// A retry whose backoff has not elapsed waits out the remainder.
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		s.requeueAt(job, *job.NextRetryAt)
		return
	}

	job.Start()
	s.recordRun(job)
	s.logger.Info("processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		s.handleFailure(job, workerID, err)
		return
	}

	job.Complete()
	s.logger.Info("job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
}

func (s *Scheduler) handleFailure(job *Job, workerID int, err error) {
	job.Fail(err.Error())
	s.logger.Error("job failed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Error(err),
	)

	if !job.ShouldRetry() {
		return
	}
	job.ScheduleRetry(s.config.RetryDelay)
	s.logger.Info("job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
	)
	s.requeueAt(job, *job.NextRetryAt)
}

func (s *Scheduler) recordRun(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns[job.Type] = job
}
