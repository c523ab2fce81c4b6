package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// AssessHour/AssessMinute is the local time for the daily assessment sweep
	AssessHour   int
	AssessMinute int

	// RetrainWeekday is the weekly retraining day (0 = Sunday)
	RetrainWeekday int
	RetrainHour    int
	RetrainMinute  int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		AssessHour:     2, // 2am daily
		AssessMinute:   0,
		RetrainWeekday: 0, // Sunday
		RetrainHour:    3, // 3am
		RetrainMinute:  0,
		CheckInterval:  time.Minute,
	}
}

// CronTrigger submits assessment and retraining jobs on their schedules
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track which date we last ran each job type for
	lastAssessDate  string
	lastRetrainDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("cron trigger started",
		zap.Int("assess_hour", c.config.AssessHour),
		zap.Int("assess_minute", c.config.AssessMinute),
		zap.Int("retrain_weekday", c.config.RetrainWeekday),
		zap.Int("retrain_hour", c.config.RetrainHour),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run scheduled jobs
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(time.Now())
		}
	}
}

// checkAndTrigger submits the jobs whose scheduled time has arrived
func (c *CronTrigger) checkAndTrigger(now time.Time) {
	currentDate := now.Format("2006-01-02")

	if c.assessmentDue(now, currentDate) {
		c.mu.Lock()
		c.lastAssessDate = currentDate
		c.mu.Unlock()

		c.logger.Info("triggering daily risk assessment sweep")
		if err := c.scheduler.Schedule(JobTypeAssessAll); err != nil {
			c.logger.Error("failed to schedule assessment sweep", zap.Error(err))
		}
	}

	if c.retrainDue(now, currentDate) {
		c.mu.Lock()
		c.lastRetrainDate = currentDate
		c.mu.Unlock()

		c.logger.Info("triggering weekly model retraining")
		if err := c.scheduler.Schedule(JobTypeRetrain); err != nil {
			c.logger.Error("failed to schedule retraining", zap.Error(err))
		}
	}
}

func (c *CronTrigger) assessmentDue(now time.Time, currentDate string) bool {
	c.mu.Lock()
	already := c.lastAssessDate == currentDate
	c.mu.Unlock()
	if already {
		return false
	}
	return now.Hour() == c.config.AssessHour && now.Minute() == c.config.AssessMinute
}

func (c *CronTrigger) retrainDue(now time.Time, currentDate string) bool {
	c.mu.Lock()
	already := c.lastRetrainDate == currentDate
	c.mu.Unlock()
	if already {
		return false
	}
	if int(now.Weekday()) != c.config.RetrainWeekday {
		return false
	}
	return now.Hour() == c.config.RetrainHour && now.Minute() == c.config.RetrainMinute
}

// TriggerAssessment submits an assessment sweep outside the schedule
func (c *CronTrigger) TriggerAssessment() error {
	return c.scheduler.Schedule(JobTypeAssessAll)
}

// TriggerRetrain submits a retraining run outside the schedule
func (c *CronTrigger) TriggerRetrain() error {
	return c.scheduler.Schedule(JobTypeRetrain)
}
