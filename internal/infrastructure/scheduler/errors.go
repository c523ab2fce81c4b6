package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrInvalidJobType      = errors.New("invalid job type")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
)
