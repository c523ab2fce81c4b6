package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// AssessmentRunner runs a full risk assessment sweep
type AssessmentRunner interface {
	AssessAll(ctx context.Context) error
}

// TrainingRunner trains a new model version on the accumulated history
type TrainingRunner interface {
	Retrain(ctx context.Context) error
}

// RiskJobExecutor dispatches scheduled jobs to the risk services
type RiskJobExecutor struct {
	assessments AssessmentRunner
	training    TrainingRunner
	logger      *zap.Logger
}

// NewRiskJobExecutor creates a new executor
func NewRiskJobExecutor(assessments AssessmentRunner, training TrainingRunner, logger *zap.Logger) *RiskJobExecutor {
	return &RiskJobExecutor{
		assessments: assessments,
		training:    training,
		logger:      logger,
	}
}

// Execute runs the job matching its type
func (e *RiskJobExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeAssessAll:
		return e.assessments.AssessAll(ctx)
	case JobTypeRetrain:
		return e.training.Retrain(ctx)
	default:
		e.logger.Error("unknown job type", zap.String("job_type", string(job.Type)))
		return ErrInvalidJobType
	}
}

// Ensure RiskJobExecutor implements JobExecutor
var _ JobExecutor = (*RiskJobExecutor)(nil)
