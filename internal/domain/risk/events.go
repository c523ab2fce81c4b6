package risk

import (
	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeAssessment   = "Assessment"
	AggregateTypeModelVersion = "ModelVersion"
)

// Event type constants
const (
	EventTypeHighRiskDetected = "HighRiskDetected"
	EventTypeModelActivated   = "ModelActivated"
)

// HighRiskDetectedEvent is published when an assessment crosses the critical threshold
type HighRiskDetectedEvent struct {
	shared.BaseDomainEvent
	AssessmentID uuid.UUID `json:"assessment_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductCode  string    `json:"product_code"`
	Score        float64   `json:"score"`
	Band         RiskBand  `json:"band"`
}

// NewHighRiskDetectedEvent creates a new HighRiskDetectedEvent
func NewHighRiskDetectedEvent(assessment *Assessment) *HighRiskDetectedEvent {
	return &HighRiskDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeHighRiskDetected, AggregateTypeAssessment, assessment.ID),
		AssessmentID:    assessment.ID,
		ProductID:       assessment.ProductID,
		ProductCode:     assessment.ProductCode,
		Score:           assessment.Score,
		Band:            assessment.Band,
	}
}

// ModelActivatedEvent is published when a model version starts serving predictions
type ModelActivatedEvent struct {
	shared.BaseDomainEvent
	ModelVersionID uuid.UUID   `json:"model_version_id"`
	Version        string      `json:"version"`
	Family         ModelFamily `json:"family"`
	AUC            float64     `json:"auc"`
}

// NewModelActivatedEvent creates a new ModelActivatedEvent
func NewModelActivatedEvent(model *ModelVersion) *ModelActivatedEvent {
	return &ModelActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeModelActivated, AggregateTypeModelVersion, model.ID),
		ModelVersionID:  model.ID,
		Version:         model.Version,
		Family:          model.Family,
		AUC:             model.AUC,
	}
}
