package risk

import (
	"fmt"
	"time"

	"github.com/stocksense/backend/internal/domain/shared"
)

// ModelFamily identifies the learning algorithm behind a trained model
type ModelFamily string

const (
	ModelFamilyLogistic     ModelFamily = "logistic"
	ModelFamilyRandomForest ModelFamily = "random_forest"
)

// ModelStatus represents the lifecycle state of a trained model
type ModelStatus string

const (
	ModelStatusCandidate ModelStatus = "candidate"
	ModelStatusActive    ModelStatus = "active"
	ModelStatusRetired   ModelStatus = "retired"
)

// ModelVersion records a trained model and its evaluation metrics.
// At most one version is active at a time; the active version serves predictions.
type ModelVersion struct {
	shared.BaseAggregateRoot
	Version     string      `gorm:"type:varchar(50);not null;uniqueIndex"`
	Family      ModelFamily `gorm:"type:varchar(20);not null"`
	AUC         float64     `gorm:"not null"`
	Accuracy    float64     `gorm:"not null"`
	SampleCount int         `gorm:"not null"`
	ArtifactKey string      `gorm:"type:varchar(255);not null"` // Object key of the serialized model
	Status      ModelStatus `gorm:"type:varchar(20);not null;default:'candidate';index"`
	TrainedAt   time.Time   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ModelVersion) TableName() string {
	return "model_versions"
}

// NewModelVersion registers a freshly trained model as a candidate
func NewModelVersion(family ModelFamily, auc, accuracy float64, sampleCount int, artifactKey string) (*ModelVersion, error) {
	if family != ModelFamilyLogistic && family != ModelFamilyRandomForest {
		return nil, shared.NewDomainError("INVALID_MODEL_FAMILY", "Unknown model family")
	}
	if auc < 0 || auc > 1 {
		return nil, shared.NewDomainError("INVALID_METRIC", "AUC must be between 0 and 1")
	}
	if accuracy < 0 || accuracy > 1 {
		return nil, shared.NewDomainError("INVALID_METRIC", "Accuracy must be between 0 and 1")
	}
	if sampleCount <= 0 {
		return nil, shared.NewDomainError("INVALID_SAMPLE_COUNT", "Sample count must be positive")
	}
	if artifactKey == "" {
		return nil, shared.NewDomainError("INVALID_ARTIFACT_KEY", "Artifact key cannot be empty")
	}

	now := time.Now()
	model := &ModelVersion{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Version:           fmt.Sprintf("%s-%s", family, now.UTC().Format("20060102-150405")),
		Family:            family,
		AUC:               auc,
		Accuracy:          accuracy,
		SampleCount:       sampleCount,
		ArtifactKey:       artifactKey,
		Status:            ModelStatusCandidate,
		TrainedAt:         now,
	}

	return model, nil
}

// Activate promotes the model to serve predictions
func (m *ModelVersion) Activate() error {
	if m.Status == ModelStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Model version is already active")
	}
	if m.Status == ModelStatusRetired {
		return shared.NewDomainError("CANNOT_ACTIVATE", "Cannot activate a retired model version")
	}

	m.Status = ModelStatusActive
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	m.AddDomainEvent(NewModelActivatedEvent(m))

	return nil
}

// Retire takes the model out of service
func (m *ModelVersion) Retire() error {
	if m.Status == ModelStatusRetired {
		return shared.NewDomainError("ALREADY_RETIRED", "Model version is already retired")
	}

	m.Status = ModelStatusRetired
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// IsActive returns true when the model serves predictions
func (m *ModelVersion) IsActive() bool {
	return m.Status == ModelStatusActive
}
