package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// CategoryRisk aggregates assessment results per product category
type CategoryRisk struct {
	Category      string  `json:"category"`
	MeanScore     float64 `json:"mean_score"`
	HighRiskCount int     `json:"high_risk_count"`
	ProductCount  int     `json:"product_count"`
}

// BandCounts summarises assessments per risk band
type BandCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

// AssessmentRepository defines the interface for assessment persistence
type AssessmentRepository interface {
	// FindByID finds an assessment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Assessment, error)

	// FindLatestByProduct finds the most recent assessment for a product
	FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*Assessment, error)

	// FindLatest returns the most recent assessment per product,
	// sorted by score descending
	FindLatest(ctx context.Context, filter shared.Filter) ([]Assessment, error)

	// FindHighRisk returns the latest assessments scoring at or above the threshold,
	// sorted by score descending
	FindHighRisk(ctx context.Context, threshold float64) ([]Assessment, error)

	// FindByProduct returns the assessment history of a product
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Assessment, error)

	// Save creates or updates an assessment
	Save(ctx context.Context, assessment *Assessment) error

	// SaveBatch creates or updates multiple assessments
	SaveBatch(ctx context.Context, assessments []*Assessment) error

	// CountLatestByBand counts the latest assessments per risk band
	CountLatestByBand(ctx context.Context) (BandCounts, error)

	// CategoryAnalysis aggregates the latest assessments per category
	CategoryAnalysis(ctx context.Context) ([]CategoryRisk, error)

	// AverageLatestScore returns the mean of the latest scores across products
	AverageLatestScore(ctx context.Context) (float64, error)

	// DeleteOlderThan removes assessments created before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// ModelVersionRepository defines the interface for model registry persistence
type ModelVersionRepository interface {
	// FindByID finds a model version by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ModelVersion, error)

	// FindByVersion finds a model version by its version string
	FindByVersion(ctx context.Context, version string) (*ModelVersion, error)

	// FindActive returns the currently active model version, or ErrNoActiveModel
	FindActive(ctx context.Context) (*ModelVersion, error)

	// FindAll lists model versions matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]ModelVersion, error)

	// Save creates or updates a model version
	Save(ctx context.Context, model *ModelVersion) error

	// Count counts model versions matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// AlertRepository defines the interface for alert persistence
type AlertRepository interface {
	// FindByID finds an alert by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Alert, error)

	// FindActive lists unacknowledged alerts, newest first
	FindActive(ctx context.Context, limit int) ([]Alert, error)

	// FindAll lists alerts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Alert, error)

	// FindActiveByProductAndType finds an open alert of a given type for a product
	FindActiveByProductAndType(ctx context.Context, productID uuid.UUID, alertType AlertType) (*Alert, error)

	// Save creates or updates an alert
	Save(ctx context.Context, alert *Alert) error

	// Count counts alerts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// DeleteAcknowledgedOlderThan removes acknowledged alerts older than the given time
	DeleteAcknowledgedOlderThan(ctx context.Context, before time.Time) (int64, error)
}
