package risk

import (
	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// RiskBand categorizes a risk score for reporting
type RiskBand string

const (
	RiskBandLow    RiskBand = "low"
	RiskBandMedium RiskBand = "medium"
	RiskBandHigh   RiskBand = "high"
)

// Score thresholds
const (
	// BandMediumThreshold is the lower bound of the medium band
	BandMediumThreshold = 0.3
	// BandHighThreshold is the lower bound of the high band
	BandHighThreshold = 0.7
	// HighRiskCutoff is the binary classification cutoff
	HighRiskCutoff = 0.5
	// CriticalThreshold marks scores that demand immediate attention
	CriticalThreshold = 0.8
)

// BandFor maps a risk score to its band
func BandFor(score float64) RiskBand {
	switch {
	case score < BandMediumThreshold:
		return RiskBandLow
	case score < BandHighThreshold:
		return RiskBandMedium
	default:
		return RiskBandHigh
	}
}

// Assessment is a stockout risk evaluation of one product at a point in time.
// It is the aggregate root for risk operations.
type Assessment struct {
	shared.BaseAggregateRoot
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductCode     string    `gorm:"type:varchar(50);not null;index"`
	Score           float64   `gorm:"not null"`
	Band            RiskBand  `gorm:"type:varchar(10);not null;index"`
	HighRisk        bool      `gorm:"not null;default:false;index"`
	ModelVersion    string    `gorm:"type:varchar(50);not null"` // "heuristic" when no trained model served the score
	FeatureSnapshot string    `gorm:"type:jsonb"`                // Features the score was computed from
	Recommendations string    `gorm:"type:jsonb"`                // JSON array of recommendation strings
}

// TableName returns the table name for GORM
func (Assessment) TableName() string {
	return "risk_assessments"
}

// NewAssessment creates a risk assessment and derives the band and binary prediction
func NewAssessment(productID uuid.UUID, productCode string, score float64, modelVersion, featureSnapshot, recommendations string) (*Assessment, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if score < 0 || score > 1 {
		return nil, shared.NewDomainError("INVALID_SCORE", "Risk score must be between 0 and 1")
	}
	if modelVersion == "" {
		return nil, shared.NewDomainError("INVALID_MODEL_VERSION", "Model version cannot be empty")
	}
	if featureSnapshot == "" {
		featureSnapshot = "{}"
	}
	if recommendations == "" {
		recommendations = "[]"
	}

	assessment := &Assessment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ProductCode:       productCode,
		Score:             score,
		Band:              BandFor(score),
		HighRisk:          score > HighRiskCutoff,
		ModelVersion:      modelVersion,
		FeatureSnapshot:   featureSnapshot,
		Recommendations:   recommendations,
	}

	if assessment.IsCritical() {
		assessment.AddDomainEvent(NewHighRiskDetectedEvent(assessment))
	}

	return assessment, nil
}

// IsCritical returns true for scores that demand immediate attention
func (a *Assessment) IsCritical() bool {
	return a.Score > CriticalThreshold
}

// IsHeuristic returns true when the score came from the fallback rule
func (a *Assessment) IsHeuristic() bool {
	return a.ModelVersion == HeuristicModelVersion
}

// HeuristicModelVersion marks assessments scored without a trained model
const HeuristicModelVersion = "heuristic"
