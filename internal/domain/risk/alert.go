package risk

import (
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend/internal/domain/shared"
)

// AlertType classifies an alert
type AlertType string

const (
	AlertTypeCriticalRisk AlertType = "critical_risk"
	AlertTypeLowStock     AlertType = "low_stock"
)

// AlertPriority ranks alerts for display
type AlertPriority string

const (
	AlertPriorityHigh   AlertPriority = "high"
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityLow    AlertPriority = "low"
)

// Alert is an actionable warning raised for a product
type Alert struct {
	shared.BaseAggregateRoot
	Type           AlertType     `gorm:"type:varchar(20);not null;index"`
	ProductID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	ProductCode    string        `gorm:"type:varchar(50);not null"`
	Message        string        `gorm:"type:varchar(500);not null"`
	Priority       AlertPriority `gorm:"type:varchar(10);not null"`
	Acknowledged   bool          `gorm:"not null;default:false;index"`
	AcknowledgedAt *time.Time    `gorm:""`
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "risk_alerts"
}

// NewAlert creates a new alert
func NewAlert(alertType AlertType, productID uuid.UUID, productCode, message string, priority AlertPriority) (*Alert, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Alert message cannot be empty")
	}

	return &Alert{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              alertType,
		ProductID:         productID,
		ProductCode:       productCode,
		Message:           message,
		Priority:          priority,
	}, nil
}

// Acknowledge marks the alert as handled
func (a *Alert) Acknowledge() error {
	if a.Acknowledged {
		return shared.NewDomainError("ALREADY_ACKNOWLEDGED", "Alert is already acknowledged")
	}

	now := time.Now()
	a.Acknowledged = true
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}
