package risk

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

// HighRiskAlertHandler raises a critical-risk alert when an assessment
// crosses the critical threshold. One open alert per product.
type HighRiskAlertHandler struct {
	alertRepo risk.AlertRepository
	logger    *zap.Logger
}

// NewHighRiskAlertHandler creates a new HighRiskAlertHandler
func NewHighRiskAlertHandler(alertRepo risk.AlertRepository, logger *zap.Logger) *HighRiskAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HighRiskAlertHandler{alertRepo: alertRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *HighRiskAlertHandler) EventTypes() []string {
	return []string{risk.EventTypeHighRiskDetected}
}

// Handle processes a HighRiskDetected event
func (h *HighRiskAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	detected, ok := event.(*risk.HighRiskDetectedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	existing, err := h.alertRepo.FindActiveByProductAndType(ctx, detected.ProductID, risk.AlertTypeCriticalRisk)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}

	alert, err := risk.NewAlert(
		risk.AlertTypeCriticalRisk,
		detected.ProductID,
		detected.ProductCode,
		fmt.Sprintf("Critical stockout risk: %.1f%%", detected.Score*100),
		risk.AlertPriorityHigh,
	)
	if err != nil {
		return err
	}

	if err := h.alertRepo.Save(ctx, alert); err != nil {
		return err
	}

	h.logger.Info("critical risk alert raised",
		zap.String("product_code", detected.ProductCode),
		zap.Float64("score", detected.Score),
	)

	return nil
}

// LowStockAlertHandler raises a low-stock alert when inventory drops below
// the product minimum. One open alert per product.
type LowStockAlertHandler struct {
	alertRepo   risk.AlertRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewLowStockAlertHandler creates a new LowStockAlertHandler
func NewLowStockAlertHandler(alertRepo risk.AlertRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *LowStockAlertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockAlertHandler{alertRepo: alertRepo, productRepo: productRepo, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowMinimum}
}

// Handle processes a StockBelowMinimum event
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	belowMin, ok := event.(*inventory.StockBelowMinimumEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	existing, err := h.alertRepo.FindActiveByProductAndType(ctx, belowMin.ProductID, risk.AlertTypeLowStock)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}

	product, err := h.productRepo.FindByID(ctx, belowMin.ProductID)
	if err != nil {
		return err
	}

	alert, err := risk.NewAlert(
		risk.AlertTypeLowStock,
		belowMin.ProductID,
		product.Code,
		"Below minimum stock level",
		risk.AlertPriorityMedium,
	)
	if err != nil {
		return err
	}

	if err := h.alertRepo.Save(ctx, alert); err != nil {
		return err
	}

	h.logger.Info("low stock alert raised",
		zap.String("product_code", product.Code),
		zap.Int("current_stock", belowMin.CurrentStock),
		zap.Int("min_stock", belowMin.MinStock),
	)

	return nil
}

// ModelActivationHandler drops the prediction service's loaded model when a
// new version goes active
type ModelActivationHandler struct {
	predictions *PredictionService
	logger      *zap.Logger
}

// NewModelActivationHandler creates a new ModelActivationHandler
func NewModelActivationHandler(predictions *PredictionService, logger *zap.Logger) *ModelActivationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelActivationHandler{predictions: predictions, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ModelActivationHandler) EventTypes() []string {
	return []string{risk.EventTypeModelActivated}
}

// Handle processes a ModelActivated event
func (h *ModelActivationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	activated, ok := event.(*risk.ModelActivatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.predictions.ReloadModel()

	h.logger.Info("prediction model reloaded",
		zap.String("version", activated.Version),
	)

	return nil
}

// Ensure handlers implement EventHandler
var (
	_ shared.EventHandler = (*HighRiskAlertHandler)(nil)
	_ shared.EventHandler = (*LowStockAlertHandler)(nil)
	_ shared.EventHandler = (*ModelActivationHandler)(nil)
)
