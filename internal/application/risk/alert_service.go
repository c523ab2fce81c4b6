package risk

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

// defaultActiveAlertLimit caps unbounded active-alert queries
const defaultActiveAlertLimit = 50

// AlertService manages the alert stream raised by risk and inventory events
type AlertService struct {
	alertRepo risk.AlertRepository
}

// NewAlertService creates a new AlertService
func NewAlertService(alertRepo risk.AlertRepository) *AlertService {
	return &AlertService{alertRepo: alertRepo}
}

// ListActive returns unacknowledged alerts, newest first
func (s *AlertService) ListActive(ctx context.Context, limit int) ([]AlertResponse, error) {
	if limit <= 0 {
		limit = defaultActiveAlertLimit
	}
	alerts, err := s.alertRepo.FindActive(ctx, limit)
	if err != nil {
		return nil, err
	}
	return ToAlertResponses(alerts), nil
}

// List returns alerts matching the filter
func (s *AlertService) List(ctx context.Context, filter AlertListFilter) ([]AlertResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Acknowledged != nil {
		domainFilter.Filters["acknowledged"] = *filter.Acknowledged
	}

	alerts, err := s.alertRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.alertRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToAlertResponses(alerts), total, nil
}

// Acknowledge marks an alert as handled
func (s *AlertService) Acknowledge(ctx context.Context, alertID uuid.UUID) (*AlertResponse, error) {
	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	if err := alert.Acknowledge(); err != nil {
		return nil, err
	}

	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}

	response := ToAlertResponse(alert)
	return &response, nil
}

// PruneAcknowledged removes acknowledged alerts older than the retention window
func (s *AlertService) PruneAcknowledged(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, shared.NewDomainError("INVALID_RETENTION", "Retention days must be positive")
	}
	before := time.Now().AddDate(0, 0, -retentionDays)
	return s.alertRepo.DeleteAcknowledgedOlderThan(ctx, before)
}
