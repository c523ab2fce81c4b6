// Package report generates downloadable PDF risk reports from dashboard data.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	infra "github.com/stocksense/backend/internal/infrastructure/report"
	"github.com/stocksense/backend/internal/infrastructure/storage"
)

const (
	reportKeyPrefix = "reports/"
	reportTitle     = "Stockout Risk Report"

	// Chrome substitutes pageNumber/totalPages spans in print footers
	reportFooterHTML = `<div style="font-size:9px;color:#616e7c;width:100%;text-align:center;">` +
		reportTitle + ` &mdash; page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
)

// DashboardSource supplies the data the report is built from
type DashboardSource interface {
	Dashboard(ctx context.Context) (*riskapp.DashboardResponse, error)
}

// RiskReportResponse describes a generated report
type RiskReportResponse struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int       `json:"size_bytes"`
	PageCount   int       `json:"page_count"`
	GeneratedAt time.Time `json:"generated_at"`

	// Data carries the PDF bytes for immediate download, never serialized
	Data []byte `json:"-"`
}

// ReportService renders the risk dashboard to PDF and archives the result
type ReportService struct {
	dashboard DashboardSource
	renderer  infra.PDFRenderer
	store     storage.ArtifactStore
	logger    *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	dashboard DashboardSource,
	renderer infra.PDFRenderer,
	store storage.ArtifactStore,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		dashboard: dashboard,
		renderer:  renderer,
		store:     store,
		logger:    logger,
	}
}

// GenerateRiskReport assembles the dashboard, renders it to PDF and stores
// the document under a timestamped key
func (s *ReportService) GenerateRiskReport(ctx context.Context) (*RiskReportResponse, error) {
	data, err := s.dashboard.Dashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble dashboard data: %w", err)
	}

	html, err := renderReportHTML(data)
	if err != nil {
		return nil, err
	}

	result, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:       html,
		Title:      reportTitle,
		Margins:    infra.DefaultMargins(),
		FooterHTML: reportFooterHTML,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render risk report: %w", err)
	}

	fileName := fmt.Sprintf("risk-report-%s.pdf", data.GeneratedAt.UTC().Format("20060102-150405"))
	key := reportKeyPrefix + fileName

	if err := s.store.Put(ctx, key, result.PDFData); err != nil {
		return nil, fmt.Errorf("failed to store risk report: %w", err)
	}

	s.logger.Info("risk report generated",
		zap.String("key", key),
		zap.Int("bytes", len(result.PDFData)),
		zap.Int("pages", result.PageCount))

	return &RiskReportResponse{
		Key:         key,
		FileName:    fileName,
		ContentType: "application/pdf",
		SizeBytes:   len(result.PDFData),
		PageCount:   result.PageCount,
		GeneratedAt: data.GeneratedAt,
		Data:        result.PDFData,
	}, nil
}

// GetRiskReport retrieves a previously generated report by key
func (s *ReportService) GetRiskReport(ctx context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, reportKeyPrefix) || strings.Contains(key, "..") {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid report key")
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load risk report: %w", err)
	}
	return data, nil
}
