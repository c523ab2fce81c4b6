package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	infra "github.com/stocksense/backend/internal/infrastructure/report"
	"github.com/stocksense/backend/internal/infrastructure/storage"
)

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockArtifactStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type stubDashboardSource struct {
	data *riskapp.DashboardResponse
	err  error
}

func (s *stubDashboardSource) Dashboard(ctx context.Context) (*riskapp.DashboardResponse, error) {
	return s.data, s.err
}

func sampleDashboard() *riskapp.DashboardResponse {
	generated := time.Date(2026, 8, 29, 6, 30, 0, 0, time.UTC)
	return &riskapp.DashboardResponse{
		Summary: riskapp.DashboardSummary{
			TotalProducts:    42,
			HighRiskProducts: 7,
			RiskPercentage:   16.7,
			AverageScore:     0.413,
		},
		RiskDistribution: riskapp.RiskDistribution{Low: 25, Medium: 10, High: 7},
		TopRiskProducts: []riskapp.AssessmentResponse{
			{
				ID:           uuid.New(),
				ProductID:    uuid.New(),
				ProductCode:  "WIDGET-01",
				Score:        0.91,
				Band:         "high",
				HighRisk:     true,
				ModelVersion: "v3-random_forest",
				CreatedAt:    generated.Add(-2 * time.Hour),
			},
		},
		CategoryAnalysis: []risk.CategoryRisk{
			{Category: "electronics", MeanScore: 0.62, HighRiskCount: 4, ProductCount: 12},
		},
		PotentialLostSales: 15230.55,
		Alerts: []riskapp.AlertResponse{
			{
				ID:          uuid.New(),
				Type:        "critical_risk",
				ProductID:   uuid.New(),
				ProductCode: "WIDGET-01",
				Message:     "Stockout predicted within lead time",
				Priority:    "high",
				CreatedAt:   generated.Add(-1 * time.Hour),
			},
		},
		GeneratedAt: generated,
	}
}

func TestGenerateRiskReport(t *testing.T) {
	t.Run("renders, stores and returns the PDF", func(t *testing.T) {
		dashboard := &stubDashboardSource{data: sampleDashboard()}
		renderer := new(MockPDFRenderer)
		store := new(MockArtifactStore)
		service := NewReportService(dashboard, renderer, store, nil)

		pdf := []byte("%PDF-1.4 fake")
		var renderedHTML string
		renderer.On("Render", mock.Anything, mock.AnythingOfType("*report.RenderRequest")).
			Run(func(args mock.Arguments) {
				renderedHTML = args.Get(1).(*infra.RenderRequest).HTML
			}).
			Return(&infra.RenderResult{PDFData: pdf, PageCount: 2}, nil)
		store.On("Put", mock.Anything, "reports/risk-report-20260829-063000.pdf", pdf).Return(nil)

		resp, err := service.GenerateRiskReport(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "reports/risk-report-20260829-063000.pdf", resp.Key)
		assert.Equal(t, "risk-report-20260829-063000.pdf", resp.FileName)
		assert.Equal(t, "application/pdf", resp.ContentType)
		assert.Equal(t, len(pdf), resp.SizeBytes)
		assert.Equal(t, 2, resp.PageCount)
		assert.Equal(t, pdf, resp.Data)

		// The rendered document carries the dashboard content
		assert.Contains(t, renderedHTML, "Stockout Risk Report")
		assert.Contains(t, renderedHTML, "WIDGET-01")
		assert.Contains(t, renderedHTML, "electronics")
		assert.Contains(t, renderedHTML, "$15230.55")
		assert.Contains(t, renderedHTML, "16.7%")
		store.AssertExpectations(t)
	})

	t.Run("propagates dashboard failure", func(t *testing.T) {
		dashboard := &stubDashboardSource{err: assert.AnError}
		renderer := new(MockPDFRenderer)
		store := new(MockArtifactStore)
		service := NewReportService(dashboard, renderer, store, nil)

		_, err := service.GenerateRiskReport(context.Background())

		require.Error(t, err)
		renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	})

	t.Run("propagates render failure", func(t *testing.T) {
		dashboard := &stubDashboardSource{data: sampleDashboard()}
		renderer := new(MockPDFRenderer)
		store := new(MockArtifactStore)
		service := NewReportService(dashboard, renderer, store, nil)

		renderer.On("Render", mock.Anything, mock.Anything).
			Return(nil, infra.NewRenderError(infra.ErrCodeRenderFailed, "chrome crashed", nil))

		_, err := service.GenerateRiskReport(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to render risk report")
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("propagates storage failure", func(t *testing.T) {
		dashboard := &stubDashboardSource{data: sampleDashboard()}
		renderer := new(MockPDFRenderer)
		store := new(MockArtifactStore)
		service := NewReportService(dashboard, renderer, store, nil)

		renderer.On("Render", mock.Anything, mock.Anything).
			Return(&infra.RenderResult{PDFData: []byte("%PDF"), PageCount: 1}, nil)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := service.GenerateRiskReport(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to store risk report")
	})
}

func TestGetRiskReport(t *testing.T) {
	t.Run("returns stored report", func(t *testing.T) {
		store := new(MockArtifactStore)
		service := NewReportService(nil, nil, store, nil)

		pdf := []byte("%PDF-1.4")
		store.On("Get", mock.Anything, "reports/risk-report-20260829-063000.pdf").Return(pdf, nil)

		data, err := service.GetRiskReport(context.Background(), "reports/risk-report-20260829-063000.pdf")

		require.NoError(t, err)
		assert.Equal(t, pdf, data)
	})

	t.Run("rejects keys outside the report prefix", func(t *testing.T) {
		store := new(MockArtifactStore)
		service := NewReportService(nil, nil, store, nil)

		for _, key := range []string{"models/v1.bin", "reports/../models/v1.bin", ""} {
			_, err := service.GetRiskReport(context.Background(), key)

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		}
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("maps missing artifact to not found", func(t *testing.T) {
		store := new(MockArtifactStore)
		service := NewReportService(nil, nil, store, nil)

		store.On("Get", mock.Anything, mock.Anything).Return(nil, storage.ErrArtifactNotFound)

		_, err := service.GetRiskReport(context.Background(), "reports/missing.pdf")

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
