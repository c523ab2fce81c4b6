package risk

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocksense/backend/internal/domain/risk"
)

// AssessProductRequest asks for an assessment of a stored product
type AssessProductRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// AdhocAssessRequest carries an arbitrary product payload to score without
// persisting anything. Omitted fields fall back to neutral defaults.
type AdhocAssessRequest struct {
	ProductCode       string   `json:"product_code"`
	CurrentStock      int      `json:"current_stock" binding:"min=0"`
	AvgDailyDemand    *float64 `json:"avg_daily_demand" binding:"omitempty,gt=0"`
	DemandStd         *float64 `json:"demand_std" binding:"omitempty,gte=0"`
	MaxDailyDemand    *float64 `json:"max_daily_demand" binding:"omitempty,gte=0"`
	LeadTimeDays      *int     `json:"lead_time_days" binding:"omitempty,gt=0"`
	MinStock          *int     `json:"min_stock" binding:"omitempty,gte=0"`
	Price             *float64 `json:"price" binding:"omitempty,gte=0"`
	Category          string   `json:"category"`
	Subcategory       string   `json:"subcategory"`
	SeasonalFactor    *float64 `json:"seasonal_factor" binding:"omitempty,gt=0"`
	TotalStockouts    int      `json:"total_stockouts" binding:"min=0"`
	WeekendSalesRatio *float64 `json:"weekend_sales_ratio" binding:"omitempty,gte=0,lte=1"`
	HolidaySalesRatio *float64 `json:"holiday_sales_ratio" binding:"omitempty,gte=0,lte=1"`
	DaysSinceRestock  int      `json:"days_since_restock" binding:"min=0"`
}

// AssessmentResponse represents a persisted assessment in API responses
type AssessmentResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductCode     string    `json:"product_code"`
	Score           float64   `json:"score"`
	Band            string    `json:"band"`
	HighRisk        bool      `json:"high_risk"`
	ModelVersion    string    `json:"model_version"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

// AdhocAssessmentResponse is the result of scoring an ad-hoc payload
type AdhocAssessmentResponse struct {
	ProductCode     string   `json:"product_code,omitempty"`
	Score           float64  `json:"score"`
	Band            string   `json:"band"`
	HighRisk        bool     `json:"high_risk"`
	ModelVersion    string   `json:"model_version"`
	StockDays       float64  `json:"stock_days"`
	Recommendations []string `json:"recommendations"`
}

// BatchAssessmentResponse summarises a full assessment sweep
type BatchAssessmentResponse struct {
	Total         int                  `json:"total"`
	HighRiskCount int                  `json:"high_risk_count"`
	ModelVersion  string               `json:"model_version"`
	Assessments   []AssessmentResponse `json:"assessments"`
}

// AssessmentListFilter filters assessment queries
type AssessmentListFilter struct {
	Band     string `form:"band" binding:"omitempty,oneof=low medium high"`
	HighRisk *bool  `form:"high_risk"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TrainRequest controls a training run
type TrainRequest struct {
	Families []string `json:"families" binding:"omitempty,dive,oneof=logistic random_forest"`
	Seed     int64    `json:"seed"`
	Activate bool     `json:"activate"`
}

// CandidateResult reports how one model family fared during training
type CandidateResult struct {
	Family   string  `json:"family"`
	AUC      float64 `json:"auc,omitempty"`
	Accuracy float64 `json:"accuracy,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// TrainResult is the outcome of a training run
type TrainResult struct {
	Best       ModelVersionResponse `json:"best"`
	Candidates []CandidateResult    `json:"candidates"`
	Samples    int                  `json:"samples"`
}

// ModelVersionResponse represents a registered model version
type ModelVersionResponse struct {
	ID          uuid.UUID `json:"id"`
	Version     string    `json:"version"`
	Family      string    `json:"family"`
	AUC         float64   `json:"auc"`
	Accuracy    float64   `json:"accuracy"`
	SampleCount int       `json:"sample_count"`
	Status      string    `json:"status"`
	TrainedAt   time.Time `json:"trained_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// ModelListFilter filters model registry queries
type ModelListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=candidate active retired"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AlertResponse represents an alert in API responses
type AlertResponse struct {
	ID             uuid.UUID  `json:"id"`
	Type           string     `json:"type"`
	ProductID      uuid.UUID  `json:"product_id"`
	ProductCode    string     `json:"product_code"`
	Message        string     `json:"message"`
	Priority       string     `json:"priority"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AlertListFilter filters alert queries
type AlertListFilter struct {
	Type         string `form:"type" binding:"omitempty,oneof=critical_risk low_stock"`
	Acknowledged *bool  `form:"acknowledged"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DashboardSummary is the headline block of the dashboard
type DashboardSummary struct {
	TotalProducts    int64   `json:"total_products"`
	HighRiskProducts int64   `json:"high_risk_products"`
	RiskPercentage   float64 `json:"risk_percentage"`
	AverageScore     float64 `json:"average_score"`
}

// RiskDistribution counts products per risk band
type RiskDistribution struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

// DashboardResponse aggregates everything the dashboard renders
type DashboardResponse struct {
	Summary            DashboardSummary    `json:"summary"`
	RiskDistribution   RiskDistribution    `json:"risk_distribution"`
	TopRiskProducts    []AssessmentResponse `json:"top_risk_products"`
	CategoryAnalysis   []risk.CategoryRisk `json:"category_analysis"`
	PotentialLostSales float64             `json:"potential_lost_sales"`
	Alerts             []AlertResponse     `json:"alerts"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// KeyFactor describes one driver behind a risk assessment
type KeyFactor struct {
	Factor      string `json:"factor"`
	Value       string `json:"value"`
	Status      string `json:"status"`
	Impact      string `json:"impact"`
	Explanation string `json:"explanation"`
}

// ExplanationResponse explains a product's latest assessment
type ExplanationResponse struct {
	ProductID   uuid.UUID   `json:"product_id"`
	ProductCode string      `json:"product_code"`
	Score       float64     `json:"score"`
	Band        string      `json:"band"`
	KeyFactors  []KeyFactor `json:"key_factors"`
	Narrative   string      `json:"narrative"`
	Suggestions []string    `json:"suggestions"`
	Source      string      `json:"source"` // "deterministic" or "llm"
}

// ToAssessmentResponse converts a domain assessment to its response form
func ToAssessmentResponse(assessment *risk.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:              assessment.ID,
		ProductID:       assessment.ProductID,
		ProductCode:     assessment.ProductCode,
		Score:           assessment.Score,
		Band:            string(assessment.Band),
		HighRisk:        assessment.HighRisk,
		ModelVersion:    assessment.ModelVersion,
		Recommendations: decodeRecommendations(assessment.Recommendations),
		CreatedAt:       assessment.CreatedAt,
	}
}

// ToAssessmentResponses converts a list of assessments
func ToAssessmentResponses(assessments []risk.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, len(assessments))
	for i := range assessments {
		responses[i] = ToAssessmentResponse(&assessments[i])
	}
	return responses
}

// ToModelVersionResponse converts a domain model version to its response form
func ToModelVersionResponse(model *risk.ModelVersion) ModelVersionResponse {
	return ModelVersionResponse{
		ID:          model.ID,
		Version:     model.Version,
		Family:      string(model.Family),
		AUC:         model.AUC,
		Accuracy:    model.Accuracy,
		SampleCount: model.SampleCount,
		Status:      string(model.Status),
		TrainedAt:   model.TrainedAt,
		CreatedAt:   model.CreatedAt,
	}
}

// ToModelVersionResponses converts a list of model versions
func ToModelVersionResponses(models []risk.ModelVersion) []ModelVersionResponse {
	responses := make([]ModelVersionResponse, len(models))
	for i := range models {
		responses[i] = ToModelVersionResponse(&models[i])
	}
	return responses
}

// ToAlertResponse converts a domain alert to its response form
func ToAlertResponse(alert *risk.Alert) AlertResponse {
	return AlertResponse{
		ID:             alert.ID,
		Type:           string(alert.Type),
		ProductID:      alert.ProductID,
		ProductCode:    alert.ProductCode,
		Message:        alert.Message,
		Priority:       string(alert.Priority),
		Acknowledged:   alert.Acknowledged,
		AcknowledgedAt: alert.AcknowledgedAt,
		CreatedAt:      alert.CreatedAt,
	}
}

// ToAlertResponses converts a list of alerts
func ToAlertResponses(alerts []risk.Alert) []AlertResponse {
	responses := make([]AlertResponse, len(alerts))
	for i := range alerts {
		responses[i] = ToAlertResponse(&alerts[i])
	}
	return responses
}
