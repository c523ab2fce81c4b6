package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
)

// RiskHandler handles stockout risk assessment requests
type RiskHandler struct {
	BaseHandler
	predictionService *riskapp.PredictionService
	explainerService  *riskapp.ExplainerService
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(predictionService *riskapp.PredictionService, explainerService *riskapp.ExplainerService) *RiskHandler {
	return &RiskHandler{
		predictionService: predictionService,
		explainerService:  explainerService,
	}
}

// AssessProduct godoc
// @Summary      Assess a tracked product
// @Description  Score a product's stockout risk and persist the assessment
// @Tags         risk
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=riskapp.AssessmentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /risk/assess/{productId} [post]
func (h *RiskHandler) AssessProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.predictionService.AssessProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssessAdhoc godoc
// @Summary      Assess an ad-hoc payload
// @Description  Score an arbitrary feature snapshot without persisting anything
// @Tags         risk
// @Accept       json
// @Produce      json
// @Param        request body riskapp.AdhocAssessRequest true "Feature snapshot"
// @Success      200 {object} dto.Response{data=riskapp.AdhocAssessmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /risk/assess [post]
func (h *RiskHandler) AssessAdhoc(c *gin.Context) {
	var req riskapp.AdhocAssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.predictionService.AssessAdhoc(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssessAll godoc
// @Summary      Assess all active products
// @Description  Batch-score every active product, sorted by risk descending
// @Tags         risk
// @Produce      json
// @Success      200 {object} dto.Response{data=riskapp.BatchAssessmentResponse}
// @Security     BearerAuth
// @Router       /risk/assess-all [post]
func (h *RiskHandler) AssessAll(c *gin.Context) {
	resp, err := h.predictionService.AssessAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListAssessments godoc
// @Summary      List latest assessments
// @Description  Latest assessment per product with pagination
// @Tags         risk
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        band query string false "Risk band filter" Enums(low, medium, high)
// @Success      200 {object} dto.Response{data=[]riskapp.AssessmentResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /risk/assessments [get]
func (h *RiskHandler) ListAssessments(c *gin.Context) {
	var filter riskapp.AssessmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	assessments, err := h.predictionService.ListLatest(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, assessments)
}

// GetAssessment godoc
// @Summary      Latest assessment for a product
// @Tags         risk
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=riskapp.AssessmentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /risk/assessments/{productId} [get]
func (h *RiskHandler) GetAssessment(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.predictionService.GetLatest(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssessmentHistory godoc
// @Summary      Assessment history for a product
// @Tags         risk
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]riskapp.AssessmentResponse}
// @Security     BearerAuth
// @Router       /risk/assessments/{productId}/history [get]
func (h *RiskHandler) AssessmentHistory(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var filter riskapp.AssessmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	assessments, err := h.predictionService.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, assessments)
}

// HighRisk godoc
// @Summary      List high-risk products
// @Description  Products whose latest score is at or above the given threshold
// @Tags         risk
// @Produce      json
// @Param        threshold query number false "Score threshold" default(0.7)
// @Success      200 {object} dto.Response{data=[]riskapp.AssessmentResponse}
// @Security     BearerAuth
// @Router       /risk/high-risk [get]
func (h *RiskHandler) HighRisk(c *gin.Context) {
	threshold := risk.BandHighThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			h.BadRequest(c, "Invalid threshold, expected a value in [0, 1]")
			return
		}
		threshold = parsed
	}

	assessments, err := h.predictionService.HighRisk(c.Request.Context(), threshold)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, assessments)
}

// Explain godoc
// @Summary      Explain a product's latest score
// @Description  Key factors, narrative and improvement suggestions
// @Tags         risk
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=riskapp.ExplanationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /risk/explanations/{productId} [get]
func (h *RiskHandler) Explain(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.explainerService.Explain(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers risk assessment routes
func (h *RiskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	riskGroup := rg.Group("/risk")
	{
		riskGroup.POST("/assess", h.AssessAdhoc)
		riskGroup.POST("/assess-all", h.AssessAll)
		riskGroup.POST("/assess/:productId", h.AssessProduct)
		riskGroup.GET("/assessments", h.ListAssessments)
		riskGroup.GET("/assessments/:productId", h.GetAssessment)
		riskGroup.GET("/assessments/:productId/history", h.AssessmentHistory)
		riskGroup.GET("/high-risk", h.HighRisk)
		riskGroup.GET("/explanations/:productId", h.Explain)
	}
}
