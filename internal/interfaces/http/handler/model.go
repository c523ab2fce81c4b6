package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
)

// ModelHandler handles model training and lifecycle requests
type ModelHandler struct {
	BaseHandler
	trainingService   *riskapp.TrainingService
	predictionService *riskapp.PredictionService
}

// NewModelHandler creates a new model handler
func NewModelHandler(trainingService *riskapp.TrainingService, predictionService *riskapp.PredictionService) *ModelHandler {
	return &ModelHandler{
		trainingService:   trainingService,
		predictionService: predictionService,
	}
}

// Train godoc
// @Summary      Train a new model version
// @Description  Train candidate model families and register the best by AUC
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request body riskapp.TrainRequest false "Training options"
// @Success      201 {object} dto.Response{data=riskapp.ModelVersionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /models/train [post]
func (h *ModelHandler) Train(c *gin.Context) {
	// An empty body trains the default families.
	var req riskapp.TrainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.trainingService.Train(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @Summary      List model versions
// @Tags         models
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]riskapp.ModelVersionResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /models [get]
func (h *ModelHandler) List(c *gin.Context) {
	var filter riskapp.ModelListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	models, total, err := h.trainingService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, models, total, filter.Page, filter.PageSize)
}

// GetActive godoc
// @Summary      Get the active model version
// @Tags         models
// @Produce      json
// @Success      200 {object} dto.Response{data=riskapp.ModelVersionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /models/active [get]
func (h *ModelHandler) GetActive(c *gin.Context) {
	model, err := h.trainingService.GetActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, model)
}

// Activate godoc
// @Summary      Activate a model version
// @Description  Promote a candidate model to active, retiring the previous one
// @Tags         models
// @Produce      json
// @Param        id path string true "Model version ID"
// @Success      200 {object} dto.Response{data=riskapp.ModelVersionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /models/{id}/activate [post]
func (h *ModelHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.trainingService.Activate, true)
}

// Retire godoc
// @Summary      Retire a model version
// @Tags         models
// @Produce      json
// @Param        id path string true "Model version ID"
// @Success      200 {object} dto.Response{data=riskapp.ModelVersionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /models/{id}/retire [post]
func (h *ModelHandler) Retire(c *gin.Context) {
	h.lifecycle(c, h.trainingService.Retire, false)
}

func (h *ModelHandler) lifecycle(c *gin.Context, op func(ctx context.Context, modelID uuid.UUID) (*riskapp.ModelVersionResponse, error), reload bool) {
	modelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid model ID")
		return
	}

	model, err := op(c.Request.Context(), modelID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Scoring must pick up the new active model without a restart.
	if reload {
		h.predictionService.ReloadModel()
	}

	h.Success(c, model)
}

// RegisterRoutes registers model lifecycle routes
func (h *ModelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	models := rg.Group("/models")
	{
		models.POST("/train", h.Train)
		models.GET("", h.List)
		models.GET("/active", h.GetActive)
		models.POST("/:id/activate", h.Activate)
		models.POST("/:id/retire", h.Retire)
	}
}
