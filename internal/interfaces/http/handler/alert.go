package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
)

const defaultActiveAlertLimit = 20

// AlertHandler handles risk alert requests
type AlertHandler struct {
	BaseHandler
	alertService *riskapp.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *riskapp.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List godoc
// @Summary      List alerts
// @Tags         alerts
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        acknowledged query bool false "Acknowledged filter"
// @Success      200 {object} dto.Response{data=[]riskapp.AlertResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	var filter riskapp.AlertListFilter
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

	alerts, total, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, alerts, total, filter.Page, filter.PageSize)
}

// ListActive godoc
// @Summary      List active alerts
// @Description  Unacknowledged alerts, newest first
// @Tags         alerts
// @Produce      json
// @Param        limit query int false "Max alerts" default(50)
// @Success      200 {object} dto.Response{data=[]riskapp.AlertResponse}
// @Security     BearerAuth
// @Router       /alerts/active [get]
func (h *AlertHandler) ListActive(c *gin.Context) {
	limit := defaultActiveAlertLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "Invalid limit, expected a value in [1, 100]")
			return
		}
		limit = parsed
	}

	alerts, err := h.alertService.ListActive(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alerts)
}

// Acknowledge godoc
// @Summary      Acknowledge an alert
// @Tags         alerts
// @Produce      json
// @Param        id path string true "Alert ID"
// @Success      200 {object} dto.Response{data=riskapp.AlertResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id}/acknowledge [post]
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID")
		return
	}

	alert, err := h.alertService.Acknowledge(c.Request.Context(), alertID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alert)
}

// RegisterRoutes registers alert routes
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	alerts := rg.Group("/alerts")
	{
		alerts.GET("", h.List)
		alerts.GET("/active", h.ListActive)
		alerts.POST("/:id/acknowledge", h.Acknowledge)
	}
}
