package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportapp "github.com/stocksense/backend/internal/application/report"
	riskapp "github.com/stocksense/backend/internal/application/risk"
)

// DashboardHandler handles dashboard and report export requests
type DashboardHandler struct {
	BaseHandler
	dashboardService *riskapp.DashboardService
	reportService    *reportapp.ReportService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *riskapp.DashboardService, reportService *reportapp.ReportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		reportService:    reportService,
	}
}

// Dashboard godoc
// @Summary      Risk dashboard
// @Description  Totals, risk distribution, top risks, category analysis and active alerts
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=riskapp.DashboardResponse}
// @Security     BearerAuth
// @Router       /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	resp, err := h.dashboardService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GenerateReport godoc
// @Summary      Generate a PDF risk report
// @Description  Render the current dashboard as a PDF and archive it
// @Tags         reports
// @Produce      json
// @Success      201 {object} dto.Response{data=reportapp.RiskReportResponse}
// @Security     BearerAuth
// @Router       /reports/risk [post]
func (h *DashboardHandler) GenerateReport(c *gin.Context) {
	report, err := h.reportService.GenerateRiskReport(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, report)
}

// DownloadReport godoc
// @Summary      Download a generated report
// @Tags         reports
// @Produce      application/pdf
// @Param        fileName path string true "Report file name"
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/risk/{fileName} [get]
func (h *DashboardHandler) DownloadReport(c *gin.Context) {
	fileName := c.Param("fileName")
	if fileName == "" || strings.ContainsAny(fileName, "/\\") {
		h.BadRequest(c, "Invalid report file name")
		return
	}

	data, err := h.reportService.GetRiskReport(c.Request.Context(), "reports/"+fileName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", data)
}

// RegisterRoutes registers dashboard and report routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)

	reports := rg.Group("/reports")
	{
		reports.POST("/risk", h.GenerateReport)
		reports.GET("/risk/:fileName", h.DownloadReport)
	}
}
