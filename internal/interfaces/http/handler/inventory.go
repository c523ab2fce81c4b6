package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/stocksense/backend/internal/application/inventory"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
)

// demandHistoryDefaultWindow bounds unqualified history queries
const demandHistoryDefaultWindow = 90 * 24 * time.Hour

// InventoryHandler handles inventory level and demand history requests
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
	demandService    *inventoryapp.DemandService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService, demandService *inventoryapp.DemandService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		demandService:    demandService,
	}
}

// Create godoc
// @Summary      Start tracking stock for a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateInventoryLevelRequest true "Inventory level"
// @Success      201 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory [post]
func (h *InventoryHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateInventoryLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.inventoryService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @Summary      List inventory levels
// @Tags         inventory
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]inventoryapp.InventoryLevelResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var filter inventoryapp.InventoryListFilter
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

	levels, total, err := h.inventoryService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, levels, total, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get a product's inventory level
// @Tags         inventory
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.inventoryService.GetByProductID(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListBelowMinimum godoc
// @Summary      List levels below minimum stock
// @Tags         inventory
// @Produce      json
// @Success      200 {object} dto.Response{data=[]inventoryapp.InventoryLevelResponse}
// @Security     BearerAuth
// @Router       /inventory/below-minimum [get]
func (h *InventoryHandler) ListBelowMinimum(c *gin.Context) {
	levels, err := h.inventoryService.ListBelowMinimum(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, levels)
}

// Restock godoc
// @Summary      Record a replenishment delivery
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request body inventoryapp.RestockRequest true "Delivered quantity"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId}/restock [post]
func (h *InventoryHandler) Restock(c *gin.Context) {
	var req inventoryapp.RestockRequest
	h.mutateStock(c, &req, func(ctx context.Context, productID uuid.UUID) (*inventoryapp.InventoryLevelResponse, error) {
		return h.inventoryService.Restock(ctx, productID, req)
	})
}

// Consume godoc
// @Summary      Record a stock deduction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request body inventoryapp.ConsumeRequest true "Consumed quantity"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId}/consume [post]
func (h *InventoryHandler) Consume(c *gin.Context) {
	var req inventoryapp.ConsumeRequest
	h.mutateStock(c, &req, func(ctx context.Context, productID uuid.UUID) (*inventoryapp.InventoryLevelResponse, error) {
		return h.inventoryService.Consume(ctx, productID, req)
	})
}

// Adjust godoc
// @Summary      Record a stocktake correction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request body inventoryapp.AdjustRequest true "Counted quantity and reason"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId}/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventoryapp.AdjustRequest
	h.mutateStock(c, &req, func(ctx context.Context, productID uuid.UUID) (*inventoryapp.InventoryLevelResponse, error) {
		return h.inventoryService.Adjust(ctx, productID, req)
	})
}

// UpdateThresholds godoc
// @Summary      Update minimum stock and reorder point
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        request body inventoryapp.UpdateThresholdsRequest true "New thresholds"
// @Success      200 {object} dto.Response{data=inventoryapp.InventoryLevelResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/{productId}/thresholds [put]
func (h *InventoryHandler) UpdateThresholds(c *gin.Context) {
	var req inventoryapp.UpdateThresholdsRequest
	h.mutateStock(c, &req, func(ctx context.Context, productID uuid.UUID) (*inventoryapp.InventoryLevelResponse, error) {
		return h.inventoryService.UpdateThresholds(ctx, productID, req)
	})
}

func (h *InventoryHandler) mutateStock(c *gin.Context, req any, op func(ctx context.Context, productID uuid.UUID) (*inventoryapp.InventoryLevelResponse, error)) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := op(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecordDemand godoc
// @Summary      Record one day of observed demand
// @Tags         demand
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.RecordDemandRequest true "Demand observation"
// @Success      201 {object} dto.Response{data=inventoryapp.DemandRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /demand [post]
func (h *InventoryHandler) RecordDemand(c *gin.Context) {
	var req inventoryapp.RecordDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.demandService.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// DemandHistory godoc
// @Summary      Demand records for a product
// @Tags         demand
// @Produce      json
// @Param        productId path string true "Product ID"
// @Param        from query string false "Start date (YYYY-MM-DD)"
// @Param        to query string false "End date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]inventoryapp.DemandRecordResponse}
// @Security     BearerAuth
// @Router       /demand/{productId} [get]
func (h *InventoryHandler) DemandHistory(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	to := time.Now().UTC()
	from := to.Add(-demandHistoryDefaultWindow)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.BadRequest(c, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.BadRequest(c, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}
	if to.Before(from) {
		h.BadRequest(c, "Date range is inverted")
		return
	}

	records, err := h.demandService.History(c.Request.Context(), productID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// DemandStats godoc
// @Summary      Aggregated demand statistics for a product
// @Tags         demand
// @Produce      json
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=inventoryapp.DemandStatsResponse}
// @Security     BearerAuth
// @Router       /demand/{productId}/stats [get]
func (h *InventoryHandler) DemandStats(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	stats, err := h.demandService.Stats(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RegisterRoutes registers inventory and demand routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.POST("", h.Create)
		inv.GET("", h.List)
		inv.GET("/below-minimum", h.ListBelowMinimum)
		inv.GET("/:productId", h.Get)
		inv.POST("/:productId/restock", h.Restock)
		inv.POST("/:productId/consume", h.Consume)
		inv.POST("/:productId/adjust", h.Adjust)
		inv.PUT("/:productId/thresholds", h.UpdateThresholds)
	}

	demand := rg.Group("/demand")
	{
		demand.POST("", h.RecordDemand)
		demand.GET("/:productId", h.DemandHistory)
		demand.GET("/:productId/stats", h.DemandStats)
	}
}
