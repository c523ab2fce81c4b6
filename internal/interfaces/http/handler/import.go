package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	importapp "github.com/stocksense/backend/internal/application/import"
	"github.com/stocksense/backend/internal/domain/bulk"
	csvimport "github.com/stocksense/backend/internal/infrastructure/import"
	"github.com/stocksense/backend/internal/interfaces/http/dto"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const (
	maxImportFileSize = 10 << 20 // 10MB
	maxImportWarnings = 100
	validRowsTTL      = 15 * time.Minute
	sessionTTL        = 15 * time.Minute
)

// storedRows holds validated rows awaiting import
type storedRows struct {
	rows     []*csvimport.Row
	storedAt time.Time
}

// ImportHandler handles the two-phase CSV import flow: validate, then import.
type ImportHandler struct {
	BaseHandler
	productImport   *importapp.ProductImportService
	inventoryImport *importapp.InventoryImportService
	demandImport    *importapp.DemandImportService
	historyService  *importapp.ImportHistoryService
	sessionStore    csvimport.SessionStore
	logger          *zap.Logger

	mu             sync.RWMutex
	validRowsStore map[uuid.UUID]storedRows
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewImportHandler creates a new import handler
func NewImportHandler(
	productImport *importapp.ProductImportService,
	inventoryImport *importapp.InventoryImportService,
	demandImport *importapp.DemandImportService,
	historyService *importapp.ImportHistoryService,
	logger *zap.Logger,
) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &ImportHandler{
		productImport:   productImport,
		inventoryImport: inventoryImport,
		demandImport:    demandImport,
		historyService:  historyService,
		sessionStore:    csvimport.NewInMemorySessionStore(sessionTTL),
		logger:          logger,
		validRowsStore:  make(map[uuid.UUID]storedRows),
		stopCh:          make(chan struct{}),
	}
	go h.cleanupLoop()
	return h
}

// Stop terminates the background cleanup goroutine
func (h *ImportHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	if store, ok := h.sessionStore.(*csvimport.InMemorySessionStore); ok {
		store.Stop()
	}
}

func (h *ImportHandler) cleanupLoop() {
	ticker := time.NewTicker(validRowsTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-validRowsTTL)
			h.mu.Lock()
			for id, stored := range h.validRowsStore {
				if stored.storedAt.Before(cutoff) {
					delete(h.validRowsStore, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// openImportFile extracts and checks the uploaded CSV from the multipart form
func (h *ImportHandler) openImportFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return nil, nil, false
	}

	if header.Size > maxImportFileSize {
		file.Close()
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "file exceeds maximum size of 10MB")
		return nil, nil, false
	}

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel":
	default:
		file.Close()
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeValidation, "file must be a CSV file")
		return nil, nil, false
	}

	return file, header, true
}

// validate runs the shared validation flow for one entity type.
// warnFunc may be nil for entities without soft warnings.
func (h *ImportHandler) validate(
	c *gin.Context,
	entityType csvimport.EntityType,
	rules []csvimport.FieldRule,
	processor *csvimport.ImportProcessor,
	warnFunc func(row *csvimport.Row) []string,
) {
	ctx := c.Request.Context()

	file, header, ok := h.openImportFile(c)
	if !ok {
		return
	}
	defer file.Close()

	session := csvimport.NewImportSession(entityType, header.Filename, header.Size)

	result, err := processor.Validate(ctx, session, file, rules)
	if err != nil {
		switch err {
		case csvimport.ErrEmptyFile:
			h.BadRequest(c, "CSV file is empty")
		case csvimport.ErrInvalidEncoding:
			h.BadRequest(c, "CSV file has invalid encoding, must be UTF-8")
		case csvimport.ErrMissingHeader:
			h.BadRequest(c, "CSV file is missing header row")
		default:
			h.InternalError(c, "failed to validate file: "+err.Error())
		}
		return
	}

	// The validation pass consumed the reader; parse again to collect
	// rows that passed for the import phase.
	validRows, warnings, err := h.collectValidRows(file, result, warnFunc)
	if err != nil {
		h.logger.Error("Failed to collect valid rows", zap.Error(err))
		h.InternalError(c, "Failed to process file")
		return
	}

	if len(validRows) > 0 {
		h.mu.Lock()
		h.validRowsStore[session.ID] = storedRows{rows: validRows, storedAt: time.Now()}
		h.mu.Unlock()
	}

	if err := h.sessionStore.Save(session); err != nil {
		h.InternalError(c, "failed to save import session")
		return
	}

	h.Success(c, dto.ImportValidateResponse{
		ValidationID: result.ValidationID,
		TotalRows:    result.TotalRows,
		ValidRows:    result.ValidRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		Preview:      result.Preview,
		Warnings:     warnings,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

func (h *ImportHandler) collectValidRows(
	file multipart.File,
	result *csvimport.ValidationResult,
	warnFunc func(row *csvimport.Row) []string,
) ([]*csvimport.Row, []string, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	parser, err := csvimport.NewCSVParser(file)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}

	errorRows := make(map[int]bool, len(result.Errors))
	for _, e := range result.Errors {
		errorRows[e.Row] = true
	}

	var validRows []*csvimport.Row
	var warnings []string
	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if row.IsEmpty() || errorRows[row.LineNumber] {
			continue
		}

		validRows = append(validRows, row)
		if warnFunc != nil && len(warnings) < maxImportWarnings {
			for _, w := range warnFunc(row) {
				if len(warnings) >= maxImportWarnings {
					break
				}
				warnings = append(warnings, w)
			}
		}
	}

	return validRows, warnings, nil
}

// takeSession resolves a validation ID to its session and stored rows
func (h *ImportHandler) takeSession(c *gin.Context, validationID string, entityType csvimport.EntityType) (*csvimport.ImportSession, []*csvimport.Row, bool) {
	id, err := uuid.Parse(validationID)
	if err != nil {
		h.BadRequest(c, "Invalid validation_id")
		return nil, nil, false
	}

	session, err := h.sessionStore.Get(id)
	if err != nil {
		h.InternalError(c, "failed to retrieve session")
		return nil, nil, false
	}
	if session == nil {
		h.NotFound(c, "Import session not found or expired")
		return nil, nil, false
	}
	if session.EntityType != entityType {
		h.BadRequest(c, fmt.Sprintf("Validation session is for %s, not %s", session.EntityType, entityType))
		return nil, nil, false
	}
	if session.State != csvimport.StateValidated {
		h.BadRequest(c, "Session must be validated before import. Current state: "+string(session.State))
		return nil, nil, false
	}

	h.mu.RLock()
	stored := h.validRowsStore[id]
	h.mu.RUnlock()

	if len(stored.rows) == 0 {
		h.BadRequest(c, "No valid rows found for import. Please re-validate the file.")
		return nil, nil, false
	}

	return session, stored.rows, true
}

func (h *ImportHandler) finishImport(c *gin.Context, session *csvimport.ImportSession, result *importapp.ImportResult, importErr error, historyID uuid.UUID) {
	ctx := c.Request.Context()

	if importErr != nil {
		if err := h.historyService.FailImport(ctx, historyID, nil); err != nil {
			h.logger.Error("Failed to record import failure", zap.Error(err))
		}
		h.HandleError(c, importErr)
		return
	}

	if err := h.historyService.CompleteImport(ctx, historyID, result); err != nil {
		h.logger.Error("Failed to record import completion", zap.Error(err))
	}

	h.mu.Lock()
	delete(h.validRowsStore, session.ID)
	h.mu.Unlock()

	if err := h.sessionStore.Save(session); err != nil {
		h.logger.Warn("Failed to persist session state", zap.Error(err))
	}

	h.Success(c, dto.ImportResultResponse{
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		UpdatedRows:  result.UpdatedRows,
		SkippedRows:  result.SkippedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// beginHistory opens an import history record and marks it processing
func (h *ImportHandler) beginHistory(c *gin.Context, session *csvimport.ImportSession, entityType bulk.ImportEntityType, conflictMode bulk.ConflictMode, totalRows int) (uuid.UUID, bool) {
	ctx := c.Request.Context()

	history, err := h.historyService.CreateHistory(ctx, entityType, session.FileName, session.FileSize, conflictMode)
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	if err := h.historyService.StartProcessing(ctx, history.ID, totalRows); err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return history.ID, true
}

// ValidateProducts godoc
// @Summary      Validate a product CSV
// @Description  Upload a CSV, validate each row and open an import session
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=dto.ImportValidateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/products/validate [post]
func (h *ImportHandler) ValidateProducts(c *gin.Context) {
	ctx := c.Request.Context()

	processor := csvimport.NewImportProcessor(
		csvimport.WithUniqueLookup(func(entityType, field, value string) (bool, error) {
			return h.productImport.LookupUnique(ctx, field, value)
		}),
	)

	h.validate(c, csvimport.EntityProducts, h.productImport.GetValidationRules(), processor, h.productImport.ValidateWithWarnings)
}

// ImportProducts godoc
// @Summary      Import validated products
// @Description  Apply a validated product session with the chosen conflict mode
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportRequest true "Validation session and conflict mode"
// @Success      200 {object} dto.Response{data=dto.ImportResultResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/products [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	conflictMode := bulk.ConflictMode(req.ConflictMode)
	if !conflictMode.IsValid() {
		h.BadRequest(c, "Invalid conflict_mode, must be one of: skip, update, fail")
		return
	}

	session, validRows, ok := h.takeSession(c, req.ValidationID, csvimport.EntityProducts)
	if !ok {
		return
	}

	historyID, ok := h.beginHistory(c, session, bulk.ImportEntityProducts, conflictMode, len(validRows))
	if !ok {
		return
	}

	result, err := h.productImport.Import(c.Request.Context(), session, validRows, conflictMode)
	h.finishImport(c, session, result, err, historyID)
}

// ValidateInventory godoc
// @Summary      Validate an inventory CSV
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=dto.ImportValidateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/inventory/validate [post]
func (h *ImportHandler) ValidateInventory(c *gin.Context) {
	ctx := c.Request.Context()

	processor := csvimport.NewImportProcessor(
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType == "product" {
				return h.inventoryImport.LookupProduct(ctx, value)
			}
			return true, nil
		}),
	)

	h.validate(c, csvimport.EntityInventory, h.inventoryImport.GetValidationRules(), processor, nil)
}

// ImportInventory godoc
// @Summary      Import validated inventory levels
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.ImportRequest true "Validation session and conflict mode"
// @Success      200 {object} dto.Response{data=dto.ImportResultResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/inventory [post]
func (h *ImportHandler) ImportInventory(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	conflictMode := bulk.ConflictMode(req.ConflictMode)
	if !conflictMode.IsValid() {
		h.BadRequest(c, "Invalid conflict_mode, must be one of: skip, update, fail")
		return
	}

	session, validRows, ok := h.takeSession(c, req.ValidationID, csvimport.EntityInventory)
	if !ok {
		return
	}

	historyID, ok := h.beginHistory(c, session, bulk.ImportEntityInventory, conflictMode, len(validRows))
	if !ok {
		return
	}

	result, err := h.inventoryImport.Import(c.Request.Context(), session, validRows, conflictMode)
	h.finishImport(c, session, result, err, historyID)
}

// ValidateDemand godoc
// @Summary      Validate a demand history CSV
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=dto.ImportValidateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/demand/validate [post]
func (h *ImportHandler) ValidateDemand(c *gin.Context) {
	ctx := c.Request.Context()

	processor := csvimport.NewImportProcessor(
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType == "product" {
				return h.demandImport.LookupProduct(ctx, value)
			}
			return true, nil
		}),
	)

	h.validate(c, csvimport.EntityDemand, h.demandImport.GetValidationRules(), processor, nil)
}

// ImportDemand godoc
// @Summary      Import validated demand history
// @Description  Demand history is append-only, so there is no conflict mode
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        request body dto.DemandImportRequest true "Validation session"
// @Success      200 {object} dto.Response{data=dto.ImportResultResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/demand [post]
func (h *ImportHandler) ImportDemand(c *gin.Context) {
	var req dto.DemandImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	session, validRows, ok := h.takeSession(c, req.ValidationID, csvimport.EntityDemand)
	if !ok {
		return
	}

	historyID, ok := h.beginHistory(c, session, bulk.ImportEntityDemand, bulk.ConflictModeSkip, len(validRows))
	if !ok {
		return
	}

	result, err := h.demandImport.Import(c.Request.Context(), session, validRows)
	h.finishImport(c, session, result, err, historyID)
}

// ListHistory godoc
// @Summary      List import history
// @Tags         imports
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        entity_type query string false "Entity type" Enums(products, inventory, demand)
// @Param        status query string false "Import status"
// @Success      200 {object} dto.Response{data=[]bulk.ImportHistory,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /import/history [get]
func (h *ImportHandler) ListHistory(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := importapp.ListHistoryFilter{
		EntityType: c.Query("entity_type"),
		Status:     c.Query("status"),
	}

	result, err := h.historyService.ListHistory(c.Request.Context(), filter, listReq.Page, listReq.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.TotalCount, result.Page, result.PageSize)
}

// GetHistory godoc
// @Summary      Get an import history record
// @Tags         imports
// @Produce      json
// @Param        id path string true "History ID"
// @Success      200 {object} dto.Response{data=bulk.ImportHistory}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/history/{id} [get]
func (h *ImportHandler) GetHistory(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid history ID")
		return
	}

	history, err := h.historyService.GetHistory(c.Request.Context(), historyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// DownloadHistoryErrors godoc
// @Summary      Download import row errors as CSV
// @Tags         imports
// @Produce      text/csv
// @Param        id path string true "History ID"
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/history/{id}/errors [get]
func (h *ImportHandler) DownloadHistoryErrors(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid history ID")
		return
	}

	content, fileName, err := h.historyService.GetErrorsCSV(c.Request.Context(), historyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/csv", []byte(content))
}

// DeleteHistory godoc
// @Summary      Delete an import history record
// @Tags         imports
// @Produce      json
// @Param        id path string true "History ID"
// @Success      204 "No Content"
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/history/{id} [delete]
func (h *ImportHandler) DeleteHistory(c *gin.Context) {
	historyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid history ID")
		return
	}

	if err := h.historyService.DeleteHistory(c.Request.Context(), historyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/products/validate", h.ValidateProducts)
		imports.POST("/products", h.ImportProducts)
		imports.POST("/inventory/validate", h.ValidateInventory)
		imports.POST("/inventory", h.ImportInventory)
		imports.POST("/demand/validate", h.ValidateDemand)
		imports.POST("/demand", h.ImportDemand)

		imports.GET("/history", h.ListHistory)
		imports.GET("/history/:id", h.GetHistory)
		imports.GET("/history/:id/errors", h.DownloadHistoryErrors)
		imports.DELETE("/history/:id", h.DeleteHistory)
	}
}
