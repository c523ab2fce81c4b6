package importapp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/bulk"
	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/shared"
	csvimport "github.com/stocksense/backend/internal/infrastructure/import"
)

const adjustmentReasonImport = "csv import"

// InventoryImportService handles inventory level bulk import operations
type InventoryImportService struct {
	inventoryRepo inventory.InventoryRepository
	productRepo   catalog.ProductRepository
	eventBus      shared.EventPublisher
	logger        *zap.Logger
}

// NewInventoryImportService creates a new InventoryImportService
func NewInventoryImportService(
	inventoryRepo inventory.InventoryRepository,
	productRepo catalog.ProductRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *InventoryImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryImportService{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		eventBus:      eventBus,
		logger:        logger,
	}
}

// GetValidationRules returns the validation rules for inventory import
func (s *InventoryImportService) GetValidationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field("product_code").Required().String().MinLength(1).MaxLength(50).Unique().Reference("product").Build(),
		csvimport.Field("current_stock").Required().Int().MinValue(zero).Build(),
		csvimport.Field("min_stock").Int().MinValue(zero).Build(),
		csvimport.Field("reorder_point").Int().MinValue(zero).Build(),
	}
}

// LookupProduct checks whether a product code exists, for reference validation
func (s *InventoryImportService) LookupProduct(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return true, nil // required check happens separately
	}
	return s.productRepo.ExistsByCode(ctx, code)
}

// Import imports inventory levels from validated rows
func (s *InventoryImportService) Import(
	ctx context.Context,
	session *csvimport.ImportSession,
	validRows []*csvimport.Row,
	conflictMode bulk.ConflictMode,
) (*ImportResult, error) {
	if session.State != csvimport.StateValidated {
		return nil, shared.NewDomainError("INVALID_STATE", "Import session must be in validated state")
	}

	if !session.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERRORS", "Cannot import session with validation errors")
	}

	session.UpdateState(csvimport.StateImporting)

	result := &ImportResult{
		TotalRows: len(validRows),
	}
	errors := csvimport.NewErrorCollection(100)

	for _, row := range validRows {
		select {
		case <-ctx.Done():
			session.UpdateState(csvimport.StateCancelled)
			return nil, ctx.Err()
		default:
		}

		err := s.importRow(ctx, row, conflictMode, result, errors)
		if err != nil {
			session.UpdateState(csvimport.StateFailed)
			return nil, err
		}
	}

	result.Errors = errors.Errors()
	result.IsTruncated = errors.IsTruncated()
	result.TotalErrors = errors.TotalCount()

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
	} else {
		session.UpdateState(csvimport.StateCompleted)
	}

	return result, nil
}

// importRow imports a single inventory level row
func (s *InventoryImportService) importRow(
	ctx context.Context,
	row *csvimport.Row,
	conflictMode bulk.ConflictMode,
	result *ImportResult,
	errors *csvimport.ErrorCollection,
) error {
	productCode := row.Get("product_code")
	stockStr := row.Get("current_stock")
	minStockStr := row.Get("min_stock")
	reorderStr := row.Get("reorder_point")

	currentStock, err := strconv.Atoi(stockStr)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "current_stock", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
		result.ErrorRows++
		return nil
	}

	product, err := s.productRepo.FindByCode(ctx, productCode)
	if err != nil {
		if err == shared.ErrNotFound {
			errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "product_code", csvimport.ErrCodeImportReferenceNotFound,
				fmt.Sprintf("product '%s' not found", productCode), productCode))
			result.ErrorRows++
			return nil
		}
		return fmt.Errorf("failed to lookup product: %w", err)
	}

	// The product minimum is the default when the column is omitted
	minStock := product.MinStock
	if minStockStr != "" {
		minStock, err = strconv.Atoi(minStockStr)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "min_stock", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return nil
		}
	}

	reorderPoint := minStock * 2
	if reorderStr != "" {
		reorderPoint, err = strconv.Atoi(reorderStr)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "reorder_point", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return nil
		}
	}

	existing, err := s.inventoryRepo.FindByProductID(ctx, product.ID)
	if err != nil && err != shared.ErrNotFound {
		return fmt.Errorf("failed to check existing inventory level: %w", err)
	}

	if existing != nil {
		switch conflictMode {
		case bulk.ConflictModeSkip:
			result.SkippedRows++
			return nil
		case bulk.ConflictModeFail:
			errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "product_code", csvimport.ErrCodeImportDuplicateInDB,
				fmt.Sprintf("inventory level for product '%s' already exists", productCode), productCode))
			result.ErrorRows++
			return nil
		case bulk.ConflictModeUpdate:
			return s.updateExistingLevel(ctx, existing, row, currentStock, minStock, reorderPoint, result, errors)
		}
	}

	level, err := inventory.NewInventoryLevel(product.ID, currentStock, minStock, reorderPoint)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := s.inventoryRepo.Save(ctx, level); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save inventory level: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, level, productCode)
	result.ImportedRows++
	return nil
}

// updateExistingLevel adjusts an existing level to the imported counts
func (s *InventoryImportService) updateExistingLevel(
	ctx context.Context,
	level *inventory.InventoryLevel,
	row *csvimport.Row,
	currentStock, minStock, reorderPoint int,
	result *ImportResult,
	errors *csvimport.ErrorCollection,
) error {
	if err := level.Adjust(currentStock, adjustmentReasonImport); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "current_stock", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := level.SetMinStock(minStock); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "min_stock", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := level.SetReorderPoint(reorderPoint); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "reorder_point", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := s.inventoryRepo.Save(ctx, level); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save inventory level: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, level, row.Get("product_code"))
	result.UpdatedRows++
	return nil
}

func (s *InventoryImportService) publishEvents(ctx context.Context, level *inventory.InventoryLevel, productCode string) {
	if s.eventBus == nil {
		level.ClearDomainEvents()
		return
	}
	events := level.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish import events",
				zap.String("product_code", productCode),
				zap.Error(err))
		}
	}
	level.ClearDomainEvents()
}
