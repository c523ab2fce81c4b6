package importapp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/bulk"
	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/shared"
	csvimport "github.com/stocksense/backend/internal/infrastructure/import"
)

// Defaults applied to optional product columns
const (
	defaultLeadTimeDays   = 7
	defaultSeasonalFactor = 1.0
)

// ImportResult represents the outcome of a bulk import operation
type ImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ProductImportService handles product bulk import operations
type ProductImportService struct {
	productRepo catalog.ProductRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	productRepo catalog.ProductRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *ProductImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductImportService{
		productRepo: productRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// GetValidationRules returns the validation rules for product import
func (s *ProductImportService) GetValidationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	one := decimal.NewFromInt(1)
	return []csvimport.FieldRule{
		csvimport.Field("code").Required().String().MinLength(1).MaxLength(50).Unique().Build(),
		csvimport.Field("name").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("category").Required().String().MinLength(1).MaxLength(100).Build(),
		csvimport.Field("subcategory").String().MaxLength(100).Build(),
		csvimport.Field("price").Required().Decimal().MinValue(zero).Build(),
		csvimport.Field("lead_time_days").Int().MinValue(one).Build(),
		csvimport.Field("min_stock").Int().MinValue(zero).Build(),
		csvimport.Field("seasonal_factor").Decimal().Custom(validateSeasonalFactor).Build(),
		csvimport.Field("status").String().Custom(validateProductStatus).Build(),
	}
}

// validateProductStatus validates the status field
func validateProductStatus(value string) error {
	if value == "" {
		return nil // optional field
	}
	switch value {
	case "active", "inactive":
		return nil
	default:
		return fmt.Errorf("status must be 'active' or 'inactive'")
	}
}

// validateSeasonalFactor validates the seasonal demand multiplier
func validateSeasonalFactor(value string) error {
	if value == "" {
		return nil // optional field
	}
	factor, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("seasonal_factor must be a number")
	}
	if factor <= 0 {
		return fmt.Errorf("seasonal_factor must be positive")
	}
	return nil
}

// LookupUnique checks if a value already exists for a given field
func (s *ProductImportService) LookupUnique(ctx context.Context, field, value string) (bool, error) {
	if value == "" {
		return false, nil // empty is not a duplicate
	}
	if field == "code" {
		return s.productRepo.ExistsByCode(ctx, value)
	}
	return false, nil
}

// Import imports products from validated rows
func (s *ProductImportService) Import(
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
			// Critical error - stop import
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

// importRow imports a single product row
func (s *ProductImportService) importRow(
	ctx context.Context,
	row *csvimport.Row,
	conflictMode bulk.ConflictMode,
	result *ImportResult,
	errors *csvimport.ErrorCollection,
) error {
	code := row.Get("code")
	name := row.Get("name")
	category := row.Get("category")
	subcategory := row.Get("subcategory")
	priceStr := row.Get("price")
	leadTimeStr := row.Get("lead_time_days")
	minStockStr := row.Get("min_stock")
	seasonalStr := row.Get("seasonal_factor")
	statusStr := row.GetOrDefault("status", "active")

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "price", csvimport.ErrCodeImportInvalidType, "invalid decimal value"))
		result.ErrorRows++
		return nil
	}

	leadTimeDays := defaultLeadTimeDays
	if leadTimeStr != "" {
		leadTimeDays, err = strconv.Atoi(leadTimeStr)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "lead_time_days", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return nil
		}
	}

	minStock := 0
	if minStockStr != "" {
		minStock, err = strconv.Atoi(minStockStr)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "min_stock", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return nil
		}
	}

	seasonalFactor := defaultSeasonalFactor
	if seasonalStr != "" {
		seasonalFactor, err = strconv.ParseFloat(seasonalStr, 64)
		if err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "seasonal_factor", csvimport.ErrCodeImportInvalidType, "invalid number"))
			result.ErrorRows++
			return nil
		}
	}

	// Check for an existing product by code
	existing, err := s.productRepo.FindByCode(ctx, code)
	if err != nil && err != shared.ErrNotFound {
		return fmt.Errorf("failed to check existing product: %w", err)
	}

	if existing != nil {
		switch conflictMode {
		case bulk.ConflictModeSkip:
			result.SkippedRows++
			return nil
		case bulk.ConflictModeFail:
			errors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "code", csvimport.ErrCodeImportDuplicateInDB,
				fmt.Sprintf("product with code '%s' already exists", code), code))
			result.ErrorRows++
			return nil
		case bulk.ConflictModeUpdate:
			return s.updateExistingProduct(ctx, existing, row, name, category, subcategory, price, leadTimeDays, minStock, seasonalFactor, statusStr, result, errors)
		}
	}

	product, err := catalog.NewProduct(code, name, category, price, leadTimeDays)
	if err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if subcategory != "" {
		if err := product.Update(name, category, subcategory); err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "subcategory", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if minStock > 0 {
		if err := product.SetMinStock(minStock); err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "min_stock", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if seasonalFactor != defaultSeasonalFactor {
		if err := product.SetSeasonalFactor(seasonalFactor); err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "seasonal_factor", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if statusStr == "inactive" {
		if err := product.Deactivate(); err != nil {
			errors.Add(csvimport.NewRowError(row.LineNumber, "status", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save product: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, product)
	result.ImportedRows++
	return nil
}

// updateExistingProduct updates an existing product with import data
func (s *ProductImportService) updateExistingProduct(
	ctx context.Context,
	product *catalog.Product,
	row *csvimport.Row,
	name, category, subcategory string,
	price decimal.Decimal,
	leadTimeDays, minStock int,
	seasonalFactor float64,
	statusStr string,
	result *ImportResult,
	errors *csvimport.ErrorCollection,
) error {
	if err := product.Update(name, category, subcategory); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "name", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := product.SetPrice(price); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "price", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := product.SetLeadTime(leadTimeDays); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "lead_time_days", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := product.SetMinStock(minStock); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "min_stock", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if err := product.SetSeasonalFactor(seasonalFactor); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "seasonal_factor", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	// Status transitions
	if statusStr == "active" && !product.IsActive() {
		if err := product.Activate(); err != nil {
			if product.IsDiscontinued() {
				errors.Add(csvimport.NewRowError(row.LineNumber, "status", csvimport.ErrCodeImportValidation, "cannot activate discontinued product"))
				result.ErrorRows++
				return nil
			}
		}
	} else if statusStr == "inactive" && product.IsActive() {
		_ = product.Deactivate() // checked IsActive above
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		errors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save product: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, product)
	result.UpdatedRows++
	return nil
}

func (s *ProductImportService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventBus == nil {
		product.ClearDomainEvents()
		return
	}
	events := product.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish import events",
				zap.String("product_code", product.Code),
				zap.Error(err))
		}
	}
	product.ClearDomainEvents()
}

// ValidateWithWarnings returns validation warnings (non-blocking issues)
func (s *ProductImportService) ValidateWithWarnings(row *csvimport.Row) []string {
	var warnings []string

	// Warning: lead time much longer than typical replenishment cycles
	leadTimeStr := row.Get("lead_time_days")
	if leadTimeStr != "" {
		if leadTime, err := strconv.Atoi(leadTimeStr); err == nil && leadTime > 30 {
			warnings = append(warnings, fmt.Sprintf("row %d: lead time of %d days is unusually long", row.LineNumber, leadTime))
		}
	}

	// Warning: zero price makes lost-sales estimates meaningless
	priceStr := row.Get("price")
	if priceStr != "" {
		if price, err := decimal.NewFromString(priceStr); err == nil && price.IsZero() {
			warnings = append(warnings, fmt.Sprintf("row %d: price is zero", row.LineNumber))
		}
	}

	return warnings
}
